package logic

import (
	"fmt"
	"math/big"

	"github.com/blues/launchpad/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// ContributeRecordLogic 认购记录业务逻辑
type ContributeRecordLogic struct {
	db *gorm.DB
}

// NewContributeRecordLogic 创建认购记录业务逻辑
func NewContributeRecordLogic(db *gorm.DB) *ContributeRecordLogic {
	return &ContributeRecordLogic{db: db}
}

// GetCampaignContributeRecords 分页获取募资的认购记录，address 为空时不过滤
func (c *ContributeRecordLogic) GetCampaignContributeRecords(campaignId uint64, address string, page, pageSize int) ([]model.ContributeRecordModel, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	query := c.db.Model(&model.ContributeRecordModel{}).Where("campaign_id = ?", campaignId)
	if address != "" {
		query = query.Where("address = ?", common.HexToAddress(address).Hex())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取认购记录总数失败: %w", err)
	}

	var records []model.ContributeRecordModel
	if err := query.Order("seq DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("获取认购记录失败: %w", err)
	}
	return records, total, nil
}

// ContributeStats 认购统计
type ContributeStats struct {
	CampaignId         uint64 `json:"campaign_id"`
	TotalContributions int64  `json:"total_contributions"`
	UniqueContributors int64  `json:"unique_contributors"`
	TotalAmount        string `json:"total_amount"`
	AverageAmount      string `json:"average_amount"`
	LargestAmount      string `json:"largest_amount"`
	RefundCount        int64  `json:"refund_count"`
	RefundedAmount     string `json:"refunded_amount"`
}

// GetContributeStats 获取认购统计信息
func (c *ContributeRecordLogic) GetContributeStats(campaignId uint64) (*ContributeStats, error) {
	stats := &ContributeStats{CampaignId: campaignId}

	// 唯一认购者数量
	if err := c.db.Model(&model.ContributeRecordModel{}).
		Where("campaign_id = ?", campaignId).
		Select("COUNT(DISTINCT address)").
		Scan(&stats.UniqueContributors).Error; err != nil {
		return nil, fmt.Errorf("获取唯一认购者数量失败: %w", err)
	}

	// 金额以字符串保存，求和在内存中用大整数完成
	var amounts []string
	if err := c.db.Model(&model.ContributeRecordModel{}).
		Where("campaign_id = ?", campaignId).
		Pluck("amount", &amounts).Error; err != nil {
		return nil, fmt.Errorf("获取认购金额失败: %w", err)
	}
	total, largest := sumAmounts(amounts)
	stats.TotalContributions = int64(len(amounts))
	stats.TotalAmount = total.String()
	stats.LargestAmount = largest.String()
	stats.AverageAmount = "0"
	if len(amounts) > 0 {
		stats.AverageAmount = new(big.Int).Quo(total, big.NewInt(int64(len(amounts)))).String()
	}

	var refunds []string
	if err := c.db.Model(&model.RefundRecordModel{}).
		Where("campaign_id = ?", campaignId).
		Pluck("amount", &refunds).Error; err != nil {
		return nil, fmt.Errorf("获取退款金额失败: %w", err)
	}
	refunded, _ := sumAmounts(refunds)
	stats.RefundCount = int64(len(refunds))
	stats.RefundedAmount = refunded.String()
	return stats, nil
}

func sumAmounts(amounts []string) (*big.Int, *big.Int) {
	total, largest := new(big.Int), new(big.Int)
	for _, a := range amounts {
		v, ok := new(big.Int).SetString(a, 10)
		if !ok {
			continue
		}
		total.Add(total, v)
		if v.Cmp(largest) > 0 {
			largest.Set(v)
		}
	}
	return total, largest
}
