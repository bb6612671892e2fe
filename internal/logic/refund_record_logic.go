package logic

import (
	"fmt"

	"github.com/blues/launchpad/internal/model"
	"gorm.io/gorm"
)

// RefundRecordLogic 退款记录业务逻辑
type RefundRecordLogic struct {
	db *gorm.DB
}

// NewRefundRecordLogic 创建退款记录业务逻辑
func NewRefundRecordLogic(db *gorm.DB) *RefundRecordLogic {
	return &RefundRecordLogic{db: db}
}

// GetCampaignRefundRecords 分页获取募资的退款记录
func (r *RefundRecordLogic) GetCampaignRefundRecords(campaignId uint64, page, pageSize int) ([]model.RefundRecordModel, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	var total int64
	if err := r.db.Model(&model.RefundRecordModel{}).Where("campaign_id = ?", campaignId).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取退款记录总数失败: %w", err)
	}

	var records []model.RefundRecordModel
	if err := r.db.Where("campaign_id = ?", campaignId).
		Order("seq DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("获取退款记录失败: %w", err)
	}
	return records, total, nil
}
