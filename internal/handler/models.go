package handler

import (
	"math/big"
	"time"

	"github.com/blues/launchpad/internal/logic"
	"github.com/blues/launchpad/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// 募资相关响应模型

// CampaignResponse 募资响应模型，金额为最小单位，Display 为按精度换算后的数量
type CampaignResponse struct {
	ID               int64           `json:"id"`
	Address          string          `json:"address"`
	Owner            string          `json:"owner"`
	Token            string          `json:"token"`
	Base             string          `json:"base"`
	Router           string          `json:"router"`
	SoftCap          string          `json:"softCap"`
	HardCap          string          `json:"hardCap"`
	Rate             string          `json:"rate"`
	PoolRate         string          `json:"poolRate"`
	MinAllowed       string          `json:"minAllowed"`
	MaxAllowed       string          `json:"maxAllowed"`
	LiquidityRate    int64           `json:"liquidityRate"`
	LockDuration     int64           `json:"lockDuration"`
	StartDate        int64           `json:"startDate"`
	EndDate          int64           `json:"endDate"`
	WhitelistEnabled bool            `json:"whitelistEnabled"`
	Collected        string          `json:"collected"`
	Participants     int64           `json:"participants"`
	Status           string          `json:"status"`
	Locked           bool            `json:"locked"`
	UnlockDate       int64           `json:"unlockDate"`
	LPAddress        string          `json:"lpAddress"`
	Display          CampaignDisplay `json:"display"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// CampaignDisplay 可读数量
type CampaignDisplay struct {
	SoftCap    string `json:"softCap"`
	HardCap    string `json:"hardCap"`
	MinAllowed string `json:"minAllowed"`
	MaxAllowed string `json:"maxAllowed"`
	Collected  string `json:"collected"`
	Progress   string `json:"progress"` // 已募集占硬顶百分比
}

// CreateCampaignResponse 创建募资响应
type CreateCampaignResponse struct {
	ID      uint64 `json:"id"`
	Address string `json:"address"`
}

// SettlementResponse 结算响应模型
type SettlementResponse struct {
	CampaignID      int64      `json:"campaignId"`
	Type            string     `json:"type"`
	Collected       string     `json:"collected"`
	SaleTokens      string     `json:"saleTokens"`
	LiquidityBase   string     `json:"liquidityBase"`
	LiquidityTokens string     `json:"liquidityTokens"`
	BaseFee         string     `json:"baseFee"`
	TokenFee        string     `json:"tokenFee"`
	Proceeds        string     `json:"proceeds"`
	LPAmount        string     `json:"lpAmount"`
	LPAddress       string     `json:"lpAddress"`
	SettledAt       *time.Time `json:"settledAt"`
}

// CampaignStatsResponse 募资统计响应
type CampaignStatsResponse struct {
	Campaign CampaignResponse       `json:"campaign"`
	Stats    *logic.ContributeStats `json:"stats"`
}

// 认购与退款记录响应模型

// ContributeRecordResponse 认购记录响应模型
type ContributeRecordResponse struct {
	ID         int64     `json:"id"`
	CampaignID int64     `json:"campaignId"`
	Address    string    `json:"address"`
	Amount     string    `json:"amount"`
	Seq        uint64    `json:"seq"`
	CreatedAt  time.Time `json:"createdAt"`
}

// GetCampaignContributeRecordsResponse 获取募资认购记录响应
type GetCampaignContributeRecordsResponse struct {
	Records    []ContributeRecordResponse `json:"records"`
	Pagination Pagination                 `json:"pagination"`
}

// RefundRecordResponse 退款记录响应模型
type RefundRecordResponse struct {
	ID         int64     `json:"id"`
	CampaignID int64     `json:"campaignId"`
	Address    string    `json:"address"`
	Amount     string    `json:"amount"`
	Seq        uint64    `json:"seq"`
	CreatedAt  time.Time `json:"createdAt"`
}

// GetCampaignRefundsResponse 获取募资退款记录响应
type GetCampaignRefundsResponse struct {
	Refunds    []RefundRecordResponse `json:"refunds"`
	Pagination Pagination             `json:"pagination"`
}

// 锁仓相关响应模型

// LockResponse 锁仓响应模型
type LockResponse struct {
	ID        uint64 `json:"id"`
	Owner     string `json:"owner"`
	Token     string `json:"token"`
	Amount    string `json:"amount"`
	StartTime int64  `json:"startTime"`
	Duration  int64  `json:"duration"`
	Releases  uint64 `json:"releases"`
	Released  string `json:"released"`
	Unlocked  string `json:"unlocked"`
	Available string `json:"available"`
}

// EventResponse 事件响应模型
type EventResponse struct {
	Seq             uint64    `json:"seq"`
	EventType       string    `json:"eventType"`
	ContractAddress string    `json:"contractAddress"`
	Topics          string    `json:"topics"`
	Data            string    `json:"data"`
	Fields          string    `json:"fields"`
	CreatedAt       time.Time `json:"createdAt"`
}

// GetEventsResponse 获取事件列表响应
type GetEventsResponse struct {
	Events     []EventResponse `json:"events"`
	Pagination Pagination      `json:"pagination"`
}

// 转换函数

// ToCampaignResponse 将数据库模型转换为响应模型
func ToCampaignResponse(m *model.CampaignModel, baseDecimals uint8) CampaignResponse {
	return CampaignResponse{
		ID:               m.CampaignId,
		Address:          m.Address,
		Owner:            m.Owner,
		Token:            m.Token,
		Base:             m.Base,
		Router:           m.Router,
		SoftCap:          m.SoftCap,
		HardCap:          m.HardCap,
		Rate:             m.Rate,
		PoolRate:         m.PoolRate,
		MinAllowed:       m.MinAllowed,
		MaxAllowed:       m.MaxAllowed,
		LiquidityRate:    m.LiquidityRate,
		LockDuration:     m.LockDuration,
		StartDate:        m.StartDate,
		EndDate:          m.EndDate,
		WhitelistEnabled: m.WhitelistEnabled,
		Collected:        m.Collected,
		Participants:     m.Participants,
		Status:           string(m.Status),
		Locked:           m.Locked,
		UnlockDate:       m.UnlockDate,
		LPAddress:        m.LPAddress,
		Display: CampaignDisplay{
			SoftCap:    logic.FormatUnits(m.SoftCap, baseDecimals),
			HardCap:    logic.FormatUnits(m.HardCap, baseDecimals),
			MinAllowed: logic.FormatUnits(m.MinAllowed, baseDecimals),
			MaxAllowed: logic.FormatUnits(m.MaxAllowed, baseDecimals),
			Collected:  logic.FormatUnits(m.Collected, baseDecimals),
			Progress:   logic.Percent(m.Collected, m.HardCap),
		},
		UpdatedAt: m.UpdatedAt,
	}
}

// ToCampaignResponseList 将数据库模型列表转换为响应模型列表
func ToCampaignResponseList(campaigns []model.CampaignModel, baseDecimals uint8) []CampaignResponse {
	result := make([]CampaignResponse, len(campaigns))
	for i := range campaigns {
		result[i] = ToCampaignResponse(&campaigns[i], baseDecimals)
	}
	return result
}

// ToSettlementResponse 将结算记录转换为响应模型
func ToSettlementResponse(r *model.SettlementRecordModel) SettlementResponse {
	return SettlementResponse{
		CampaignID:      r.CampaignId,
		Type:            string(r.SettlementType),
		Collected:       r.Collected,
		SaleTokens:      r.SaleTokens,
		LiquidityBase:   r.LiquidityBase,
		LiquidityTokens: r.LiquidityTokens,
		BaseFee:         r.BaseFee,
		TokenFee:        r.TokenFee,
		Proceeds:        r.Proceeds,
		LPAmount:        r.LPAmount,
		LPAddress:       r.LPAddress,
		SettledAt:       r.SettlementTime,
	}
}

// ToContributeRecordResponseList 将认购记录列表转换为响应模型列表
func ToContributeRecordResponseList(records []model.ContributeRecordModel) []ContributeRecordResponse {
	result := make([]ContributeRecordResponse, len(records))
	for i, r := range records {
		result[i] = ContributeRecordResponse{
			ID:         r.Id,
			CampaignID: r.CampaignId,
			Address:    r.Address,
			Amount:     r.Amount,
			Seq:        r.Seq,
			CreatedAt:  r.CreatedAt,
		}
	}
	return result
}

// ToRefundRecordResponseList 将退款记录列表转换为响应模型列表
func ToRefundRecordResponseList(records []model.RefundRecordModel) []RefundRecordResponse {
	result := make([]RefundRecordResponse, len(records))
	for i, r := range records {
		result[i] = RefundRecordResponse{
			ID:         r.Id,
			CampaignID: r.CampaignId,
			Address:    r.Address,
			Amount:     r.Amount,
			Seq:        r.Seq,
			CreatedAt:  r.CreatedAt,
		}
	}
	return result
}

// ToLockResponse 将锁仓详情转换为响应模型
func ToLockResponse(v *logic.LockView) LockResponse {
	return LockResponse{
		ID:        v.ID,
		Owner:     v.Owner.Hex(),
		Token:     v.Token.Hex(),
		Amount:    amountString(v.Amount),
		StartTime: v.StartTime,
		Duration:  v.Duration,
		Releases:  v.Releases,
		Released:  amountString(v.Released),
		Unlocked:  amountString(v.Unlocked),
		Available: amountString(v.Available),
	}
}

// ToLockResponseList 将锁仓读模型列表转换为响应模型列表
func ToLockResponseList(rows []model.TokenLockModel) []LockResponse {
	result := make([]LockResponse, len(rows))
	for i, r := range rows {
		result[i] = LockResponse{
			ID:        uint64(r.LockId),
			Owner:     r.Owner,
			Token:     r.Token,
			Amount:    r.Amount,
			StartTime: r.StartTime,
			Duration:  r.Duration,
			Releases:  uint64(r.Releases),
			Released:  r.Released,
			Unlocked:  r.Unlocked,
			Available: r.Available,
		}
	}
	return result
}

// ToEventResponseList 将事件列表转换为响应模型列表
func ToEventResponseList(events []model.EventModel) []EventResponse {
	result := make([]EventResponse, len(events))
	for i, e := range events {
		result[i] = EventResponse{
			Seq:             e.Seq,
			EventType:       e.EventType,
			ContractAddress: e.ContractAddress,
			Topics:          e.Topics,
			Data:            e.Data,
			Fields:          e.Fields,
			CreatedAt:       e.CreatedAt,
		}
	}
	return result
}

func amountString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
