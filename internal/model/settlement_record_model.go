package model

import (
	"time"
)

// SettlementRecordModel 锁定流动性时的资金划分
type SettlementRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId      int64          `json:"campaign_id" gorm:"uniqueIndex;not null"`
	Collected       string         `json:"collected" gorm:"not null"`
	SaleTokens      string         `json:"sale_tokens"`
	LiquidityBase   string         `json:"liquidity_base"`
	LiquidityTokens string         `json:"liquidity_tokens"`
	BaseFee         string         `json:"base_fee"`  // 基础货币手续费
	TokenFee        string         `json:"token_fee"` // 代币手续费
	Proceeds        string         `json:"proceeds"`  // 发起人所得
	LPAmount        string         `json:"lp_amount"`
	LPAddress       string         `json:"lp_address"`
	SettlementType  SettlementType `json:"settlement_type" gorm:"not null"`
	SettlementTime  *time.Time     `json:"settlement_time"`
}

// SettlementType 结算类型
type SettlementType string

const (
	SettlementTypeLiquidity SettlementType = "liquidity" // 添加流动性
	SettlementTypeRefund    SettlementType = "refund"    // 外部池已有储备，转为退款
)

// TableName 自定义表名
func (SettlementRecordModel) TableName() string {
	return "settlement_record"
}
