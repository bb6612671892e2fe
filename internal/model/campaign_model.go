package model

import (
	"time"
)

// CampaignModel 募资读模型，金额均以最小单位的十进制字符串保存
type CampaignModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId int64 `json:"campaign_id" gorm:"uniqueIndex;not null"` // 工厂内编号

	// 地址信息
	Address string `json:"address" gorm:"uniqueIndex;not null"`
	Owner   string `json:"owner" gorm:"index;not null"`
	Token   string `json:"token" gorm:"not null"`
	Base    string `json:"base" gorm:"not null"`
	Router  string `json:"router"`

	// 募资参数
	SoftCap          string `json:"soft_cap" gorm:"not null"`
	HardCap          string `json:"hard_cap" gorm:"not null"`
	Rate             string `json:"rate" gorm:"not null"`
	PoolRate         string `json:"pool_rate" gorm:"not null"`
	MinAllowed       string `json:"min_allowed"`
	MaxAllowed       string `json:"max_allowed"`
	LiquidityRate    int64  `json:"liquidity_rate"`
	LockDuration     int64  `json:"lock_duration"`
	StartDate        int64  `json:"start_date" gorm:"index"`
	EndDate          int64  `json:"end_date" gorm:"index"`
	WhitelistEnabled bool   `json:"whitelist_enabled"`

	// 运行状态
	Collected    string         `json:"collected" gorm:"default:'0'"`
	Participants int64          `json:"participants" gorm:"default:0"`
	Status       CampaignStatus `json:"status" gorm:"index;default:'pending'"`
	Locked       bool           `json:"locked"`
	UnlockDate   int64          `json:"unlock_date"`
	LPAddress    string         `json:"lp_address"`
}

// CampaignStatus 募资状态
type CampaignStatus string

const (
	CampaignStatusPending   CampaignStatus = "pending"   // 未开始
	CampaignStatusLive      CampaignStatus = "live"      // 进行中
	CampaignStatusFinalized CampaignStatus = "finalized" // 已完成
	CampaignStatusFailed    CampaignStatus = "failed"    // 失败
	CampaignStatusLocked    CampaignStatus = "locked"    // 流动性锁定
	CampaignStatusUnlocked  CampaignStatus = "unlocked"  // 流动性解锁
	CampaignStatusRefunding CampaignStatus = "refunding" // 退款中
)

// TableName 自定义表名
func (CampaignModel) TableName() string {
	return "campaign"
}
