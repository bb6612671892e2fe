package model

import (
	"time"
)

// RefundRecordModel 退款记录
type RefundRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId int64  `json:"campaign_id" gorm:"index;not null"`
	Address    string `json:"address" gorm:"index;not null"`
	Amount     string `json:"amount" gorm:"not null"`
	Seq        uint64 `json:"seq" gorm:"uniqueIndex"`
}

// TableName 自定义表名
func (RefundRecordModel) TableName() string {
	return "refund_record"
}
