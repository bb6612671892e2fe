package model

import (
	"time"
)

// ContributeRecordModel 认购记录
type ContributeRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId      int64  `json:"campaign_id" gorm:"index;not null"`
	CampaignAddress string `json:"campaign_address" gorm:"not null"`
	Address         string `json:"address" gorm:"index;not null"`
	Amount          string `json:"amount" gorm:"not null"`
	Seq             uint64 `json:"seq" gorm:"uniqueIndex"` // 对应事件序号
}

// TableName 自定义表名
func (ContributeRecordModel) TableName() string {
	return "contribute_record"
}
