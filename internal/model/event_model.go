package model

import (
	"time"
)

// EventModel 引擎事件记录，topics 与 data 为 ABI 编码后的十六进制
type EventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ContractAddress string `json:"contract_address" gorm:"index;not null"`
	EventType       string `json:"event_type" gorm:"index;not null"`
	Seq             uint64 `json:"seq" gorm:"uniqueIndex;not null"`
	Topics          string `json:"topics" gorm:"type:text"`
	Data            string `json:"data" gorm:"type:text"`
	Fields          string `json:"fields" gorm:"type:text"` // 解码后的字段 JSON
	Processed       bool   `json:"processed" gorm:"default:false"`
}

// TableName 自定义表名
func (EventModel) TableName() string {
	return "event"
}

// All 全部读模型，用于自动迁移
func All() []interface{} {
	return []interface{}{
		&CampaignModel{},
		&ContributeRecordModel{},
		&RefundRecordModel{},
		&SettlementRecordModel{},
		&TokenLockModel{},
		&EventModel{},
	}
}
