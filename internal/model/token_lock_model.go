package model

import (
	"time"
)

// TokenLockModel 锁仓读模型
type TokenLockModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	LockId int64 `json:"lock_id" gorm:"uniqueIndex;not null"`

	Owner     string `json:"owner" gorm:"index;not null"`
	Token     string `json:"token" gorm:"index;not null"`
	Amount    string `json:"amount" gorm:"not null"`
	StartTime int64  `json:"start_time"`
	Duration  int64  `json:"duration"`
	Releases  int64  `json:"releases"`
	Released  string `json:"released" gorm:"default:'0'"`
	Unlocked  string `json:"unlocked" gorm:"default:'0'"`  // 已解锁总量
	Available string `json:"available" gorm:"default:'0'"` // 当前可提取
}

// TableName 自定义表名
func (TokenLockModel) TableName() string {
	return "token_lock"
}
