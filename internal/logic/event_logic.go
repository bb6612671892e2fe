package logic

import (
	"errors"
	"fmt"

	"github.com/blues/launchpad/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"
)

// EventLogic 事件业务逻辑
type EventLogic struct {
	db *gorm.DB
}

// NewEventLogic 创建事件业务逻辑
func NewEventLogic(db *gorm.DB) *EventLogic {
	return &EventLogic{db: db}
}

// GetEvents 获取事件列表
func (e *EventLogic) GetEvents(eventType, contractAddress string, page, pageSize int) ([]model.EventModel, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	// 构建查询条件
	query := e.db.Model(&model.EventModel{})
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}
	if contractAddress != "" {
		query = query.Where("contract_address = ?", common.HexToAddress(contractAddress).Hex())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("获取事件总数失败: %w", err)
	}

	var events []model.EventModel
	if err := query.Order("seq DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("获取事件列表失败: %w", err)
	}
	return events, total, nil
}

// GetEvent 按序号获取事件
func (e *EventLogic) GetEvent(seq uint64) (*model.EventModel, error) {
	var ev model.EventModel
	if err := e.db.Where("seq = ?", seq).First(&ev).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("获取事件失败: %w", err)
	}
	return &ev, nil
}

