package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/blues/launchpad/internal/event"
	"github.com/blues/launchpad/internal/logger"
	"github.com/blues/launchpad/internal/model"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// Subscriber 事件订阅回调，在协程池中执行
type Subscriber func(d *event.Decoded)

// EventMonitor 接收引擎事件：按 ABI 编码落库、投影读模型、分发给订阅者
type EventMonitor struct {
	db        *gorm.DB
	projector *Projector
	pool      *ants.Pool // 协程池

	mu  sync.Mutex // 保护 seq 与落库顺序
	seq uint64

	subMu       sync.RWMutex
	subscribers []Subscriber
	wg          sync.WaitGroup
}

// NewEventMonitor 创建事件监控器
func NewEventMonitor(db *gorm.DB, poolSize int) (*EventMonitor, error) {
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	m := &EventMonitor{db: db, pool: pool}
	if err := m.loadLastSeq(); err != nil {
		pool.Release()
		return nil, err
	}
	return m, nil
}

// Attach 绑定投影器，未绑定时事件只落库
func (m *EventMonitor) Attach(p *Projector) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projector = p
}

// Subscribe 注册订阅者
func (m *EventMonitor) Subscribe(s Subscriber) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.subscribers = append(m.subscribers, s)
}

// loadLastSeq 从数据库加载最后处理的事件序号
func (m *EventMonitor) loadLastSeq() error {
	var last model.EventModel
	err := m.db.Order("seq DESC").First(&last).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Info("No previous events found, starting from seq 0")
			return nil
		}
		return fmt.Errorf("failed to load last event: %w", err)
	}
	m.seq = last.Seq
	logger.Info("Loaded last event seq %d", last.Seq)
	return nil
}

// Publish 实现 event.Publisher
func (m *EventMonitor) Publish(ctx context.Context, events ...event.Event) {
	for _, e := range events {
		d, err := m.record(ctx, e)
		if err != nil {
			logger.Error("Failed to record event %s from %s: %v", e.Name(), e.Source().Hex(), err)
			continue
		}
		m.dispatch(d)
	}
}

func (m *EventMonitor) record(ctx context.Context, e event.Event) (*event.Decoded, error) {
	l, err := event.Encode(e)
	if err != nil {
		return nil, err
	}
	d, err := event.Decode(l)
	if err != nil {
		return nil, fmt.Errorf("failed to parse event: %w", err)
	}
	fields, err := json.Marshal(d.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data: %w", err)
	}

	topics := make([]string, len(l.Topics))
	for i, t := range l.Topics {
		topics[i] = t.Hex()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec := model.EventModel{
		ContractAddress: l.Address.Hex(),
		EventType:       d.Name,
		Seq:             m.seq + 1,
		Topics:          strings.Join(topics, ","),
		Data:            hexutil.Encode(l.Data),
		Fields:          string(fields),
	}
	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to save event: %w", err)
		}
		if m.projector == nil {
			return nil
		}
		if err := m.projector.Process(tx, rec.Seq, d); err != nil {
			return fmt.Errorf("failed to process event: %w", err)
		}
		return tx.Model(&model.EventModel{}).Where("id = ?", rec.Id).Update("processed", true).Error
	})
	if err != nil {
		return nil, err
	}
	m.seq = rec.Seq
	logger.Info("Saved event: %s #%d from %s", d.Name, rec.Seq, l.Address.Hex())
	return d, nil
}

func (m *EventMonitor) dispatch(d *event.Decoded) {
	m.subMu.RLock()
	subs := make([]Subscriber, len(m.subscribers))
	copy(subs, m.subscribers)
	m.subMu.RUnlock()

	for _, sub := range subs {
		sub := sub
		m.wg.Add(1)
		err := m.pool.Submit(func() {
			defer m.wg.Done()
			sub(d)
		})
		if err != nil {
			m.wg.Done()
			logger.Error("Failed to submit task to pool: %v", err)
		}
	}
}

// Wait 等待已分发的订阅回调执行完毕
func (m *EventMonitor) Wait() {
	m.wg.Wait()
}

// Stop 等待回调结束并释放协程池
func (m *EventMonitor) Stop() {
	logger.Info("Stopping event monitor")
	m.wg.Wait()
	m.pool.Release()
}
