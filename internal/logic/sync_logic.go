package logic

import (
	"context"
	"fmt"

	"github.com/blues/launchpad/internal/factory"
	"github.com/blues/launchpad/internal/logger"
	"github.com/blues/launchpad/internal/model"
	"github.com/blues/launchpad/internal/monitor"
	"github.com/blues/launchpad/internal/tokenlock"
	"gorm.io/gorm"
)

// SyncLogic 将随时间变化的引擎状态重新投影到读模型
type SyncLogic struct {
	db        *gorm.DB
	factory   *factory.Factory
	locks     *tokenlock.Factory
	projector *monitor.Projector
}

// NewSyncLogic 创建同步逻辑
func NewSyncLogic(db *gorm.DB, f *factory.Factory, locks *tokenlock.Factory, p *monitor.Projector) *SyncLogic {
	return &SyncLogic{db: db, factory: f, locks: locks, projector: p}
}

// SyncCampaignStatus 刷新状态发生变化的募资，返回刷新数量
func (s *SyncLogic) SyncCampaignStatus(ctx context.Context) (int, error) {
	var rows []model.CampaignModel
	if err := s.db.WithContext(ctx).Select("campaign_id", "status").Find(&rows).Error; err != nil {
		return 0, fmt.Errorf("获取募资状态失败: %w", err)
	}
	stored := make(map[uint64]model.CampaignStatus, len(rows))
	for _, r := range rows {
		stored[uint64(r.CampaignId)] = r.Status
	}

	updated := 0
	for id, c := range s.factory.Campaigns() {
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		state := c.Snapshot()
		old, ok := stored[uint64(id)]
		if ok && old == model.CampaignStatus(state.Status) {
			continue
		}
		if err := s.projector.SyncCampaign(s.db.WithContext(ctx), uint64(id), state); err != nil {
			return updated, fmt.Errorf("同步募资 %d 失败: %w", id, err)
		}
		logger.Info("Campaign %d status %s -> %s", id, old, state.Status)
		updated++
	}
	return updated, nil
}

// SyncTokenLocks 刷新全部锁仓的已解锁与可提取数量
func (s *SyncLogic) SyncTokenLocks(ctx context.Context) (int, error) {
	n := s.locks.LockCount()
	for id := 0; id < n; id++ {
		if err := ctx.Err(); err != nil {
			return id, err
		}
		if err := s.projector.SyncLock(s.db.WithContext(ctx), uint64(id)); err != nil {
			return id, fmt.Errorf("同步锁仓 %d 失败: %w", id, err)
		}
	}
	return n, nil
}
