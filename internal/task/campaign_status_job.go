package task

import (
	"context"
	"time"

	"github.com/blues/launchpad/internal/logger"
	"github.com/blues/launchpad/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

// CampaignStatusJob 募资状态同步任务：开始、结束等随时间变化的状态不会产生事件
type CampaignStatusJob struct {
	sync     *logic.SyncLogic
	interval time.Duration
}

// NewCampaignStatusJob 创建募资状态同步任务
func NewCampaignStatusJob(sync *logic.SyncLogic, interval time.Duration) *CampaignStatusJob {
	return &CampaignStatusJob{sync: sync, interval: interval}
}

// GetName 获取任务名称
func (j *CampaignStatusJob) GetName() string {
	return "campaign_status_sync"
}

// GetSchedule 获取调度配置
func (j *CampaignStatusJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *CampaignStatusJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), j.interval)
	defer cancel()

	updated, err := j.sync.SyncCampaignStatus(ctx)
	if err != nil {
		logger.Error("Campaign status sync failed after %d updates: %v", updated, err)
		return
	}
	if updated > 0 {
		logger.Info("Campaign status sync completed, updated %d campaigns", updated)
	}
}
