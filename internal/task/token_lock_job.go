package task

import (
	"context"
	"time"

	"github.com/blues/launchpad/internal/logger"
	"github.com/blues/launchpad/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

// TokenLockJob 锁仓可提取数量同步任务
type TokenLockJob struct {
	sync     *logic.SyncLogic
	interval time.Duration
}

// NewTokenLockJob 创建锁仓同步任务
func NewTokenLockJob(sync *logic.SyncLogic, interval time.Duration) *TokenLockJob {
	return &TokenLockJob{sync: sync, interval: interval}
}

// GetName 获取任务名称
func (j *TokenLockJob) GetName() string {
	return "token_lock_sync"
}

// GetSchedule 获取调度配置
func (j *TokenLockJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(j.interval)
}

// Execute 执行任务
func (j *TokenLockJob) Execute() {
	ctx, cancel := context.WithTimeout(context.Background(), j.interval)
	defer cancel()

	n, err := j.sync.SyncTokenLocks(ctx)
	if err != nil {
		logger.Error("Token lock sync failed at lock %d: %v", n, err)
		return
	}
	logger.Debug("Token lock sync completed, %d locks", n)
}
