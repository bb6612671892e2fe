package task

import (
	"fmt"
	"time"

	"github.com/blues/launchpad/internal/logger"
	"github.com/blues/launchpad/internal/logic"
	"github.com/go-co-op/gocron/v2"
)

// Job 定时任务
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	jobs      []Job
}

// NewManager 创建新的任务管理器
func NewManager(sync *logic.SyncLogic, interval time.Duration) (*Manager, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Manager{
		scheduler: s,
		jobs: []Job{
			NewCampaignStatusJob(sync, interval),
			NewTokenLockJob(sync, interval),
		},
	}, nil
}

// Start 注册所有任务并启动调度器
func (m *Manager) Start() error {
	if err := m.RegisterJobs(); err != nil {
		return err
	}
	m.scheduler.Start()
	logger.Info("Task manager started successfully")
	return nil
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() error {
	for _, job := range m.jobs {
		_, err := m.scheduler.NewJob(
			job.GetSchedule(),
			gocron.NewTask(job.Execute),
			gocron.WithName(job.GetName()),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("failed to register job %s: %w", job.GetName(), err)
		}
	}
	return nil
}

// Jobs 已注册任务名称
func (m *Manager) Jobs() []string {
	names := make([]string, 0, len(m.jobs))
	for _, j := range m.scheduler.Jobs() {
		names = append(names, j.Name())
	}
	return names
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
