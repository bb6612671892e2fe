package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/blues/launchpad/internal/asset"
	"github.com/blues/launchpad/internal/config"
	"github.com/blues/launchpad/internal/database"
	"github.com/blues/launchpad/internal/dex"
	"github.com/blues/launchpad/internal/event"
	"github.com/blues/launchpad/internal/factory"
	"github.com/blues/launchpad/internal/fee"
	"github.com/blues/launchpad/internal/logger"
	"github.com/blues/launchpad/internal/logic"
	"github.com/blues/launchpad/internal/monitor"
	"github.com/blues/launchpad/internal/router"
	"github.com/blues/launchpad/internal/task"
	"github.com/blues/launchpad/internal/tokenlock"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()
	if err := logger.Init(cfg.Log); err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}
	if err := database.Reset(db); err != nil {
		logger.Fatal("Failed to reset read model: %v", err)
	}

	// 内存中的协作方：基础货币、交易所、手续费归集
	lp := cfg.Launchpad
	base := asset.NewLedger(lp.StableCoin(), lp.StableCoinSymbol, lp.BaseDecimals)
	tokens := asset.NewRegistry(base)
	exchange := dex.NewExchange(lp.Router(), time.Now)
	aggregator := fee.NewTally(lp.Aggregator())

	mon, err := monitor.NewEventMonitor(db, cfg.Task.PoolSize)
	if err != nil {
		logger.Fatal("Failed to create event monitor: %v", err)
	}
	defer mon.Stop()

	f, err := factory.New(factory.Settings{
		Address:           lp.Factory(),
		Admin:             lp.Admin(),
		StableCoin:        base,
		FeeAggregator:     aggregator,
		Router:            exchange,
		Tokens:            tokens,
		TokenFeeBP:        lp.TokenFeeBP,
		BaseFeeBP:         lp.BaseFeeBP,
		LiquidityDeadline: lp.LiquidityDeadline,
		Publisher:         mon,
	})
	if err != nil {
		logger.Fatal("Failed to create campaign factory: %v", err)
	}

	lockFee, err := lp.LockFeeAmount()
	if err != nil {
		logger.Fatal("Invalid lock fee: %v", err)
	}
	locks := tokenlock.New(tokenlock.Settings{
		Address:       lp.LockFactory(),
		Admin:         lp.Admin(),
		StableCoin:    base,
		FeeAggregator: aggregator,
		Fee:           lockFee,
		Publisher:     mon,
	})

	projector := monitor.NewProjector(f, locks)
	mon.Attach(projector)
	mon.Subscribe(func(d *event.Decoded) {
		logger.Debug("Event %s from %s: %v", d.Name, d.Address.Hex(), d.Fields)
	})

	// 启动定时任务
	tasks, err := task.NewManager(logic.NewSyncLogic(db, f, locks, projector), time.Duration(cfg.Task.Interval)*time.Second)
	if err != nil {
		logger.Fatal("Failed to create task manager: %v", err)
	}
	if err := tasks.Start(); err != nil {
		logger.Fatal("Failed to start tasks: %v", err)
	}
	defer tasks.Stop()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	services := router.Services{
		Campaigns:   logic.NewCampaignLogic(db, f, tokens),
		Contributes: logic.NewContributeRecordLogic(db),
		Refunds:     logic.NewRefundRecordLogic(db),
		Locks:       logic.NewLockLogic(db, locks, tokens),
		Events:      logic.NewEventLogic(db),
		Settings:    logic.NewSettingsLogic(f, locks),
	}
	if cfg.Server.Sandbox {
		// 测试代币地址由管理员地址派生
		services.Tokens = logic.NewTokenLogic(tokens, crypto.CreateAddress(lp.Admin(), 0))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router.Setup(services),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
}
