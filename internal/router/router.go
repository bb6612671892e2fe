package router

import (
	"net/http"

	"github.com/blues/launchpad/internal/handler"
	"github.com/blues/launchpad/internal/logic"
	"github.com/gin-gonic/gin"
)

// Services 路由依赖的业务逻辑
type Services struct {
	Campaigns   *logic.CampaignLogic
	Contributes *logic.ContributeRecordLogic
	Refunds     *logic.RefundRecordLogic
	Locks       *logic.LockLogic
	Events      *logic.EventLogic
	Settings    *logic.SettingsLogic
	Tokens      *logic.TokenLogic // 为空时不注册沙盒代币路由
}

func Setup(s Services) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "launchpad",
		})
	})

	campaignHandler := handler.NewCampaignHandler(s.Campaigns, s.Contributes)
	contributeHandler := handler.NewContributeHandler(s.Campaigns)
	contributeRecordHandler := handler.NewContributeRecordHandler(s.Contributes)
	refundHandler := handler.NewRefundHandler(s.Campaigns)
	refundRecordHandler := handler.NewRefundRecordHandler(s.Refunds)
	lockHandler := handler.NewLockHandler(s.Locks)
	eventHandler := handler.NewEventHandler(s.Events)
	settingsHandler := handler.NewSettingsHandler(s.Settings)

	account := handler.RequireAccount()

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 募资相关路由
		campaigns := v1.Group("/campaigns")
		{
			campaigns.GET("", campaignHandler.GetCampaigns)
			campaigns.GET("/:id", campaignHandler.GetCampaign)
			campaigns.GET("/:id/stats", campaignHandler.GetCampaignStats)
			campaigns.GET("/:id/settlement", campaignHandler.GetCampaignSettlement)
			campaigns.GET("/:id/contributions", contributeRecordHandler.GetCampaignContributeRecords)
			campaigns.GET("/:id/refunds", refundRecordHandler.GetCampaignRefunds)
			campaigns.POST("/tokens-needed", campaignHandler.TokensNeeded)

			campaigns.POST("", account, campaignHandler.CreateCampaign)
			campaigns.POST("/:id/buy", account, contributeHandler.Buy)
			campaigns.POST("/:id/lock", account, campaignHandler.LockLiquidity)
			campaigns.POST("/:id/unlock", account, campaignHandler.UnlockLiquidity)
			campaigns.POST("/:id/withdraw-tokens", account, contributeHandler.WithdrawTokens)
			campaigns.POST("/:id/withdraw-funds", account, refundHandler.WithdrawFunds)
			campaigns.POST("/:id/whitelist", account, campaignHandler.SetWhitelist)
			campaigns.PUT("/:id/whitelist-enabled", account, campaignHandler.SetWhitelistEnabled)
			campaigns.PUT("/:id/lp-address", account, campaignHandler.SetLPAddress)
		}

		// 锁仓相关路由
		locks := v1.Group("/locks")
		{
			locks.GET("/:id", lockHandler.GetLock)
			locks.POST("", account, lockHandler.CreateLock)
			locks.POST("/:id/unlock", account, lockHandler.Unlock)
			locks.POST("/:id/unlock-available", account, lockHandler.UnlockAvailable)
			locks.PUT("/:id/owner", account, lockHandler.ChangeOwner)
		}

		// 用户相关路由
		users := v1.Group("/users")
		{
			users.GET("/:address/campaigns", campaignHandler.GetUserCampaigns)
			users.GET("/:address/locks", lockHandler.GetUserLocks)
		}

		v1.GET("/events", eventHandler.GetEvents)
		v1.GET("/events/:id", eventHandler.GetEvent)
		v1.GET("/settings", settingsHandler.GetSettings)

		// 管理员路由，权限由工厂校验
		admin := v1.Group("/admin", account)
		{
			admin.PUT("/token-fee", settingsHandler.SetTokenFee)
			admin.PUT("/base-fee", settingsHandler.SetBaseFee)
			admin.PUT("/lock-fee", settingsHandler.SetLockFee)
		}

		// 沙盒代币
		if s.Tokens != nil {
			tokenHandler := handler.NewTokenHandler(s.Tokens)
			tokens := v1.Group("/tokens")
			{
				tokens.POST("", account, tokenHandler.Deploy)
				tokens.POST("/:address/approve", account, tokenHandler.Approve)
				tokens.POST("/:address/mint", account, tokenHandler.Mint)
				tokens.GET("/:address/balances/:owner", tokenHandler.Balance)
			}
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, "+handler.AccountHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
