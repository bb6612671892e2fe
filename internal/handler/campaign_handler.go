package handler

import (
	"net/http"

	"github.com/blues/launchpad/internal/logic"
	"github.com/gin-gonic/gin"
)

// CampaignHandler 募资处理器
type CampaignHandler struct {
	campaignLogic   *logic.CampaignLogic
	contributeLogic *logic.ContributeRecordLogic
}

// NewCampaignHandler 创建募资处理器
func NewCampaignHandler(campaignLogic *logic.CampaignLogic, contributeLogic *logic.ContributeRecordLogic) *CampaignHandler {
	return &CampaignHandler{
		campaignLogic:   campaignLogic,
		contributeLogic: contributeLogic,
	}
}

// GetCampaigns 获取募资列表
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	status := c.Query("status")
	owner := c.Query("owner")
	page, pageSize := pageQuery(c)

	campaigns, total, err := h.campaignLogic.GetCampaigns(status, owner, page, pageSize)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取募资列表成功", gin.H{
		"campaigns":  ToCampaignResponseList(campaigns, h.campaignLogic.BaseDecimals()),
		"pagination": newPagination(page, pageSize, total),
	})
}

// GetCampaign 获取募资详情
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	campaign, err := h.campaignLogic.GetCampaign(id)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取募资详情成功", gin.H{
		"campaign": ToCampaignResponse(campaign, h.campaignLogic.BaseDecimals()),
	})
}

// GetCampaignStats 获取募资统计
func (h *CampaignHandler) GetCampaignStats(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	campaign, err := h.campaignLogic.GetCampaign(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	stats, err := h.contributeLogic.GetContributeStats(id)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取募资统计成功", CampaignStatsResponse{
		Campaign: ToCampaignResponse(campaign, h.campaignLogic.BaseDecimals()),
		Stats:    stats,
	})
}

// GetCampaignSettlement 获取募资结算记录
func (h *CampaignHandler) GetCampaignSettlement(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	record, err := h.campaignLogic.GetSettlement(id)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取结算记录成功", gin.H{
		"settlement": ToSettlementResponse(record),
	})
}

// GetUserCampaigns 获取用户创建的募资
func (h *CampaignHandler) GetUserCampaigns(c *gin.Context) {
	user, err := logic.ParseAddress("address", c.Param("address"))
	if err != nil {
		HandleError(c, err)
		return
	}

	campaigns, err := h.campaignLogic.GetUserCampaigns(user)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取用户募资成功", gin.H{
		"campaigns": ToCampaignResponseList(campaigns, h.campaignLogic.BaseDecimals()),
	})
}

// TokensNeeded 计算创建募资需要托管的代币数量
func (h *CampaignHandler) TokensNeeded(c *gin.Context) {
	var req logic.CampaignInput
	if !bindJSON(c, &req) {
		return
	}

	needed, err := h.campaignLogic.TokensNeeded(req)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "计算成功", gin.H{"tokensNeeded": needed.String()})
}

// CreateCampaign 创建募资
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req logic.CampaignInput
	if !bindJSON(c, &req) {
		return
	}

	id, addr, err := h.campaignLogic.CreateCampaign(c.Request.Context(), caller(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "募资创建成功", CreateCampaignResponse{
		ID:      id,
		Address: addr.Hex(),
	})
}

// LockLiquidity 添加流动性并锁定
func (h *CampaignHandler) LockLiquidity(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	settlement, err := h.campaignLogic.Lock(c.Request.Context(), caller(c), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	if settlement.Refunded {
		SuccessResponse(c, http.StatusOK, "交易对已存在储备，募资转为退款", gin.H{"refunded": true})
		return
	}
	SuccessResponse(c, http.StatusOK, "流动性已锁定", gin.H{
		"refunded":        false,
		"lpAmount":        amountString(settlement.LPAmount),
		"liquidityBase":   amountString(settlement.LiquidityBase),
		"liquidityTokens": amountString(settlement.LiquidityTokens),
		"baseFee":         amountString(settlement.BaseFee),
		"tokenFee":        amountString(settlement.TokenFee),
		"proceeds":        amountString(settlement.Proceeds),
	})
}

// UnlockLiquidity 解锁流动性
func (h *CampaignHandler) UnlockLiquidity(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.campaignLogic.Unlock(c.Request.Context(), caller(c), id); err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "流动性已解锁", nil)
}

// SetWhitelist 批量设置白名单
func (h *CampaignHandler) SetWhitelist(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req struct {
		Addresses []string `json:"addresses" binding:"required"`
		Allowed   bool     `json:"allowed"`
	}
	if !bindJSON(c, &req) {
		return
	}

	if err := h.campaignLogic.SetWhitelist(caller(c), id, req.Addresses, req.Allowed); err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "白名单已更新", gin.H{"count": len(req.Addresses)})
}

// SetWhitelistEnabled 开关白名单
func (h *CampaignHandler) SetWhitelistEnabled(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if !bindJSON(c, &req) {
		return
	}

	if err := h.campaignLogic.SetWhitelistEnabled(caller(c), id, req.Enabled); err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "白名单开关已更新", gin.H{"enabled": req.Enabled})
}

// SetLPAddress 修正 LP 地址
func (h *CampaignHandler) SetLPAddress(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req struct {
		LPAddress string `json:"lpAddress" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	if err := h.campaignLogic.SetLPAddress(caller(c), id, req.LPAddress); err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "LP 地址已更新", nil)
}
