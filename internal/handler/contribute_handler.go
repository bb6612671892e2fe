package handler

import (
	"net/http"

	"github.com/blues/launchpad/internal/logic"
	"github.com/gin-gonic/gin"
)

// ContributeHandler 认购处理器
type ContributeHandler struct {
	campaignLogic *logic.CampaignLogic
}

// NewContributeHandler 创建认购处理器
func NewContributeHandler(campaignLogic *logic.CampaignLogic) *ContributeHandler {
	return &ContributeHandler{campaignLogic: campaignLogic}
}

// Buy 认购
func (h *ContributeHandler) Buy(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req struct {
		Amount string `json:"amount" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	if err := h.campaignLogic.Buy(c.Request.Context(), caller(c), id, req.Amount); err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "认购成功", gin.H{"amount": req.Amount})
}

// WithdrawTokens 领取认购的代币
func (h *ContributeHandler) WithdrawTokens(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	amount, err := h.campaignLogic.WithdrawTokens(c.Request.Context(), caller(c), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "代币领取成功", gin.H{"amount": amount.String()})
}
