package handler

import (
	"net/http"

	"github.com/blues/launchpad/internal/logic"
	"github.com/gin-gonic/gin"
)

// RefundHandler 退款处理器
type RefundHandler struct {
	campaignLogic *logic.CampaignLogic
}

// NewRefundHandler 创建退款处理器
func NewRefundHandler(campaignLogic *logic.CampaignLogic) *RefundHandler {
	return &RefundHandler{campaignLogic: campaignLogic}
}

// WithdrawFunds 募资失败后取回资金，发起人取回托管代币
func (h *RefundHandler) WithdrawFunds(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	amount, err := h.campaignLogic.WithdrawFunds(c.Request.Context(), caller(c), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "资金取回成功", gin.H{"amount": amount.String()})
}
