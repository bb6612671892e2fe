package handler

import (
	"net/http"

	"github.com/blues/launchpad/internal/logic"
	"github.com/gin-gonic/gin"
)

// RefundRecordHandler 退款记录处理器
type RefundRecordHandler struct {
	refundLogic *logic.RefundRecordLogic
}

// NewRefundRecordHandler 创建退款记录处理器
func NewRefundRecordHandler(refundLogic *logic.RefundRecordLogic) *RefundRecordHandler {
	return &RefundRecordHandler{refundLogic: refundLogic}
}

// GetCampaignRefunds 获取募资退款记录
func (h *RefundRecordHandler) GetCampaignRefunds(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	page, pageSize := pageQuery(c)

	records, total, err := h.refundLogic.GetCampaignRefundRecords(id, page, pageSize)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取退款记录成功", GetCampaignRefundsResponse{
		Refunds:    ToRefundRecordResponseList(records),
		Pagination: newPagination(page, pageSize, total),
	})
}
