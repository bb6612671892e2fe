package handler

import (
	"net/http"

	"github.com/blues/launchpad/internal/logic"
	"github.com/gin-gonic/gin"
)

// ContributeRecordHandler 认购记录处理器
type ContributeRecordHandler struct {
	contributeLogic *logic.ContributeRecordLogic
}

// NewContributeRecordHandler 创建认购记录处理器
func NewContributeRecordHandler(contributeLogic *logic.ContributeRecordLogic) *ContributeRecordHandler {
	return &ContributeRecordHandler{contributeLogic: contributeLogic}
}

// GetCampaignContributeRecords 获取募资认购记录
func (h *ContributeRecordHandler) GetCampaignContributeRecords(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	page, pageSize := pageQuery(c)

	records, total, err := h.contributeLogic.GetCampaignContributeRecords(id, c.Query("address"), page, pageSize)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取认购记录成功", GetCampaignContributeRecordsResponse{
		Records:    ToContributeRecordResponseList(records),
		Pagination: newPagination(page, pageSize, total),
	})
}
