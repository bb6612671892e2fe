package handler

import (
	"net/http"

	"github.com/blues/launchpad/internal/logic"
	"github.com/blues/launchpad/internal/model"
	"github.com/gin-gonic/gin"
)

// EventHandler 事件处理器
type EventHandler struct {
	eventLogic *logic.EventLogic
}

// NewEventHandler 创建事件处理器
func NewEventHandler(eventLogic *logic.EventLogic) *EventHandler {
	return &EventHandler{eventLogic: eventLogic}
}

// GetEvents 获取事件列表
func (h *EventHandler) GetEvents(c *gin.Context) {
	page, pageSize := pageQuery(c)

	events, total, err := h.eventLogic.GetEvents(c.Query("event_type"), c.Query("contract_address"), page, pageSize)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取事件列表成功", GetEventsResponse{
		Events:     ToEventResponseList(events),
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetEvent 按序号获取事件
func (h *EventHandler) GetEvent(c *gin.Context) {
	seq, ok := paramID(c)
	if !ok {
		return
	}

	ev, err := h.eventLogic.GetEvent(seq)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取事件成功", ToEventResponseList([]model.EventModel{*ev})[0])
}
