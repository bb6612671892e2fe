package handler

import (
	"net/http"

	"github.com/blues/launchpad/internal/logic"
	"github.com/gin-gonic/gin"
)

// SettingsHandler 工厂设置处理器
type SettingsHandler struct {
	settingsLogic *logic.SettingsLogic
}

// NewSettingsHandler 创建设置处理器
func NewSettingsHandler(settingsLogic *logic.SettingsLogic) *SettingsHandler {
	return &SettingsHandler{settingsLogic: settingsLogic}
}

// GetSettings 获取当前设置
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	SuccessResponse(c, http.StatusOK, "获取设置成功", h.settingsLogic.GetSettings())
}

type feeRequest struct {
	Points uint64 `json:"points"`
}

// SetTokenFee 设置代币手续费
func (h *SettingsHandler) SetTokenFee(c *gin.Context) {
	var req feeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.settingsLogic.SetTokenFee(caller(c), req.Points); err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "代币手续费已更新", gin.H{"points": req.Points})
}

// SetBaseFee 设置基础货币手续费
func (h *SettingsHandler) SetBaseFee(c *gin.Context) {
	var req feeRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.settingsLogic.SetBaseFee(caller(c), req.Points); err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "基础货币手续费已更新", gin.H{"points": req.Points})
}

// SetLockFee 设置锁仓手续费
func (h *SettingsHandler) SetLockFee(c *gin.Context) {
	var req struct {
		Amount string `json:"amount" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := h.settingsLogic.SetLockFee(caller(c), req.Amount); err != nil {
		HandleError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "锁仓手续费已更新", gin.H{"amount": req.Amount})
}
