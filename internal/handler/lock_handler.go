package handler

import (
	"net/http"

	"github.com/blues/launchpad/internal/logic"
	"github.com/gin-gonic/gin"
)

// LockHandler 锁仓处理器
type LockHandler struct {
	lockLogic *logic.LockLogic
}

// NewLockHandler 创建锁仓处理器
func NewLockHandler(lockLogic *logic.LockLogic) *LockHandler {
	return &LockHandler{lockLogic: lockLogic}
}

// CreateLock 创建锁仓
func (h *LockHandler) CreateLock(c *gin.Context) {
	var req logic.LockInput
	if !bindJSON(c, &req) {
		return
	}

	id, err := h.lockLogic.CreateLock(c.Request.Context(), caller(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "锁仓创建成功", gin.H{"id": id})
}

// GetLock 获取锁仓详情
func (h *LockHandler) GetLock(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	view, err := h.lockLogic.GetLock(id)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取锁仓详情成功", gin.H{"lock": ToLockResponse(view)})
}

// GetUserLocks 获取用户锁仓
func (h *LockHandler) GetUserLocks(c *gin.Context) {
	owner, err := logic.ParseAddress("address", c.Param("address"))
	if err != nil {
		HandleError(c, err)
		return
	}

	rows, err := h.lockLogic.GetUserLocks(owner)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取用户锁仓成功", gin.H{"locks": ToLockResponseList(rows)})
}

// Unlock 提取指定数量
func (h *LockHandler) Unlock(c *gin.Context) {
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

	if err := h.lockLogic.Unlock(c.Request.Context(), caller(c), id, req.Amount); err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "解锁成功", gin.H{"amount": req.Amount})
}

// UnlockAvailable 提取全部可解锁数量
func (h *LockHandler) UnlockAvailable(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	amount, err := h.lockLogic.UnlockAvailable(c.Request.Context(), caller(c), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "解锁成功", gin.H{"amount": amount.String()})
}

// ChangeOwner 转移锁仓所有权
func (h *LockHandler) ChangeOwner(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req struct {
		Owner string `json:"owner" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	if err := h.lockLogic.ChangeOwner(c.Request.Context(), caller(c), id, req.Owner); err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "所有者已变更", gin.H{"owner": req.Owner})
}
