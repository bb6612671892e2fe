package handler

import (
	"net/http"

	"github.com/blues/launchpad/internal/logic"
	"github.com/gin-gonic/gin"
)

// TokenHandler 沙盒代币处理器
type TokenHandler struct {
	tokenLogic *logic.TokenLogic
}

// NewTokenHandler 创建沙盒代币处理器
func NewTokenHandler(tokenLogic *logic.TokenLogic) *TokenHandler {
	return &TokenHandler{tokenLogic: tokenLogic}
}

// Deploy 部署测试代币
func (h *TokenHandler) Deploy(c *gin.Context) {
	var req logic.DeployInput
	if !bindJSON(c, &req) {
		return
	}

	addr, err := h.tokenLogic.Deploy(caller(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "代币部署成功", gin.H{"address": addr.Hex()})
}

// Approve 授权
func (h *TokenHandler) Approve(c *gin.Context) {
	var req struct {
		Spender string `json:"spender" binding:"required"`
		Amount  string `json:"amount" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	if err := h.tokenLogic.Approve(c.Request.Context(), caller(c), c.Param("address"), req.Spender, req.Amount); err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "授权成功", nil)
}

// Mint 铸造
func (h *TokenHandler) Mint(c *gin.Context) {
	var req struct {
		To     string `json:"to" binding:"required"`
		Amount string `json:"amount" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	if err := h.tokenLogic.Mint(c.Param("address"), req.To, req.Amount); err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "铸造成功", nil)
}

// Balance 查询余额
func (h *TokenHandler) Balance(c *gin.Context) {
	token, balance, err := h.tokenLogic.Balance(c.Param("address"), c.Param("owner"))
	if err != nil {
		HandleError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "查询成功", gin.H{
		"symbol":   token.Symbol(),
		"decimals": token.Decimals(),
		"balance":  balance.String(),
		"display":  logic.FormatUnits(balance.String(), token.Decimals()),
	})
}
