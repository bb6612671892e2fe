package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/launchpad/internal/errcode"
	"github.com/blues/launchpad/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// AccountHeader 调用方身份
const AccountHeader = "X-Account"

const accountKey = "account"

var (
	ErrMissingAccount = errcode.New(errcode.KindAuth, "MISSING_ACCOUNT")
	ErrInvalidID      = errcode.New(errcode.KindValidation, "INVALID_ID")
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// HandleError 按错误分类返回状态码，data 中带上错误码
func HandleError(c *gin.Context, err error) {
	status := errcode.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	var data interface{}
	if code := errcode.Code(err); code != "" {
		data = gin.H{"code": code}
	}
	c.AbortWithStatusJSON(status, Response{
		Success: false,
		Message: err.Error(),
		Data:    data,
	})
}

// RequireAccount 校验 X-Account 请求头并写入上下文
func RequireAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		account := c.GetHeader(AccountHeader)
		if !common.IsHexAddress(account) {
			HandleError(c, ErrMissingAccount)
			return
		}
		c.Set(accountKey, common.HexToAddress(account))
		c.Next()
	}
}

// caller 当前请求的调用方
func caller(c *gin.Context) common.Address {
	if v, ok := c.Get(accountKey); ok {
		if addr, ok := v.(common.Address); ok {
			return addr
		}
	}
	return common.HexToAddress(c.GetHeader(AccountHeader))
}

// paramID 解析路径中的编号
func paramID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		HandleError(c, ErrInvalidID)
		return 0, false
	}
	return id, true
}

// pageQuery 解析分页参数
func pageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return page, pageSize
}

func newPagination(page, pageSize int, total int64) Pagination {
	return Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
}

// bindJSON 绑定请求体，失败时按参数错误返回
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
