package errcode

import (
	"errors"
	"net/http"
)

// Kind 错误分类
type Kind int

const (
	KindValidation Kind = iota // 参数校验失败
	KindState                  // 生命周期状态不满足
	KindAuth                   // 无权限
	KindResource               // 余额/授权/库存不足
	KindNotFound               // 对象不存在
)

// Error 带稳定错误码的错误
type Error struct {
	Kind Kind
	Code string
}

func (e *Error) Error() string {
	return e.Code
}

// New 创建错误码
func New(kind Kind, code string) *Error {
	return &Error{Kind: kind, Code: code}
}

// Code 返回错误链上第一个错误码，没有则返回空串
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HTTPStatus 将错误分类映射为 HTTP 状态码
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindState:
		return http.StatusConflict
	case KindResource:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
