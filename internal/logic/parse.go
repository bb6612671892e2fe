package logic

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/blues/launchpad/internal/errcode"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount   = errcode.New(errcode.KindValidation, "INVALID_AMOUNT")
	ErrInvalidAddress  = errcode.New(errcode.KindValidation, "INVALID_ADDRESS")
	ErrRecordNotFound  = errcode.New(errcode.KindNotFound, "RECORD_NOT_FOUND")
	ErrInvalidDecimals = errcode.New(errcode.KindValidation, "INVALID_DECIMALS")
)

// ParseAmount 解析最小单位的十进制整数
func ParseAmount(field, v string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(strings.TrimSpace(v), 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("%s: %w", field, ErrInvalidAmount)
	}
	return n, nil
}

// ParseAddress 解析十六进制地址
func ParseAddress(field, v string) (common.Address, error) {
	if !common.IsHexAddress(v) {
		return common.Address{}, fmt.Errorf("%s: %w", field, ErrInvalidAddress)
	}
	return common.HexToAddress(v), nil
}

// FormatUnits 按精度将最小单位转为可读数量，无法解析时原样返回
func FormatUnits(v string, decimals uint8) string {
	n, ok := new(big.Int).SetString(v, 10)
	if !ok {
		return v
	}
	return decimal.NewFromBigInt(n, -int32(decimals)).String()
}

// Percent 计算 part/total 百分比，保留两位小数
func Percent(part, total string) string {
	p, err := decimal.NewFromString(part)
	if err != nil {
		return "0.00"
	}
	t, err := decimal.NewFromString(total)
	if err != nil || t.IsZero() {
		return "0.00"
	}
	return p.Div(t).Mul(decimal.NewFromInt(100)).StringFixed(2)
}

// normalizePage 规范分页参数
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return page, pageSize
}
