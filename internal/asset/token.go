package asset

import (
	"context"
	"math/big"

	"github.com/blues/launchpad/internal/errcode"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientAllowance = errcode.New(errcode.KindResource, "ERC20: transfer amount exceeds allowance")
	ErrInsufficientBalance   = errcode.New(errcode.KindResource, "ERC20: transfer amount exceeds balance")
	ErrZeroAddress           = errcode.New(errcode.KindValidation, "ERC20: zero address")
	ErrNegativeAmount        = errcode.New(errcode.KindValidation, "ERC20: negative amount")
	ErrUnknownToken          = errcode.New(errcode.KindNotFound, "TOKEN_DOES_NOT_EXIST")
)

// Token 同质化代币。from/owner 参数代表调用方身份。
type Token interface {
	Address() common.Address
	Symbol() string
	Decimals() uint8
	BalanceOf(owner common.Address) *big.Int
	Allowance(owner, spender common.Address) *big.Int
	Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error
	TransferFrom(ctx context.Context, spender, from, to common.Address, amount *big.Int) error
	Approve(ctx context.Context, owner, spender common.Address, amount *big.Int) error
}

// Pow10 返回 10^n
func Pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// Units 将整数数量按精度放大
func Units(whole int64, decimals uint8) *big.Int {
	return new(big.Int).Mul(big.NewInt(whole), Pow10(decimals))
}
