package dex

import (
	"context"
	"math/big"

	"github.com/blues/launchpad/internal/asset"
	"github.com/blues/launchpad/internal/errcode"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrExpired                     = errcode.New(errcode.KindState, "DEXRouter: EXPIRED")
	ErrIdenticalAddresses          = errcode.New(errcode.KindValidation, "DEXFactory: IDENTICAL_ADDRESSES")
	ErrInsufficientAAmount         = errcode.New(errcode.KindResource, "DEXRouter: INSUFFICIENT_A_AMOUNT")
	ErrInsufficientBAmount         = errcode.New(errcode.KindResource, "DEXRouter: INSUFFICIENT_B_AMOUNT")
	ErrInsufficientLiquidityMinted = errcode.New(errcode.KindResource, "DEXPair: INSUFFICIENT_LIQUIDITY_MINTED")
)

// MinimumLiquidity 首次注入时永久锁定的 LP 数量
var MinimumLiquidity = big.NewInt(1000)

// Pair 交易对，同时也是 LP 代币
type Pair interface {
	asset.Token
	Token0() common.Address
	Token1() common.Address
	Reserves() (reserve0, reserve1 *big.Int)
}

// Router AMM 路由
type Router interface {
	Address() common.Address
	GetPair(tokenA, tokenB common.Address) (Pair, bool)
	AddLiquidity(
		ctx context.Context,
		sender common.Address,
		tokenA, tokenB asset.Token,
		amountADesired, amountBDesired, amountAMin, amountBMin *big.Int,
		to common.Address,
		deadline int64,
	) (amountA, amountB, liquidity *big.Int, err error)
}

// SortTokens 按地址排序
func SortTokens(tokenA, tokenB common.Address) (common.Address, common.Address) {
	if tokenA.Cmp(tokenB) < 0 {
		return tokenA, tokenB
	}
	return tokenB, tokenA
}

// Quote 按储备比例换算
func Quote(amountA, reserveA, reserveB *big.Int) *big.Int {
	out := new(big.Int).Mul(amountA, reserveB)
	return out.Quo(out, reserveA)
}
