package dex

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/blues/launchpad/internal/asset"
	"github.com/blues/launchpad/internal/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	pairInitCodeHash = crypto.Keccak256Hash([]byte("launchpad/dex/pair"))
	deadAddress      = common.HexToAddress("0x000000000000000000000000000000000000dEaD")
)

// pool 恒定乘积交易对
type pool struct {
	*asset.Ledger
	token0   common.Address
	token1   common.Address
	reserve0 *big.Int
	reserve1 *big.Int
}

func (p *pool) Token0() common.Address { return p.token0 }
func (p *pool) Token1() common.Address { return p.token1 }

func (p *pool) Reserves() (*big.Int, *big.Int) {
	return new(big.Int).Set(p.reserve0), new(big.Int).Set(p.reserve1)
}

// Exchange 内存中的 AMM 工厂与路由
type Exchange struct {
	mu      sync.Mutex
	address common.Address
	now     func() time.Time
	pairs   map[common.Address]*pool
}

// NewExchange 创建交易所
func NewExchange(address common.Address, now func() time.Time) *Exchange {
	if now == nil {
		now = time.Now
	}
	return &Exchange{
		address: address,
		now:     now,
		pairs:   make(map[common.Address]*pool),
	}
}

func (e *Exchange) Address() common.Address { return e.address }

// PairAddress 计算交易对的确定性地址
func (e *Exchange) PairAddress(tokenA, tokenB common.Address) common.Address {
	t0, t1 := SortTokens(tokenA, tokenB)
	salt := crypto.Keccak256Hash(t0.Bytes(), t1.Bytes())
	return crypto.CreateAddress2(e.address, salt, pairInitCodeHash.Bytes())
}

func (e *Exchange) GetPair(tokenA, tokenB common.Address) (Pair, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.pairs[e.PairAddress(tokenA, tokenB)]
	if !ok {
		return nil, false
	}
	return p, true
}

// CreatePair 创建交易对
func (e *Exchange) CreatePair(tokenA, tokenB common.Address) (Pair, error) {
	if tokenA == tokenB {
		return nil, ErrIdenticalAddresses
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pairLocked(tokenA, tokenB), nil
}

func (e *Exchange) pairLocked(tokenA, tokenB common.Address) *pool {
	addr := e.PairAddress(tokenA, tokenB)
	if p, ok := e.pairs[addr]; ok {
		return p
	}
	t0, t1 := SortTokens(tokenA, tokenB)
	p := &pool{
		Ledger:   asset.NewLedger(addr, "DEX-LP", 18),
		token0:   t0,
		token1:   t1,
		reserve0: new(big.Int),
		reserve1: new(big.Int),
	}
	e.pairs[addr] = p
	logger.Debug("Created pair %s for %s/%s", addr.Hex(), t0.Hex(), t1.Hex())
	return p
}

func (e *Exchange) AddLiquidity(
	ctx context.Context,
	sender common.Address,
	tokenA, tokenB asset.Token,
	amountADesired, amountBDesired, amountAMin, amountBMin *big.Int,
	to common.Address,
	deadline int64,
) (*big.Int, *big.Int, *big.Int, error) {
	if e.now().Unix() > deadline {
		return nil, nil, nil, ErrExpired
	}
	if tokenA.Address() == tokenB.Address() {
		return nil, nil, nil, ErrIdenticalAddresses
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.pairLocked(tokenA.Address(), tokenB.Address())
	reserveA, reserveB := p.reserve0, p.reserve1
	if p.token0 != tokenA.Address() {
		reserveA, reserveB = reserveB, reserveA
	}

	amountA, amountB := amountADesired, amountBDesired
	if reserveA.Sign() != 0 || reserveB.Sign() != 0 {
		if optimalB := Quote(amountADesired, reserveA, reserveB); optimalB.Cmp(amountBDesired) <= 0 {
			if optimalB.Cmp(amountBMin) < 0 {
				return nil, nil, nil, ErrInsufficientBAmount
			}
			amountB = optimalB
		} else {
			optimalA := Quote(amountBDesired, reserveB, reserveA)
			if optimalA.Cmp(amountAMin) < 0 {
				return nil, nil, nil, ErrInsufficientAAmount
			}
			amountA = optimalA
		}
	}

	if err := tokenA.TransferFrom(ctx, e.address, sender, p.Address(), amountA); err != nil {
		return nil, nil, nil, err
	}
	if err := tokenB.TransferFrom(ctx, e.address, sender, p.Address(), amountB); err != nil {
		return nil, nil, nil, err
	}

	token0, token1 := tokenA, tokenB
	if p.token0 != tokenA.Address() {
		token0, token1 = tokenB, tokenA
	}
	liquidity, err := p.mint(token0, token1, to)
	if err != nil {
		return nil, nil, nil, err
	}
	return amountA, amountB, liquidity, nil
}

// mint 按实际到账数量铸造 LP
func (p *pool) mint(token0, token1 asset.Token, to common.Address) (*big.Int, error) {
	balance0 := token0.BalanceOf(p.Address())
	balance1 := token1.BalanceOf(p.Address())
	amount0 := new(big.Int).Sub(balance0, p.reserve0)
	amount1 := new(big.Int).Sub(balance1, p.reserve1)

	supply := p.TotalSupply()
	var liquidity *big.Int
	if supply.Sign() == 0 {
		liquidity = new(big.Int).Mul(amount0, amount1)
		liquidity.Sqrt(liquidity).Sub(liquidity, MinimumLiquidity)
		if liquidity.Sign() <= 0 {
			return nil, ErrInsufficientLiquidityMinted
		}
		if err := p.Mint(deadAddress, MinimumLiquidity); err != nil {
			return nil, err
		}
	} else {
		l0 := new(big.Int).Mul(amount0, supply)
		l0.Quo(l0, p.reserve0)
		l1 := new(big.Int).Mul(amount1, supply)
		l1.Quo(l1, p.reserve1)
		liquidity = l0
		if l1.Cmp(l0) < 0 {
			liquidity = l1
		}
		if liquidity.Sign() <= 0 {
			return nil, ErrInsufficientLiquidityMinted
		}
	}
	if err := p.Mint(to, liquidity); err != nil {
		return nil, err
	}
	p.reserve0, p.reserve1 = balance0, balance1
	return liquidity, nil
}
