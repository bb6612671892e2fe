package fee

import (
	"context"
	"math/big"
	"sync"

	"github.com/blues/launchpad/internal/logger"
	"github.com/ethereum/go-ethereum/common"
)

// Aggregator 手续费归集方。调用方先转账，再调用 AddTokenFee 通知。
type Aggregator interface {
	Address() common.Address
	AddTokenFee(ctx context.Context, token common.Address, amount *big.Int) error
}

// Tally 内存中的手续费归集方，只统计通知过的金额
type Tally struct {
	mu      sync.RWMutex
	address common.Address
	totals  map[common.Address]*big.Int
}

func NewTally(address common.Address) *Tally {
	return &Tally{address: address, totals: make(map[common.Address]*big.Int)}
}

func (t *Tally) Address() common.Address { return t.address }

func (t *Tally) AddTokenFee(_ context.Context, token common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	total, ok := t.totals[token]
	if !ok {
		total = new(big.Int)
		t.totals[token] = total
	}
	total.Add(total, amount)
	logger.Debug("Fee aggregator received %s of token %s", amount.String(), token.Hex())
	return nil
}

// Collected 已归集的指定代币手续费
func (t *Tally) Collected(token common.Address) *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if total, ok := t.totals[token]; ok {
		return new(big.Int).Set(total)
	}
	return new(big.Int)
}
