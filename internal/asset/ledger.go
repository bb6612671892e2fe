package asset

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Ledger 内存账本实现的代币，可配置转账税（万分比，直接销毁）
type Ledger struct {
	mu         sync.RWMutex
	address    common.Address
	symbol     string
	decimals   uint8
	taxBP      uint64
	supply     *big.Int
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
	exempt     map[common.Address]bool
}

// NewLedger 创建代币账本
func NewLedger(address common.Address, symbol string, decimals uint8) *Ledger {
	return &Ledger{
		address:    address,
		symbol:     symbol,
		decimals:   decimals,
		supply:     new(big.Int),
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
		exempt:     make(map[common.Address]bool),
	}
}

// WithTransferTax 设置转账税
func (l *Ledger) WithTransferTax(bp uint64) *Ledger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.taxBP = bp
	return l
}

// ExemptFromTax 指定账户作为发送方时免税
func (l *Ledger) ExemptFromTax(account common.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.exempt[account] = true
}

func (l *Ledger) Address() common.Address { return l.address }
func (l *Ledger) Symbol() string          { return l.symbol }
func (l *Ledger) Decimals() uint8         { return l.decimals }

// TotalSupply 总供应量
func (l *Ledger) TotalSupply() *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return new(big.Int).Set(l.supply)
}

func (l *Ledger) BalanceOf(owner common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balanceLocked(owner)
}

func (l *Ledger) Allowance(owner, spender common.Address) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if a, ok := l.allowances[owner][spender]; ok {
		return new(big.Int).Set(a)
	}
	return new(big.Int)
}

// Mint 增发
func (l *Ledger) Mint(to common.Address, amount *big.Int) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(to, amount)
	l.supply.Add(l.supply, amount)
	return nil
}

// Burn 销毁
func (l *Ledger) Burn(from common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balanceLocked(from).Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	l.debit(from, amount)
	l.supply.Sub(l.supply, amount)
	return nil
}

func (l *Ledger) Transfer(_ context.Context, from, to common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(from, to, amount)
}

func (l *Ledger) TransferFrom(_ context.Context, spender, from, to common.Address, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	allowed := l.allowances[from][spender]
	if allowed == nil || allowed.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := l.move(from, to, amount); err != nil {
		return err
	}
	allowed.Sub(allowed, amount)
	return nil
}

func (l *Ledger) Approve(_ context.Context, owner, spender common.Address, amount *big.Int) error {
	if spender == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.allowances[owner] == nil {
		l.allowances[owner] = make(map[common.Address]*big.Int)
	}
	l.allowances[owner][spender] = new(big.Int).Set(amount)
	return nil
}

func (l *Ledger) move(from, to common.Address, amount *big.Int) error {
	if to == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	if l.balanceLocked(from).Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	received := new(big.Int).Set(amount)
	if l.taxBP > 0 && !l.exempt[from] {
		tax := new(big.Int).Mul(amount, new(big.Int).SetUint64(l.taxBP))
		tax.Quo(tax, big.NewInt(10000))
		received.Sub(received, tax)
		l.supply.Sub(l.supply, tax)
	}
	l.debit(from, amount)
	l.credit(to, received)
	return nil
}

func (l *Ledger) balanceLocked(owner common.Address) *big.Int {
	if b, ok := l.balances[owner]; ok {
		return new(big.Int).Set(b)
	}
	return new(big.Int)
}

func (l *Ledger) credit(owner common.Address, amount *big.Int) {
	b, ok := l.balances[owner]
	if !ok {
		b = new(big.Int)
		l.balances[owner] = b
	}
	b.Add(b, amount)
}

func (l *Ledger) debit(owner common.Address, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	l.balances[owner].Sub(l.balances[owner], amount)
}
