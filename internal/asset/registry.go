package asset

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Registry 按地址查找代币
type Registry struct {
	mu     sync.RWMutex
	tokens map[common.Address]Token
}

func NewRegistry(tokens ...Token) *Registry {
	r := &Registry{tokens: make(map[common.Address]Token)}
	for _, t := range tokens {
		r.Register(t)
	}
	return r
}

func (r *Registry) Register(t Token) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[t.Address()] = t
}

func (r *Registry) Get(addr common.Address) (Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tokens[addr]
	if !ok {
		return nil, ErrUnknownToken
	}
	return t, nil
}

// Ledger 返回内存账本实现的代币，仅沙盒环境使用
func (r *Registry) Ledger(addr common.Address) (*Ledger, error) {
	t, err := r.Get(addr)
	if err != nil {
		return nil, err
	}
	l, ok := t.(*Ledger)
	if !ok {
		return nil, ErrUnknownToken
	}
	return l, nil
}
