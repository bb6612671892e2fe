package event

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Event 引擎对外暴露的事件
type Event interface {
	// Name 与 ABI 中的事件名一致
	Name() string
	// Source 发出事件的合约地址
	Source() common.Address
}

// Publisher 事件发布者。引擎在释放内部锁之后才发布事件。
type Publisher interface {
	Publish(ctx context.Context, events ...Event)
}

// CampaignAdded 工厂创建募资
type CampaignAdded struct {
	Factory  common.Address
	Campaign common.Address
	Token    common.Address
	Creator  common.Address
}

// CampaignLocked 流动性已添加并锁定
type CampaignLocked struct {
	Factory      common.Address
	Campaign     common.Address
	Token        common.Address
	AmountLocked *big.Int
}

// CampaignUnlocked 流动性解锁
type CampaignUnlocked struct {
	Factory  common.Address
	Campaign common.Address
	Token    common.Address
}

// CampaignRefunded 目标池已有外部储备，募资转为退款
type CampaignRefunded struct {
	Campaign common.Address
}

// TokensBought 认购
type TokensBought struct {
	Campaign common.Address
	Buyer    common.Address
	Amount   *big.Int
}

// TokensWithdrawn 参与者领取代币
type TokensWithdrawn struct {
	Campaign    common.Address
	Participant common.Address
	Amount      *big.Int
}

// FundsWithdrawn 参与者取回资金
type FundsWithdrawn struct {
	Campaign    common.Address
	Participant common.Address
	Amount      *big.Int
}

// TokenLocked 创建锁仓
type TokenLocked struct {
	Factory common.Address
	LockID  uint64
	Token   common.Address
	Owner   common.Address
	Amount  *big.Int
}

// TokenUnlocked 锁仓释放
type TokenUnlocked struct {
	Factory common.Address
	LockID  uint64
	Token   common.Address
	Amount  *big.Int
}

// OwnerChanged 锁仓转移所有者
type OwnerChanged struct {
	Factory  common.Address
	LockID   uint64
	OldOwner common.Address
	NewOwner common.Address
}

func (CampaignAdded) Name() string    { return "CampaignAdded" }
func (CampaignLocked) Name() string   { return "CampaignLocked" }
func (CampaignUnlocked) Name() string { return "CampaignUnlocked" }
func (CampaignRefunded) Name() string { return "CampaignRefunded" }
func (TokensBought) Name() string     { return "TokensBought" }
func (TokensWithdrawn) Name() string  { return "TokensWithdrawn" }
func (FundsWithdrawn) Name() string   { return "FundsWithdrawn" }
func (TokenLocked) Name() string      { return "TokenLocked" }
func (TokenUnlocked) Name() string    { return "TokenUnlocked" }
func (OwnerChanged) Name() string     { return "OwnerChanged" }

func (e CampaignAdded) Source() common.Address    { return e.Factory }
func (e CampaignLocked) Source() common.Address   { return e.Factory }
func (e CampaignUnlocked) Source() common.Address { return e.Factory }
func (e CampaignRefunded) Source() common.Address { return e.Campaign }
func (e TokensBought) Source() common.Address     { return e.Campaign }
func (e TokensWithdrawn) Source() common.Address  { return e.Campaign }
func (e FundsWithdrawn) Source() common.Address   { return e.Campaign }
func (e TokenLocked) Source() common.Address      { return e.Factory }
func (e TokenUnlocked) Source() common.Address    { return e.Factory }
func (e OwnerChanged) Source() common.Address     { return e.Factory }

// Nop 丢弃所有事件
type Nop struct{}

func (Nop) Publish(context.Context, ...Event) {}

// Recorder 记录所有事件，测试使用
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, events ...Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

// Events 已记录事件的副本
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Names 已记录事件名
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, e := range r.events {
		names[i] = e.Name()
	}
	return names
}

// Reset 清空
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
