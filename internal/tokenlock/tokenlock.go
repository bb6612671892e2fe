package tokenlock

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/blues/launchpad/internal/asset"
	"github.com/blues/launchpad/internal/errcode"
	"github.com/blues/launchpad/internal/event"
	"github.com/blues/launchpad/internal/fee"
	"github.com/blues/launchpad/internal/logger"
	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrAmountZero            = errcode.New(errcode.KindValidation, "AMOUNT_ZERO")
	ErrFeeNotPayed           = errcode.New(errcode.KindResource, "FEE_NOT_PAYED")
	ErrNoReleases            = errcode.New(errcode.KindValidation, "NO_RELEASES")
	ErrInvalidDuration       = errcode.New(errcode.KindValidation, "INVALID_DURATION")
	ErrAmountTooHighOrLocked = errcode.New(errcode.KindState, "AMOUNT_TO_HIGH_OR_LOCKED")
	ErrLockDoesNotExist      = errcode.New(errcode.KindNotFound, "LOCK_DOES_NOT_EXIST")
	ErrUnauthorized          = errcode.New(errcode.KindAuth, "UNAUTHORIZED")
	ErrInvalidAddress        = errcode.New(errcode.KindValidation, "INVALID_ADDRESS")
	ErrNothingReceived       = errcode.New(errcode.KindResource, "NOTHING_RECEIVED")
	ErrStableCoinNotSet      = errcode.New(errcode.KindValidation, "STABLE_COIN_NOT_SET")
	ErrInvalidStartTime      = errcode.New(errcode.KindValidation, "INVALID_START_TIME")
	ErrReentrantCall         = errcode.New(errcode.KindState, "REENTRANT_CALL")
)

// Lock 锁仓记录视图
type Lock struct {
	ID        uint64         `json:"id"`
	Owner     common.Address `json:"owner"`
	Token     common.Address `json:"token"`
	Amount    *big.Int       `json:"amount"`
	StartTime int64          `json:"startTime"`
	Duration  int64          `json:"duration"`
	Releases  uint64         `json:"releases"`
	Released  *big.Int       `json:"released"`
}

type record struct {
	owner     common.Address
	token     asset.Token
	amount    *big.Int
	startTime int64
	duration  int64
	releases  uint64
	released  *big.Int
}

func (r *record) view(id uint64) Lock {
	return Lock{
		ID:        id,
		Owner:     r.owner,
		Token:     r.token.Address(),
		Amount:    new(big.Int).Set(r.amount),
		StartTime: r.startTime,
		Duration:  r.duration,
		Releases:  r.releases,
		Released:  new(big.Int).Set(r.released),
	}
}

// Settings 锁仓工厂初始化配置
type Settings struct {
	Address       common.Address
	Admin         common.Address
	StableCoin    asset.Token
	FeeAggregator fee.Aggregator
	Fee           *big.Int // 每次锁仓的固定手续费，以稳定币支付
	Publisher     event.Publisher
	Now           func() time.Time
}

// Factory 通用锁仓账本，与募资无关。托管余额变动期间 busy 为真，此时的锁仓与提取返回 ErrReentrantCall。
type Factory struct {
	mu   sync.RWMutex
	busy bool

	address    common.Address
	admin      common.Address
	stableCoin asset.Token
	aggregator fee.Aggregator
	fee        *big.Int

	locks   []*record
	byOwner map[common.Address][]uint64
	pos     map[uint64]int // 锁仓在所有者索引中的位置

	publisher event.Publisher
	now       func() time.Time
}

// New 创建锁仓工厂
func New(s Settings) *Factory {
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.Publisher == nil {
		s.Publisher = event.Nop{}
	}
	lockFee := new(big.Int)
	if s.Fee != nil {
		lockFee.Set(s.Fee)
	}
	return &Factory{
		address:    s.Address,
		admin:      s.Admin,
		stableCoin: s.StableCoin,
		aggregator: s.FeeAggregator,
		fee:        lockFee,
		byOwner:    make(map[common.Address][]uint64),
		pos:        make(map[uint64]int),
		publisher:  s.Publisher,
		now:        s.Now,
	}
}

// Address 锁仓工厂地址，托管的代币记在此地址下
func (f *Factory) Address() common.Address { return f.address }

// LockRequest 创建锁仓参数
type LockRequest struct {
	Token     asset.Token
	Amount    *big.Int
	StartTime int64
	Duration  int64
	Releases  uint64
	Payment   *big.Int // 调用方支付的手续费
}

// Lock 支付手续费并托管代币，返回锁仓编号
func (f *Factory) Lock(ctx context.Context, caller common.Address, req LockRequest) (uint64, error) {
	id, ev, err := f.lock(ctx, caller, req)
	if err != nil {
		logger.Debug("Token lock by %s rejected: %v", caller.Hex(), err)
		return 0, err
	}
	f.publisher.Publish(ctx, ev)
	return id, nil
}

func (f *Factory) lock(ctx context.Context, caller common.Address, req LockRequest) (uint64, event.Event, error) {
	if err := f.enter(); err != nil {
		return 0, nil, err
	}
	defer f.leave()

	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return 0, nil, ErrAmountZero
	}
	if req.Payment == nil || req.Payment.Cmp(f.fee) < 0 {
		return 0, nil, ErrFeeNotPayed
	}
	if req.Releases == 0 {
		return 0, nil, ErrNoReleases
	}
	if req.StartTime < 0 {
		return 0, nil, ErrInvalidStartTime
	}
	if req.Duration < 0 {
		return 0, nil, ErrInvalidDuration
	}
	if req.Token == nil {
		return 0, nil, asset.ErrUnknownToken
	}
	coin, agg := f.stableCoin, f.aggregator

	var received *big.Int
	err := f.call(func() error {
		before := req.Token.BalanceOf(f.address)
		if err := req.Token.TransferFrom(ctx, f.address, caller, f.address, req.Amount); err != nil {
			return err
		}
		received = new(big.Int).Sub(req.Token.BalanceOf(f.address), before)
		if received.Sign() <= 0 {
			return ErrNothingReceived
		}
		if req.Payment.Sign() == 0 {
			return nil
		}
		if err := payFee(ctx, coin, agg, caller, req.Payment); err != nil {
			if rerr := req.Token.Transfer(ctx, f.address, caller, received); rerr != nil {
				logger.Error("Return escrow to %s failed: %v", caller.Hex(), rerr)
			}
			return fmt.Errorf("pay lock fee: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}

	id := uint64(len(f.locks))
	f.locks = append(f.locks, &record{
		owner:     caller,
		token:     req.Token,
		amount:    received,
		startTime: req.StartTime,
		duration:  req.Duration,
		releases:  req.Releases,
		released:  new(big.Int),
	})
	f.index(caller, id)
	logger.Info("Lock %d created: %s of %s for %s", id, received, req.Token.Address().Hex(), caller.Hex())
	return id, event.TokenLocked{
		Factory: f.address,
		LockID:  id,
		Token:   req.Token.Address(),
		Owner:   caller,
		Amount:  new(big.Int).Set(received),
	}, nil
}

// enter 获取写锁并标记托管余额即将变动
func (f *Factory) enter() error {
	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return ErrReentrantCall
	}
	f.busy = true
	return nil
}

func (f *Factory) leave() {
	f.busy = false
	f.mu.Unlock()
}

// call 释放写锁执行代币调用
func (f *Factory) call(fn func() error) error {
	f.mu.Unlock()
	defer f.mu.Lock()
	return fn()
}

func payFee(ctx context.Context, coin asset.Token, agg fee.Aggregator, caller common.Address, payment *big.Int) error {
	if coin == nil || agg == nil {
		return ErrStableCoinNotSet
	}
	if err := coin.Transfer(ctx, caller, agg.Address(), payment); err != nil {
		return err
	}
	return agg.AddTokenFee(ctx, coin.Address(), payment)
}

func (f *Factory) index(owner common.Address, id uint64) {
	f.pos[id] = len(f.byOwner[owner])
	f.byOwner[owner] = append(f.byOwner[owner], id)
}

// unindex 以末尾元素填补空位
func (f *Factory) unindex(owner common.Address, id uint64) {
	ids := f.byOwner[owner]
	i, last := f.pos[id], len(ids)-1
	ids[i] = ids[last]
	f.pos[ids[i]] = i
	ids = ids[:last]
	if len(ids) == 0 {
		delete(f.byOwner, owner)
	} else {
		f.byOwner[owner] = ids
	}
	delete(f.pos, id)
}

func (f *Factory) get(id uint64) (*record, error) {
	if id >= uint64(len(f.locks)) {
		return nil, ErrLockDoesNotExist
	}
	return f.locks[id], nil
}

// unlocked 按整档释放：interval = duration/releases
func unlocked(r *record, now int64) *big.Int {
	if now < r.startTime {
		return new(big.Int)
	}
	if now-r.startTime >= r.duration {
		return new(big.Int).Set(r.amount)
	}
	interval := r.duration / int64(r.releases)
	if interval == 0 {
		return new(big.Int)
	}
	tranches := uint64((now - r.startTime) / interval)
	if tranches > r.releases {
		tranches = r.releases
	}
	out := new(big.Int).Mul(r.amount, new(big.Int).SetUint64(tranches))
	return out.Quo(out, new(big.Int).SetUint64(r.releases))
}

func available(r *record, now int64) *big.Int {
	out := unlocked(r, now)
	return out.Sub(out, r.released)
}

// UnlockedAmount 截至当前已解锁的总量
func (f *Factory) UnlockedAmount(id uint64) (*big.Int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	r, err := f.get(id)
	if err != nil {
		return nil, err
	}
	return unlocked(r, f.now().Unix()), nil
}

// AmountToUnlock 当前可提取数量
func (f *Factory) AmountToUnlock(id uint64) (*big.Int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	r, err := f.get(id)
	if err != nil {
		return nil, err
	}
	return available(r, f.now().Unix()), nil
}

// Unlock 所有者提取指定数量
func (f *Factory) Unlock(ctx context.Context, caller common.Address, id uint64, amount *big.Int) error {
	ev, err := f.unlock(ctx, caller, id, amount, false)
	if err != nil {
		logger.Debug("Unlock of lock %d rejected: %v", id, err)
		return err
	}
	f.publisher.Publish(ctx, *ev)
	return nil
}

// UnlockAvailable 所有者提取全部可提取数量，没有可提取时返回 0
func (f *Factory) UnlockAvailable(ctx context.Context, caller common.Address, id uint64) (*big.Int, error) {
	ev, err := f.unlock(ctx, caller, id, nil, true)
	if err != nil {
		logger.Debug("Unlock of lock %d rejected: %v", id, err)
		return nil, err
	}
	if ev == nil {
		return new(big.Int), nil
	}
	f.publisher.Publish(ctx, *ev)
	return new(big.Int).Set(ev.Amount), nil
}

func (f *Factory) unlock(ctx context.Context, caller common.Address, id uint64, amount *big.Int, all bool) (*event.TokenUnlocked, error) {
	if err := f.enter(); err != nil {
		return nil, err
	}
	defer f.leave()

	r, err := f.get(id)
	if err != nil {
		return nil, err
	}
	if caller != r.owner {
		return nil, ErrUnauthorized
	}
	avail := available(r, f.now().Unix())
	if all {
		if avail.Sign() == 0 {
			return nil, nil
		}
		amount = avail
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrAmountZero
	}
	if amount.Cmp(avail) > 0 {
		return nil, ErrAmountTooHighOrLocked
	}

	r.released = new(big.Int).Add(r.released, amount)
	if err := f.call(func() error {
		return r.token.Transfer(ctx, f.address, caller, amount)
	}); err != nil {
		r.released = new(big.Int).Sub(r.released, amount)
		return nil, err
	}
	logger.Info("Lock %d released %s to %s", id, amount, caller.Hex())
	return &event.TokenUnlocked{
		Factory: f.address,
		LockID:  id,
		Token:   r.token.Address(),
		Amount:  new(big.Int).Set(amount),
	}, nil
}

// ChangeOwner 转移锁仓所有权并同步所有者索引
func (f *Factory) ChangeOwner(ctx context.Context, caller common.Address, id uint64, newOwner common.Address) error {
	f.mu.Lock()
	r, err := f.get(id)
	if err == nil && caller != r.owner {
		err = ErrUnauthorized
	}
	if err == nil && newOwner == (common.Address{}) {
		err = ErrInvalidAddress
	}
	if err != nil {
		f.mu.Unlock()
		logger.Debug("Change owner of lock %d rejected: %v", id, err)
		return err
	}
	old := r.owner
	if old != newOwner {
		f.unindex(old, id)
		r.owner = newOwner
		f.index(newOwner, id)
	}
	f.mu.Unlock()

	logger.Info("Lock %d owner changed %s -> %s", id, old.Hex(), newOwner.Hex())
	f.publisher.Publish(ctx, event.OwnerChanged{Factory: f.address, LockID: id, OldOwner: old, NewOwner: newOwner})
	return nil
}

// GetLock 锁仓详情
func (f *Factory) GetLock(id uint64) (Lock, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	r, err := f.get(id)
	if err != nil {
		return Lock{}, err
	}
	return r.view(id), nil
}

// GetUserLocks 所有者持有的锁仓编号，顺序不保证
func (f *Factory) GetUserLocks(owner common.Address) []uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	ids := f.byOwner[owner]
	out := make([]uint64, len(ids))
	copy(out, ids)
	return out
}

// LockCount 锁仓数量
func (f *Factory) LockCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.locks)
}

func (f *Factory) adminOnly(caller common.Address) error {
	if caller != f.admin {
		return ErrUnauthorized
	}
	return nil
}

func (f *Factory) SetFeeAggregator(caller common.Address, agg fee.Aggregator) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.adminOnly(caller); err != nil {
		return err
	}
	f.aggregator = agg
	return nil
}

func (f *Factory) SetStableCoin(caller common.Address, token asset.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.adminOnly(caller); err != nil {
		return err
	}
	f.stableCoin = token
	return nil
}

func (f *Factory) SetStableCoinFee(caller common.Address, amount *big.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.adminOnly(caller); err != nil {
		return err
	}
	if amount == nil || amount.Sign() < 0 {
		return ErrAmountZero
	}
	f.fee = new(big.Int).Set(amount)
	logger.Info("Lock fee set to %s", amount)
	return nil
}

func (f *Factory) FeeAggregator() fee.Aggregator {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.aggregator
}

func (f *Factory) StableCoin() asset.Token {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.stableCoin
}

func (f *Factory) StableCoinFee() *big.Int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return new(big.Int).Set(f.fee)
}
