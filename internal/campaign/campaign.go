package campaign

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/blues/launchpad/internal/asset"
	"github.com/blues/launchpad/internal/event"
	"github.com/blues/launchpad/internal/fee"
	"github.com/blues/launchpad/internal/logger"
	"github.com/ethereum/go-ethereum/common"
)

// Campaign 单个募资实例。状态变更在 mu 内完成，外部调用前释放 mu 并由 entered 拒绝重入，
// 事件在操作结束后发布。
type Campaign struct {
	mu      sync.Mutex
	entered bool

	cfg       Config
	params    Params
	unit      *big.Int
	createdAt int64

	collected   *big.Int
	contributed map[common.Address]*big.Int
	owedTokens  *big.Int
	whitelist   map[common.Address]bool
	whitelistOn bool

	locked     bool
	unlocked   bool
	refunding  bool
	unlockDate int64
	lpAddress  common.Address
	lpToken    asset.Token
	settlement *Settlement
}

// Constructor 募资实现的构造函数，工厂可替换
type Constructor func(cfg Config, p Params) *Campaign

// New 创建募资实例，参数由工厂预先校验
func New(cfg Config, p Params) *Campaign {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Publisher == nil {
		cfg.Publisher = event.Nop{}
	}
	return &Campaign{
		cfg:         cfg,
		params:      p.Clone(),
		unit:        asset.Pow10(cfg.Base.Decimals()),
		createdAt:   cfg.Now().Unix(),
		collected:   new(big.Int),
		contributed: make(map[common.Address]*big.Int),
		owedTokens:  new(big.Int),
		whitelist:   make(map[common.Address]bool),
		whitelistOn: p.WhitelistEnabled,
	}
}

// Address 募资地址
func (c *Campaign) Address() common.Address { return c.cfg.Address }

// Owner 发起人
func (c *Campaign) Owner() common.Address { return c.cfg.Owner }

// Token 出售的代币
func (c *Campaign) Token() asset.Token { return c.cfg.Token }

// Base 募资使用的基础货币
func (c *Campaign) Base() asset.Token { return c.cfg.Base }

// Params 创建参数副本
func (c *Campaign) Params() Params { return c.params.Clone() }

// TokensFor 基础货币数量对应的出售代币数量
func (c *Campaign) TokensFor(amount *big.Int) *big.Int {
	return c.convert(amount, c.params.Rate)
}

func (c *Campaign) convert(amount, rate *big.Int) *big.Int {
	out := new(big.Int).Mul(amount, rate)
	return out.Quo(out, c.unit)
}

func (c *Campaign) now() int64 { return c.cfg.Now().Unix() }

// Collected 已募集的基础货币
func (c *Campaign) Collected() *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(big.Int).Set(c.collected)
}

// Contributed 地址累计认购
func (c *Campaign) Contributed(addr common.Address) *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.contributed[addr]; ok {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

// Participants 返回当前有余额的参与者地址
func (c *Campaign) Participants() []common.Address {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]common.Address, 0, len(c.contributed))
	for addr := range c.contributed {
		out = append(out, addr)
	}
	return out
}

// Whitelisted 地址是否在白名单
func (c *Campaign) Whitelisted(addr common.Address) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.whitelist[addr]
}

// Status 当前状态
func (c *Campaign) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked(c.now())
}

// IsLive 是否处于认购期
func (c *Campaign) IsLive() bool {
	return c.Status() == StatusLive
}

// IsFailed 结束时未达软顶且从未锁定
func (c *Campaign) IsFailed() bool {
	return c.Status() == StatusFailed
}

// Finalized 是否已达到硬顶
func (c *Campaign) Finalized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collected.Cmp(c.params.HardCap) >= 0
}

func (c *Campaign) statusLocked(now int64) Status {
	switch {
	case c.refunding:
		return StatusRefunding
	case c.unlocked:
		return StatusUnlocked
	case c.locked:
		return StatusLocked
	case now < c.params.StartDate:
		return StatusPending
	case c.collected.Cmp(c.params.HardCap) >= 0:
		return StatusFinalized
	case now < c.params.EndDate:
		return StatusLive
	case c.collected.Cmp(c.params.SoftCap) >= 0:
		return StatusFinalized
	default:
		return StatusFailed
	}
}

// Snapshot 当前状态快照
func (c *Campaign) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	routerAddr := common.Address{}
	if c.cfg.Router != nil {
		routerAddr = c.cfg.Router.Address()
	}
	return State{
		Address:          c.cfg.Address,
		Owner:            c.cfg.Owner,
		Token:            c.cfg.Token.Address(),
		Base:             c.cfg.Base.Address(),
		FactoryAddress:   c.cfg.DEXFactory,
		RouterAddress:    routerAddr,
		Params:           c.params.Clone(),
		CreatedAt:        c.createdAt,
		Collected:        new(big.Int).Set(c.collected),
		Participants:     len(c.contributed),
		Finalized:        c.collected.Cmp(c.params.HardCap) >= 0,
		Locked:           c.locked,
		UnlockDate:       c.unlockDate,
		LPAddress:        c.lpAddress,
		WhitelistEnabled: c.whitelistOn,
		OwedTokens:       new(big.Int).Set(c.owedTokens),
		Status:           c.statusLocked(c.now()),
		Settlement:       c.settlement.clone(),
	}
}

func (c *Campaign) publish(ctx context.Context, events ...event.Event) {
	if len(events) > 0 {
		c.cfg.Publisher.Publish(ctx, events...)
	}
}

// enter 获取状态锁并标记操作进行中。外部调用期间再次进入返回 ErrReentrantCall。
func (c *Campaign) enter() error {
	c.mu.Lock()
	if c.entered {
		c.mu.Unlock()
		return ErrReentrantCall
	}
	c.entered = true
	return nil
}

func (c *Campaign) leave() {
	c.entered = false
	c.mu.Unlock()
}

// call 释放状态锁执行外部调用，调用前状态必须已经写好
func (c *Campaign) call(fn func() error) error {
	c.mu.Unlock()
	defer c.mu.Lock()
	return fn()
}

// SetWhitelistEnabled 开关白名单
func (c *Campaign) SetWhitelistEnabled(caller common.Address, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if caller != c.cfg.Owner {
		return ErrUnauthorized
	}
	c.whitelistOn = enabled
	return nil
}

// AddWhitelist 批量设置白名单
func (c *Campaign) AddWhitelist(caller common.Address, addrs []common.Address, allowed bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if caller != c.cfg.Owner {
		return ErrUnauthorized
	}
	for _, addr := range addrs {
		if allowed {
			c.whitelist[addr] = true
		} else {
			delete(c.whitelist, addr)
		}
	}
	return nil
}

// BuyTokens 认购，从 buyer 转入基础货币
func (c *Campaign) BuyTokens(ctx context.Context, buyer common.Address, amount *big.Int) error {
	ev, err := c.buyTokens(ctx, buyer, amount)
	if err != nil {
		logger.Debug("Buy on %s by %s rejected: %v", c.cfg.Address.Hex(), buyer.Hex(), err)
		return err
	}
	c.publish(ctx, ev)
	return nil
}

func (c *Campaign) buyTokens(ctx context.Context, buyer common.Address, amount *big.Int) (event.Event, error) {
	if err := c.enter(); err != nil {
		return nil, err
	}
	defer c.leave()

	if c.statusLocked(c.now()) != StatusLive {
		return nil, ErrCampaignNotLive
	}
	if c.whitelistOn && !c.whitelist[buyer] {
		return nil, ErrNotWhitelisted
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrAmountZero
	}

	prev, ok := c.contributed[buyer]
	if !ok {
		prev = new(big.Int)
	}
	total := new(big.Int).Add(prev, amount)
	if total.Cmp(c.params.MinAllowed) < 0 {
		return nil, ErrBelowMinAmount
	}
	if total.Cmp(c.params.MaxAllowed) > 0 {
		return nil, ErrAboveMaxAmount
	}

	collected := new(big.Int).Add(c.collected, amount)
	if collected.Cmp(c.params.HardCap) > 0 {
		return nil, ErrInsufficientTokens
	}
	plan := c.cfg.Split(c.params, collected)
	needed := new(big.Int).Add(plan.SaleTokens, plan.LiquidityTokens)
	needed.Add(needed, plan.TokenFee)
	if needed.Cmp(c.cfg.Token.BalanceOf(c.cfg.Address)) > 0 {
		return nil, ErrInsufficientTokens
	}

	prevOwed, prevCollected := c.owedTokens, c.collected
	owed := new(big.Int).Sub(c.owedTokens, c.TokensFor(prev))
	c.owedTokens = owed.Add(owed, c.TokensFor(total))
	c.contributed[buyer] = total
	c.collected = collected

	if err := c.call(func() error {
		return c.cfg.Base.Transfer(ctx, buyer, c.cfg.Address, amount)
	}); err != nil {
		c.owedTokens, c.collected = prevOwed, prevCollected
		if ok {
			c.contributed[buyer] = prev
		} else {
			delete(c.contributed, buyer)
		}
		return nil, err
	}

	if collected.Cmp(c.params.HardCap) == 0 {
		logger.Info("Campaign %s reached hard cap %s", c.cfg.Address.Hex(), c.params.HardCap)
	}
	return event.TokensBought{Campaign: c.cfg.Address, Buyer: buyer, Amount: new(big.Int).Set(amount)}, nil
}

// Lock 添加流动性并锁定 LP，只能由工厂调用
func (c *Campaign) Lock(ctx context.Context, caller common.Address) (*Settlement, error) {
	s, ev, err := c.lock(ctx, caller)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, ev...)
	return s, nil
}

func (c *Campaign) lock(ctx context.Context, caller common.Address) (_ *Settlement, events []event.Event, err error) {
	if err := c.enter(); err != nil {
		return nil, nil, err
	}
	defer c.leave()

	now := c.now()
	if caller != c.cfg.Launchpad {
		return nil, nil, ErrUnauthorized
	}
	if now < c.params.StartDate {
		return nil, nil, ErrCampaignNotStarted
	}
	if c.locked || c.unlocked {
		return nil, nil, ErrLiquidityAlreadyAdded
	}
	if c.refunding {
		return nil, nil, ErrCampaignFailed
	}
	if c.collected.Cmp(c.params.HardCap) < 0 && now < c.params.EndDate {
		return nil, nil, ErrCampaignStillLive
	}
	if c.collected.Cmp(c.params.SoftCap) < 0 {
		return nil, nil, ErrCampaignFailed
	}

	if pair, ok := c.cfg.Router.GetPair(c.cfg.Token.Address(), c.cfg.Base.Address()); ok {
		r0, r1 := pair.Reserves()
		if r0.Sign() != 0 || r1.Sign() != 0 {
			c.refunding = true
			c.settlement = &Settlement{Collected: new(big.Int).Set(c.collected), Refunded: true}
			logger.Warn("Pool %s already has reserves, campaign %s switches to refunds",
				pair.Address().Hex(), c.cfg.Address.Hex())
			return c.settlement.clone(), []event.Event{event.CampaignRefunded{Campaign: c.cfg.Address}}, nil
		}
	}

	plan := c.cfg.Split(c.params, c.collected)
	plan.Collected = new(big.Int).Set(c.collected)
	plan.LPAmount = new(big.Int)
	if err := c.checkBalances(&plan); err != nil {
		return nil, nil, err
	}
	agg := c.cfg.FeeAggregator()

	c.locked = true
	c.unlockDate = now + c.params.LockDuration
	c.settlement = &plan
	defer func() {
		if err != nil {
			c.locked = false
			c.unlockDate = 0
			c.settlement = nil
			c.lpAddress = common.Address{}
			c.lpToken = nil
		}
	}()

	if err = c.addLiquidity(ctx, now, &plan); err != nil {
		return nil, nil, fmt.Errorf("add liquidity: %w", err)
	}
	if err = c.payFee(ctx, agg, c.cfg.Base, plan.BaseFee); err != nil {
		return nil, nil, fmt.Errorf("pay base fee: %w", err)
	}
	if err = c.payFee(ctx, agg, c.cfg.Token, plan.TokenFee); err != nil {
		return nil, nil, fmt.Errorf("pay token fee: %w", err)
	}
	if plan.Proceeds.Sign() > 0 {
		if err = c.call(func() error {
			return c.cfg.Base.Transfer(ctx, c.cfg.Address, c.cfg.Owner, plan.Proceeds)
		}); err != nil {
			return nil, nil, fmt.Errorf("pay proceeds: %w", err)
		}
	}

	logger.Info("Campaign %s locked %s LP until %d", c.cfg.Address.Hex(), plan.LPAmount, c.unlockDate)
	return c.settlement.clone(), nil, nil
}

// checkBalances 在任何外部调用之前确认余额足以完成整个划分
func (c *Campaign) checkBalances(plan *Settlement) error {
	funds := new(big.Int).Add(plan.LiquidityBase, plan.BaseFee)
	funds.Add(funds, plan.Proceeds)
	if funds.Cmp(c.collected) > 0 || funds.Cmp(c.cfg.Base.BalanceOf(c.cfg.Address)) > 0 {
		return ErrInsufficientFunds
	}
	tokens := new(big.Int).Add(plan.LiquidityTokens, plan.TokenFee)
	tokens.Add(tokens, c.owedTokens)
	if tokens.Cmp(c.cfg.Token.BalanceOf(c.cfg.Address)) > 0 {
		return ErrInsufficientTokens
	}
	return nil
}

func (c *Campaign) addLiquidity(ctx context.Context, now int64, plan *Settlement) error {
	if plan.LiquidityBase.Sign() == 0 || plan.LiquidityTokens.Sign() == 0 {
		return nil
	}
	router := c.cfg.Router
	var liquidity *big.Int
	err := c.call(func() error {
		if err := c.cfg.Token.Approve(ctx, c.cfg.Address, router.Address(), plan.LiquidityTokens); err != nil {
			return err
		}
		if err := c.cfg.Base.Approve(ctx, c.cfg.Address, router.Address(), plan.LiquidityBase); err != nil {
			return err
		}
		var err error
		_, _, liquidity, err = router.AddLiquidity(ctx, c.cfg.Address,
			c.cfg.Token, c.cfg.Base,
			plan.LiquidityTokens, plan.LiquidityBase,
			plan.LiquidityTokens, plan.LiquidityBase,
			c.cfg.Address, now+c.cfg.LiquidityDeadline)
		return err
	})
	if err != nil {
		return err
	}
	pair, ok := router.GetPair(c.cfg.Token.Address(), c.cfg.Base.Address())
	if !ok {
		return ErrUnknownLPToken
	}
	plan.LPAmount = liquidity
	c.lpAddress = pair.Address()
	c.lpToken = pair
	return nil
}

func (c *Campaign) payFee(ctx context.Context, agg fee.Aggregator, token asset.Token, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	return c.call(func() error {
		if err := token.Transfer(ctx, c.cfg.Address, agg.Address(), amount); err != nil {
			return err
		}
		return agg.AddTokenFee(ctx, token.Address(), amount)
	})
}

// Unlock 锁定期满后将 LP 与剩余代币退还发起人，只能由工厂调用
func (c *Campaign) Unlock(ctx context.Context, caller common.Address) (err error) {
	if err := c.enter(); err != nil {
		return err
	}
	defer c.leave()

	if caller != c.cfg.Launchpad {
		return ErrUnauthorized
	}
	if !c.locked {
		return ErrLiquidityNotLocked
	}
	if c.now() < c.unlockDate {
		return ErrTokensAreLocked
	}

	var lp asset.Token
	if c.lpAddress != (common.Address{}) {
		if lp, err = c.lpTokenLocked(); err != nil {
			return err
		}
	}
	surplus := new(big.Int).Sub(c.cfg.Token.BalanceOf(c.cfg.Address), c.owedTokens)

	c.locked = false
	c.unlocked = true
	defer func() {
		if err != nil {
			c.locked = true
			c.unlocked = false
		}
	}()

	if lp != nil {
		if bal := lp.BalanceOf(c.cfg.Address); bal.Sign() > 0 {
			if err = c.call(func() error {
				return lp.Transfer(ctx, c.cfg.Address, c.cfg.Owner, bal)
			}); err != nil {
				return fmt.Errorf("return LP: %w", err)
			}
		}
	}
	if surplus.Sign() > 0 {
		if err = c.call(func() error {
			return c.cfg.Token.Transfer(ctx, c.cfg.Address, c.cfg.Owner, surplus)
		}); err != nil {
			return fmt.Errorf("return surplus tokens: %w", err)
		}
	}
	logger.Info("Campaign %s unlocked, surplus %s returned", c.cfg.Address.Hex(), surplus)
	return nil
}

func (c *Campaign) lpTokenLocked() (asset.Token, error) {
	if c.lpToken != nil && c.lpToken.Address() == c.lpAddress {
		return c.lpToken, nil
	}
	if c.cfg.Tokens == nil {
		return nil, ErrUnknownLPToken
	}
	t, err := c.cfg.Tokens.Get(c.lpAddress)
	if err != nil {
		return nil, ErrUnknownLPToken
	}
	return t, nil
}

// WithdrawTokens 锁定后参与者领取代币
func (c *Campaign) WithdrawTokens(ctx context.Context, caller common.Address) (*big.Int, error) {
	amount, err := c.withdrawTokens(ctx, caller)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, event.TokensWithdrawn{Campaign: c.cfg.Address, Participant: caller, Amount: new(big.Int).Set(amount)})
	return amount, nil
}

func (c *Campaign) withdrawTokens(ctx context.Context, caller common.Address) (*big.Int, error) {
	if err := c.enter(); err != nil {
		return nil, err
	}
	defer c.leave()

	if !c.locked && !c.unlocked {
		return nil, ErrLiquidityNotAdded
	}
	contributed, ok := c.contributed[caller]
	if !ok || contributed.Sign() == 0 {
		return nil, ErrNoParticipant
	}
	amount := c.TokensFor(contributed)
	delete(c.contributed, caller)
	c.owedTokens = new(big.Int).Sub(c.owedTokens, amount)

	if err := c.call(func() error {
		return c.cfg.Token.Transfer(ctx, c.cfg.Address, caller, amount)
	}); err != nil {
		c.contributed[caller] = contributed
		c.owedTokens = new(big.Int).Add(c.owedTokens, amount)
		return nil, err
	}
	return amount, nil
}

// WithdrawFunds 失败或退款状态下参与者取回资金，发起人取回代币
func (c *Campaign) WithdrawFunds(ctx context.Context, caller common.Address) (*big.Int, error) {
	refund, ev, err := c.withdrawFunds(ctx, caller)
	if err != nil {
		return nil, err
	}
	c.publish(ctx, ev...)
	return refund, nil
}

func (c *Campaign) withdrawFunds(ctx context.Context, caller common.Address) (_ *big.Int, events []event.Event, err error) {
	if err := c.enter(); err != nil {
		return nil, nil, err
	}
	defer c.leave()

	switch c.statusLocked(c.now()) {
	case StatusFailed, StatusRefunding:
	default:
		return nil, nil, ErrCampaignNotFailed
	}

	wasRefunding, moved := c.refunding, false
	c.refunding = true
	defer func() {
		if err != nil && !moved {
			c.refunding = wasRefunding
		}
	}()

	if caller == c.cfg.Owner {
		if bal := c.cfg.Token.BalanceOf(c.cfg.Address); bal.Sign() > 0 {
			if err = c.call(func() error {
				return c.cfg.Token.Transfer(ctx, c.cfg.Address, caller, bal)
			}); err != nil {
				return nil, nil, err
			}
			moved = true
			logger.Info("Campaign %s returned %s tokens to owner", c.cfg.Address.Hex(), bal)
		}
	}

	refund := new(big.Int)
	if contributed, ok := c.contributed[caller]; ok && contributed.Sign() > 0 {
		owed := c.TokensFor(contributed)
		delete(c.contributed, caller)
		c.owedTokens = new(big.Int).Sub(c.owedTokens, owed)
		if err = c.call(func() error {
			return c.cfg.Base.Transfer(ctx, c.cfg.Address, caller, contributed)
		}); err != nil {
			c.contributed[caller] = contributed
			c.owedTokens = new(big.Int).Add(c.owedTokens, owed)
			return nil, nil, err
		}
		refund.Set(contributed)
		events = append(events, event.FundsWithdrawn{Campaign: c.cfg.Address, Participant: caller, Amount: new(big.Int).Set(refund)})
	}
	return refund, events, nil
}

// SetLPAddress 锁定期满后由发起人修正 LP 地址
func (c *Campaign) SetLPAddress(caller, lp common.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if caller != c.cfg.Owner {
		return ErrUnauthorized
	}
	if c.unlockDate == 0 {
		return ErrLiquidityNotLocked
	}
	if c.now() < c.unlockDate {
		return ErrTokensAreLocked
	}
	c.lpAddress = lp
	return nil
}
