package campaign_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/blues/launchpad/internal/asset"
	"github.com/blues/launchpad/internal/campaign"
	"github.com/blues/launchpad/internal/dex"
	"github.com/blues/launchpad/internal/event"
	"github.com/blues/launchpad/internal/factory"
	"github.com/blues/launchpad/internal/fee"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	launchpad = common.HexToAddress("0x00000000000000000000000000000000000fac70")
	self      = common.HexToAddress("0x00000000000000000000000000000000000cafe1")
	owner     = common.HexToAddress("0x1000000000000000000000000000000000000001")
	alice     = common.HexToAddress("0x2000000000000000000000000000000000000002")
	bob       = common.HexToAddress("0x3000000000000000000000000000000000000003")
)

const start = int64(1_700_000_100)

type env struct {
	ctx   context.Context
	now   time.Time
	base  *asset.Ledger
	token *asset.Ledger
	rec   *event.Recorder
	c     *campaign.Campaign
}

func (e *env) clock() time.Time { return e.now }

func (e *env) at(unix int64) { e.now = time.Unix(unix, 0) }

func defaultParams() campaign.Params {
	return campaign.Params{
		SoftCap:       asset.Units(10, 18),
		HardCap:       asset.Units(20, 18),
		StartDate:     start,
		EndDate:       start + 3600,
		Rate:          asset.Units(100, 9),
		MinAllowed:    big.NewInt(1e17),
		MaxAllowed:    asset.Units(15, 18),
		PoolRate:      asset.Units(60, 9),
		LockDuration:  600,
		LiquidityRate: 7500,
	}
}

// newEnv 创建募资并按 escrow 托管代币
func newEnv(t *testing.T, p campaign.Params, escrow *big.Int, opts ...func(*campaign.Config)) *env {
	t.Helper()
	e := &env{
		ctx:   context.Background(),
		now:   time.Unix(start-100, 0),
		base:  asset.NewLedger(common.HexToAddress("0xba5e"), "USDT", 18),
		token: asset.NewLedger(common.HexToAddress("0x70ce"), "TKN", 9),
		rec:   &event.Recorder{},
	}
	for _, a := range []common.Address{alice, bob} {
		require.NoError(t, e.base.Mint(a, asset.Units(50, 18)))
	}
	require.NoError(t, e.token.Mint(self, escrow))

	unit := asset.Pow10(18)
	agg := fee.NewTally(common.HexToAddress("0xa66"))
	cfg := campaign.Config{
		Address:       self,
		Owner:         owner,
		Launchpad:     launchpad,
		Token:         e.token,
		Base:          e.base,
		Router:        dex.NewExchange(common.HexToAddress("0xde4"), e.clock),
		FeeAggregator: func() fee.Aggregator { return agg },
		Split: func(p campaign.Params, collected *big.Int) campaign.Settlement {
			return factory.Split(p, collected, unit, 50, 100)
		},
		LiquidityDeadline: 300,
		Publisher:         e.rec,
		Now:               e.clock,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	e.c = campaign.New(cfg, p)
	return e
}

func fullEscrow() *big.Int {
	return big.NewInt(2_914_500_000_000)
}

func TestBuyTokensPreconditions(t *testing.T) {
	e := newEnv(t, defaultParams(), fullEscrow())

	require.ErrorIs(t, e.c.BuyTokens(e.ctx, alice, asset.Units(1, 18)), campaign.ErrCampaignNotLive)
	require.Equal(t, campaign.StatusPending, e.c.Status())

	e.at(start)
	require.True(t, e.c.IsLive())
	require.ErrorIs(t, e.c.BuyTokens(e.ctx, alice, new(big.Int)), campaign.ErrAmountZero)
	require.ErrorIs(t, e.c.BuyTokens(e.ctx, alice, big.NewInt(1e16)), campaign.ErrBelowMinAmount)
	require.ErrorIs(t, e.c.BuyTokens(e.ctx, alice, asset.Units(16, 18)), campaign.ErrAboveMaxAmount)

	require.NoError(t, e.c.BuyTokens(e.ctx, alice, asset.Units(10, 18)))
	require.ErrorIs(t, e.c.BuyTokens(e.ctx, alice, asset.Units(6, 18)), campaign.ErrAboveMaxAmount)
	require.NoError(t, e.c.BuyTokens(e.ctx, alice, asset.Units(5, 18)))

	require.ErrorIs(t, e.c.BuyTokens(e.ctx, bob, asset.Units(6, 18)), campaign.ErrInsufficientTokens)
	require.Equal(t, asset.Units(15, 18), e.c.Collected())

	e.at(start + 3600)
	require.ErrorIs(t, e.c.BuyTokens(e.ctx, bob, asset.Units(1, 18)), campaign.ErrCampaignNotLive)
	require.Equal(t, campaign.StatusFinalized, e.c.Status())
}

func TestBuyTokensUnderfundedEscrow(t *testing.T) {
	e := newEnv(t, defaultParams(), big.NewInt(1_000_000_000_000))
	e.at(start)

	require.NoError(t, e.c.BuyTokens(e.ctx, alice, asset.Units(6, 18)))
	require.ErrorIs(t, e.c.BuyTokens(e.ctx, bob, asset.Units(1, 18)), campaign.ErrInsufficientTokens)
	require.Zero(t, e.c.Contributed(bob).Sign())
}

func TestBuyTokensTransferFailureLeavesStateUntouched(t *testing.T) {
	e := newEnv(t, defaultParams(), fullEscrow())
	e.at(start)
	poor := common.HexToAddress("0x5000000000000000000000000000000000000005")

	require.ErrorIs(t, e.c.BuyTokens(e.ctx, poor, asset.Units(1, 18)), asset.ErrInsufficientBalance)
	require.Zero(t, e.c.Collected().Sign())
	require.Empty(t, e.c.Participants())
	require.Empty(t, e.rec.Events())
}

func TestWhitelist(t *testing.T) {
	p := defaultParams()
	p.WhitelistEnabled = true
	e := newEnv(t, p, fullEscrow())
	e.at(start)

	require.ErrorIs(t, e.c.BuyTokens(e.ctx, alice, asset.Units(1, 18)), campaign.ErrNotWhitelisted)
	require.ErrorIs(t, e.c.AddWhitelist(alice, []common.Address{alice}, true), campaign.ErrUnauthorized)
	require.ErrorIs(t, e.c.SetWhitelistEnabled(alice, false), campaign.ErrUnauthorized)

	require.NoError(t, e.c.AddWhitelist(owner, []common.Address{alice, bob}, true))
	require.True(t, e.c.Whitelisted(alice))
	require.NoError(t, e.c.BuyTokens(e.ctx, alice, asset.Units(1, 18)))

	require.NoError(t, e.c.AddWhitelist(owner, []common.Address{bob}, false))
	require.False(t, e.c.Whitelisted(bob))
	require.ErrorIs(t, e.c.BuyTokens(e.ctx, bob, asset.Units(1, 18)), campaign.ErrNotWhitelisted)

	require.NoError(t, e.c.SetWhitelistEnabled(owner, false))
	require.NoError(t, e.c.BuyTokens(e.ctx, bob, asset.Units(1, 18)))
	require.False(t, e.c.Snapshot().WhitelistEnabled)
}

func TestFailedCampaignRefunds(t *testing.T) {
	e := newEnv(t, defaultParams(), fullEscrow())
	e.at(start)
	require.NoError(t, e.c.BuyTokens(e.ctx, alice, asset.Units(4, 18)))
	require.NoError(t, e.c.BuyTokens(e.ctx, bob, asset.Units(2, 18)))

	_, err := e.c.WithdrawFunds(e.ctx, alice)
	require.ErrorIs(t, err, campaign.ErrCampaignNotFailed)
	_, err = e.c.WithdrawTokens(e.ctx, alice)
	require.ErrorIs(t, err, campaign.ErrLiquidityNotAdded)

	e.at(start + 3600)
	require.True(t, e.c.IsFailed())

	refund, err := e.c.WithdrawFunds(e.ctx, alice)
	require.NoError(t, err)
	require.Equal(t, asset.Units(4, 18), refund)
	require.Equal(t, asset.Units(50, 18), e.base.BalanceOf(alice))
	require.Equal(t, campaign.StatusRefunding, e.c.Status())

	again, err := e.c.WithdrawFunds(e.ctx, alice)
	require.NoError(t, err)
	require.Zero(t, again.Sign())
	require.Equal(t, asset.Units(50, 18), e.base.BalanceOf(alice))

	_, err = e.c.WithdrawFunds(e.ctx, owner)
	require.NoError(t, err)
	require.Equal(t, fullEscrow(), e.token.BalanceOf(owner))
	require.Zero(t, e.token.BalanceOf(self).Sign())

	refund, err = e.c.WithdrawFunds(e.ctx, bob)
	require.NoError(t, err)
	require.Equal(t, asset.Units(2, 18), refund)
	require.Zero(t, e.base.BalanceOf(self).Sign())

	require.Equal(t, []string{"TokensBought", "TokensBought", "FundsWithdrawn", "FundsWithdrawn"}, e.rec.Names())
}

func TestWithdrawTokensOnce(t *testing.T) {
	e := newEnv(t, defaultParams(), fullEscrow())
	e.at(start)
	require.NoError(t, e.c.BuyTokens(e.ctx, alice, asset.Units(12, 18)))

	e.at(start + 3600)
	_, err := e.c.Lock(e.ctx, launchpad)
	require.NoError(t, err)

	got, err := e.c.WithdrawTokens(e.ctx, alice)
	require.NoError(t, err)
	require.Equal(t, asset.Units(1_200, 9), got)
	require.Equal(t, asset.Units(1_200, 9), e.token.BalanceOf(alice))

	_, err = e.c.WithdrawTokens(e.ctx, alice)
	require.ErrorIs(t, err, campaign.ErrNoParticipant)
	_, err = e.c.WithdrawTokens(e.ctx, bob)
	require.ErrorIs(t, err, campaign.ErrNoParticipant)
	_, err = e.c.WithdrawFunds(e.ctx, alice)
	require.ErrorIs(t, err, campaign.ErrCampaignNotFailed)
	require.Zero(t, e.c.Snapshot().OwedTokens.Sign())
}

func TestSetLPAddress(t *testing.T) {
	e := newEnv(t, defaultParams(), fullEscrow())
	lp := common.HexToAddress("0x1b")

	require.ErrorIs(t, e.c.SetLPAddress(alice, lp), campaign.ErrUnauthorized)
	require.ErrorIs(t, e.c.SetLPAddress(owner, lp), campaign.ErrLiquidityNotLocked)

	e.at(start)
	require.NoError(t, e.c.BuyTokens(e.ctx, alice, asset.Units(10, 18)))
	e.at(start + 3600)
	_, err := e.c.Lock(e.ctx, launchpad)
	require.NoError(t, err)
	require.ErrorIs(t, e.c.SetLPAddress(owner, lp), campaign.ErrTokensAreLocked)

	e.at(start + 3600 + 600)
	require.NoError(t, e.c.SetLPAddress(owner, lp))
	require.Equal(t, lp, e.c.Snapshot().LPAddress)

	// 修正后的 LP 地址无法解析
	require.ErrorIs(t, e.c.Unlock(e.ctx, launchpad), campaign.ErrUnknownLPToken)
	require.Equal(t, campaign.StatusLocked, e.c.Status())
}

type brokenRouter struct {
	dex.Router
}

func (brokenRouter) AddLiquidity(context.Context, common.Address, asset.Token, asset.Token,
	*big.Int, *big.Int, *big.Int, *big.Int, common.Address, int64) (*big.Int, *big.Int, *big.Int, error) {
	return nil, nil, nil, dex.ErrExpired
}

func TestLockRestoresStateOnFailure(t *testing.T) {
	e := newEnv(t, defaultParams(), fullEscrow(), func(cfg *campaign.Config) {
		cfg.Router = brokenRouter{Router: cfg.Router}
	})
	e.at(start)
	require.NoError(t, e.c.BuyTokens(e.ctx, alice, asset.Units(10, 18)))

	e.at(start + 3600)
	_, err := e.c.Lock(e.ctx, launchpad)
	require.ErrorIs(t, err, dex.ErrExpired)

	snap := e.c.Snapshot()
	require.Equal(t, campaign.StatusFinalized, snap.Status)
	require.False(t, snap.Locked)
	require.Zero(t, snap.UnlockDate)
	require.Nil(t, snap.Settlement)
	require.Equal(t, fullEscrow(), e.token.BalanceOf(self))

	_, err = e.c.WithdrawTokens(e.ctx, alice)
	require.ErrorIs(t, err, campaign.ErrLiquidityNotAdded)
}

// hookToken 在转账前执行回调，fail 非空时转账失败
type hookToken struct {
	*asset.Ledger
	hook func()
	fail error
}

func (h *hookToken) Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error {
	if hook := h.hook; hook != nil {
		h.hook = nil
		hook()
	}
	if h.fail != nil {
		return h.fail
	}
	return h.Ledger.Transfer(ctx, from, to, amount)
}

func lockedWithHook(t *testing.T) (*env, *hookToken) {
	t.Helper()
	var ht *hookToken
	e := newEnv(t, defaultParams(), fullEscrow(), func(cfg *campaign.Config) {
		ht = &hookToken{Ledger: cfg.Token.(*asset.Ledger)}
		cfg.Token = ht
	})
	e.at(start)
	require.NoError(t, e.c.BuyTokens(e.ctx, alice, asset.Units(10, 18)))
	e.at(start + 3600)
	_, err := e.c.Lock(e.ctx, launchpad)
	require.NoError(t, err)
	return e, ht
}

func TestWithdrawTokensRejectsReentry(t *testing.T) {
	e, ht := lockedWithHook(t)

	var innerErr, refundErr error
	var seen *big.Int
	ht.hook = func() {
		seen = e.c.Contributed(alice)
		_, innerErr = e.c.WithdrawTokens(e.ctx, alice)
		_, refundErr = e.c.WithdrawFunds(e.ctx, alice)
	}

	done := make(chan struct{})
	var got *big.Int
	var err error
	go func() {
		defer close(done)
		got, err = e.c.WithdrawTokens(e.ctx, alice)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("withdraw did not return")
	}

	require.NoError(t, err)
	require.Equal(t, asset.Units(1_000, 9), got)
	require.ErrorIs(t, innerErr, campaign.ErrReentrantCall)
	require.ErrorIs(t, refundErr, campaign.ErrReentrantCall)
	require.Zero(t, seen.Sign())
	require.Equal(t, asset.Units(1_000, 9), e.token.BalanceOf(alice))
	require.Equal(t, 1, countNames(e.rec.Names(), "TokensWithdrawn"))

	_, err = e.c.WithdrawTokens(e.ctx, alice)
	require.ErrorIs(t, err, campaign.ErrNoParticipant)
}

func TestWithdrawTokensRestoresClaimOnTransferFailure(t *testing.T) {
	e, ht := lockedWithHook(t)
	owed := e.c.Snapshot().OwedTokens

	ht.fail = asset.ErrInsufficientBalance
	_, err := e.c.WithdrawTokens(e.ctx, alice)
	require.ErrorIs(t, err, asset.ErrInsufficientBalance)
	require.Equal(t, asset.Units(10, 18), e.c.Contributed(alice))
	require.Equal(t, owed, e.c.Snapshot().OwedTokens)

	ht.fail = nil
	got, err := e.c.WithdrawTokens(e.ctx, alice)
	require.NoError(t, err)
	require.Equal(t, asset.Units(1_000, 9), got)
}

func TestLockChecksBalancesBeforeExternalCalls(t *testing.T) {
	var router dex.Router
	e := newEnv(t, defaultParams(), fullEscrow(), func(cfg *campaign.Config) {
		split := cfg.Split
		cfg.Split = func(p campaign.Params, collected *big.Int) campaign.Settlement {
			s := split(p, collected)
			s.Proceeds = new(big.Int).Set(collected)
			return s
		}
		router = cfg.Router
	})
	e.at(start)
	require.NoError(t, e.c.BuyTokens(e.ctx, alice, asset.Units(10, 18)))

	e.at(start + 3600)
	_, err := e.c.Lock(e.ctx, launchpad)
	require.ErrorIs(t, err, campaign.ErrInsufficientFunds)

	_, ok := router.GetPair(e.token.Address(), e.base.Address())
	require.False(t, ok)
	require.Equal(t, asset.Units(10, 18), e.base.BalanceOf(self))
	require.Equal(t, fullEscrow(), e.token.BalanceOf(self))
	require.Equal(t, campaign.StatusFinalized, e.c.Status())
}

func countNames(names []string, name string) int {
	n := 0
	for _, v := range names {
		if v == name {
			n++
		}
	}
	return n
}
