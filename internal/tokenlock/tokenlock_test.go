package tokenlock_test

import (
	"context"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/blues/launchpad/internal/asset"
	"github.com/blues/launchpad/internal/event"
	"github.com/blues/launchpad/internal/fee"
	"github.com/blues/launchpad/internal/tokenlock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	lockFactory = common.HexToAddress("0x000000000000000000000000000000000001ec70")
	aggAddr     = common.HexToAddress("0x0000000000000000000000000000000000000a66")
	admin       = common.HexToAddress("0x0000000000000000000000000000000000000ad1")
	alice       = common.HexToAddress("0x2000000000000000000000000000000000000002")
	bob         = common.HexToAddress("0x3000000000000000000000000000000000000003")
)

const t0 = int64(1_700_000_000)

type env struct {
	ctx   context.Context
	now   time.Time
	base  *asset.Ledger
	token *asset.Ledger
	agg   *fee.Tally
	rec   *event.Recorder
	f     *tokenlock.Factory
}

func (e *env) clock() time.Time { return e.now }

func (e *env) at(unix int64) { e.now = time.Unix(unix, 0) }

var lockFee = big.NewInt(2e17)

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		ctx:   context.Background(),
		now:   time.Unix(t0, 0),
		base:  asset.NewLedger(common.HexToAddress("0xba5e"), "USDT", 18),
		token: asset.NewLedger(common.HexToAddress("0x70ce"), "TKN", 18),
		agg:   fee.NewTally(aggAddr),
		rec:   &event.Recorder{},
	}
	require.NoError(t, e.base.Mint(alice, asset.Units(10, 18)))
	require.NoError(t, e.token.Mint(alice, asset.Units(1_000, 18)))
	require.NoError(t, e.token.Approve(e.ctx, alice, lockFactory, asset.Units(1_000, 18)))
	e.f = tokenlock.New(tokenlock.Settings{
		Address:       lockFactory,
		Admin:         admin,
		StableCoin:    e.base,
		FeeAggregator: e.agg,
		Fee:           lockFee,
		Publisher:     e.rec,
		Now:           e.clock,
	})
	return e
}

func (e *env) request(amount *big.Int) tokenlock.LockRequest {
	return tokenlock.LockRequest{
		Token:     e.token,
		Amount:    amount,
		StartTime: t0,
		Duration:  60,
		Releases:  4,
		Payment:   lockFee,
	}
}

func TestLockValidation(t *testing.T) {
	e := newEnv(t)

	req := e.request(new(big.Int))
	_, err := e.f.Lock(e.ctx, alice, req)
	require.ErrorIs(t, err, tokenlock.ErrAmountZero)

	req = e.request(big.NewInt(100))
	req.Payment = big.NewInt(1)
	_, err = e.f.Lock(e.ctx, alice, req)
	require.ErrorIs(t, err, tokenlock.ErrFeeNotPayed)

	req = e.request(big.NewInt(100))
	req.Releases = 0
	_, err = e.f.Lock(e.ctx, alice, req)
	require.ErrorIs(t, err, tokenlock.ErrNoReleases)

	req = e.request(big.NewInt(100))
	req.StartTime = -1
	_, err = e.f.Lock(e.ctx, alice, req)
	require.ErrorIs(t, err, tokenlock.ErrInvalidStartTime)

	req = e.request(big.NewInt(100))
	req.Duration = -1
	_, err = e.f.Lock(e.ctx, alice, req)
	require.ErrorIs(t, err, tokenlock.ErrInvalidDuration)

	_, err = e.f.Lock(e.ctx, bob, e.request(big.NewInt(100)))
	require.ErrorIs(t, err, asset.ErrInsufficientAllowance)

	require.Zero(t, e.f.LockCount())
	require.Empty(t, e.rec.Events())
}

func TestLockCollectsFee(t *testing.T) {
	e := newEnv(t)
	amount := asset.Units(100, 18)

	id, err := e.f.Lock(e.ctx, alice, e.request(amount))
	require.NoError(t, err)
	require.Equal(t, uint64(0), id)
	require.Equal(t, lockFee, e.agg.Collected(e.base.Address()))
	require.Equal(t, lockFee, e.base.BalanceOf(aggAddr))
	require.Equal(t, amount, e.token.BalanceOf(lockFactory))
	require.Equal(t, []uint64{0}, e.f.GetUserLocks(alice))

	l, err := e.f.GetLock(id)
	require.NoError(t, err)
	require.Equal(t, alice, l.Owner)
	require.Equal(t, amount, l.Amount)
	require.Zero(t, l.Released.Sign())

	require.Equal(t, []event.Event{event.TokenLocked{
		Factory: lockFactory,
		LockID:  0,
		Token:   e.token.Address(),
		Owner:   alice,
		Amount:  amount,
	}}, e.rec.Events())
}

func TestLockRecordsReceivedAmountForTaxedToken(t *testing.T) {
	e := newEnv(t)
	taxed := asset.NewLedger(common.HexToAddress("0x7a8"), "TAX", 18).WithTransferTax(200)
	require.NoError(t, taxed.Mint(alice, asset.Units(100, 18)))
	require.NoError(t, taxed.Approve(e.ctx, alice, lockFactory, asset.Units(100, 18)))

	req := e.request(asset.Units(100, 18))
	req.Token = taxed
	id, err := e.f.Lock(e.ctx, alice, req)
	require.NoError(t, err)

	l, err := e.f.GetLock(id)
	require.NoError(t, err)
	require.Equal(t, asset.Units(98, 18), l.Amount)
}

func TestUnlockedAmountTranches(t *testing.T) {
	e := newEnv(t)
	amount := asset.Units(100, 18)
	id, err := e.f.Lock(e.ctx, alice, e.request(amount))
	require.NoError(t, err)

	quarter := asset.Units(25, 18)
	cases := []struct {
		at   int64
		want *big.Int
	}{
		{t0 - 1, new(big.Int)},
		{t0, new(big.Int)},
		{t0 + 14, new(big.Int)},
		{t0 + 15, quarter},
		{t0 + 29, quarter},
		{t0 + 30, asset.Units(50, 18)},
		{t0 + 45, asset.Units(75, 18)},
		{t0 + 60, amount},
		{t0 + 6000, amount},
	}
	prev := new(big.Int)
	for _, tc := range cases {
		e.at(tc.at)
		got, err := e.f.UnlockedAmount(id)
		require.NoError(t, err)
		require.Zero(t, tc.want.Cmp(got), "at +%d: got %s", tc.at-t0, got)
		require.GreaterOrEqual(t, got.Cmp(prev), 0)
		prev = got
	}
}

func TestUnlockedAmountReachesAmountForAnyReleases(t *testing.T) {
	for _, releases := range []uint64{1, 3, 7, 60, 61, 1000} {
		e := newEnv(t)
		req := e.request(big.NewInt(1_000_003))
		req.Releases = releases
		id, err := e.f.Lock(e.ctx, alice, req)
		require.NoError(t, err)

		e.at(t0 + 60)
		got, err := e.f.UnlockedAmount(id)
		require.NoError(t, err)
		require.Equal(t, big.NewInt(1_000_003), got, "releases=%d", releases)
	}
}

func TestUnlock(t *testing.T) {
	e := newEnv(t)
	id, err := e.f.Lock(e.ctx, alice, e.request(asset.Units(100, 18)))
	require.NoError(t, err)
	before := e.token.BalanceOf(alice)

	e.at(t0 + 20)
	require.ErrorIs(t, e.f.Unlock(e.ctx, alice, id, asset.Units(26, 18)), tokenlock.ErrAmountTooHighOrLocked)
	require.ErrorIs(t, e.f.Unlock(e.ctx, bob, id, asset.Units(1, 18)), tokenlock.ErrUnauthorized)
	require.ErrorIs(t, e.f.Unlock(e.ctx, alice, 9, asset.Units(1, 18)), tokenlock.ErrLockDoesNotExist)

	require.NoError(t, e.f.Unlock(e.ctx, alice, id, asset.Units(10, 18)))
	left, err := e.f.AmountToUnlock(id)
	require.NoError(t, err)
	require.Equal(t, asset.Units(15, 18), left)

	got, err := e.f.UnlockAvailable(e.ctx, alice, id)
	require.NoError(t, err)
	require.Equal(t, asset.Units(15, 18), got)

	none, err := e.f.UnlockAvailable(e.ctx, alice, id)
	require.NoError(t, err)
	require.Zero(t, none.Sign())

	e.at(t0 + 60)
	got, err = e.f.UnlockAvailable(e.ctx, alice, id)
	require.NoError(t, err)
	require.Equal(t, asset.Units(75, 18), got)
	require.Equal(t, new(big.Int).Add(before, asset.Units(100, 18)), e.token.BalanceOf(alice))
	require.Zero(t, e.token.BalanceOf(lockFactory).Sign())

	require.ErrorIs(t, e.f.Unlock(e.ctx, alice, id, big.NewInt(1)), tokenlock.ErrAmountTooHighOrLocked)
	require.Equal(t, []string{"TokenLocked", "TokenUnlocked", "TokenUnlocked", "TokenUnlocked"}, e.rec.Names())
}

func TestChangeOwner(t *testing.T) {
	e := newEnv(t)
	var ids []uint64
	for i := 0; i < 3; i++ {
		id, err := e.f.Lock(e.ctx, alice, e.request(asset.Units(10, 18)))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	require.ErrorIs(t, e.f.ChangeOwner(e.ctx, bob, ids[0], bob), tokenlock.ErrUnauthorized)
	require.ErrorIs(t, e.f.ChangeOwner(e.ctx, alice, 42, bob), tokenlock.ErrLockDoesNotExist)
	require.ErrorIs(t, e.f.ChangeOwner(e.ctx, alice, ids[0], common.Address{}), tokenlock.ErrInvalidAddress)

	require.NoError(t, e.f.ChangeOwner(e.ctx, alice, ids[0], bob))
	require.ElementsMatch(t, []uint64{ids[1], ids[2]}, e.f.GetUserLocks(alice))
	require.Equal(t, []uint64{ids[0]}, e.f.GetUserLocks(bob))

	require.NoError(t, e.f.ChangeOwner(e.ctx, alice, ids[2], bob))
	require.NoError(t, e.f.ChangeOwner(e.ctx, alice, ids[1], bob))
	require.Empty(t, e.f.GetUserLocks(alice))
	require.ElementsMatch(t, ids, e.f.GetUserLocks(bob))

	e.at(t0 + 60)
	require.ErrorIs(t, e.f.Unlock(e.ctx, alice, ids[0], big.NewInt(1)), tokenlock.ErrUnauthorized)
	_, err := e.f.UnlockAvailable(e.ctx, bob, ids[0])
	require.NoError(t, err)
	require.Equal(t, asset.Units(10, 18), e.token.BalanceOf(bob))

	last := e.rec.Events()[len(e.rec.Events())-2]
	require.Equal(t, event.OwnerChanged{Factory: lockFactory, LockID: ids[1], OldOwner: alice, NewOwner: bob}, last)
}

func TestSettings(t *testing.T) {
	e := newEnv(t)
	require.ErrorIs(t, e.f.SetStableCoinFee(alice, big.NewInt(1)), tokenlock.ErrUnauthorized)
	require.NoError(t, e.f.SetStableCoinFee(admin, new(big.Int)))
	require.Zero(t, e.f.StableCoinFee().Sign())

	req := e.request(big.NewInt(10))
	req.Payment = new(big.Int)
	_, err := e.f.Lock(e.ctx, alice, req)
	require.NoError(t, err)
	require.Zero(t, e.agg.Collected(e.base.Address()).Sign())
}

func TestLongDurationStaysLocked(t *testing.T) {
	e := newEnv(t)
	req := e.request(asset.Units(1_000, 18))
	req.Duration = math.MaxInt64
	id, err := e.f.Lock(e.ctx, alice, req)
	require.NoError(t, err)

	for _, at := range []int64{t0, t0 + 1, t0 + 365*86400} {
		e.at(at)
		got, err := e.f.UnlockedAmount(id)
		require.NoError(t, err)
		require.Zero(t, got.Sign(), "at %d", at)
	}
	_, err = e.f.UnlockAvailable(e.ctx, alice, id)
	require.NoError(t, err)
	require.Equal(t, asset.Units(1_000, 18), e.token.BalanceOf(lockFactory))
}

// hookToken 在转账前执行一次回调
type hookToken struct {
	*asset.Ledger
	hook func()
}

func (h *hookToken) Transfer(ctx context.Context, from, to common.Address, amount *big.Int) error {
	if hook := h.hook; hook != nil {
		h.hook = nil
		hook()
	}
	return h.Ledger.Transfer(ctx, from, to, amount)
}

func TestUnlockRejectsReentry(t *testing.T) {
	e := newEnv(t)
	ht := &hookToken{Ledger: e.token}
	req := e.request(asset.Units(100, 18))
	req.Token = ht
	id, err := e.f.Lock(e.ctx, alice, req)
	require.NoError(t, err)

	e.at(t0 + 60)
	var innerErr error
	var seen tokenlock.Lock
	ht.hook = func() {
		seen, _ = e.f.GetLock(id)
		_, innerErr = e.f.UnlockAvailable(e.ctx, alice, id)
	}

	done := make(chan struct{})
	var got *big.Int
	go func() {
		defer close(done)
		got, err = e.f.UnlockAvailable(e.ctx, alice, id)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("unlock did not return")
	}

	require.NoError(t, err)
	require.Equal(t, asset.Units(100, 18), got)
	require.ErrorIs(t, innerErr, tokenlock.ErrReentrantCall)
	require.Equal(t, asset.Units(100, 18), seen.Released)
	require.Zero(t, e.token.BalanceOf(lockFactory).Sign())
	require.Equal(t, []string{"TokenLocked", "TokenUnlocked"}, e.rec.Names())
}
