package dex

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/blues/launchpad/internal/asset"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	lp      = common.HexToAddress("0x1111")
	routerA = common.HexToAddress("0xde00")
)

func e18(n int64) *big.Int { return asset.Units(n, 18) }

func setup(t *testing.T) (*Exchange, *asset.Ledger, *asset.Ledger) {
	t.Helper()
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	ex := NewExchange(routerA, func() time.Time { return now })
	a := asset.NewLedger(common.HexToAddress("0xaa"), "A", 18)
	b := asset.NewLedger(common.HexToAddress("0xbb"), "B", 18)
	require.NoError(t, a.Mint(lp, e18(1000)))
	require.NoError(t, b.Mint(lp, e18(1000)))
	require.NoError(t, a.Approve(ctx, lp, routerA, e18(1000)))
	require.NoError(t, b.Approve(ctx, lp, routerA, e18(1000)))
	return ex, a, b
}

func TestAddLiquidityFirstMint(t *testing.T) {
	ex, a, b := setup(t)
	deadline := time.Unix(1_700_000_060, 0).Unix()

	amountA, amountB, liquidity, err := ex.AddLiquidity(context.Background(), lp, a, b, e18(1), e18(4), big.NewInt(0), big.NewInt(0), lp, deadline)
	require.NoError(t, err)
	require.Equal(t, e18(1), amountA)
	require.Equal(t, e18(4), amountB)

	// sqrt(1e18 * 4e18) - 1000
	expected := new(big.Int).Sub(e18(2), MinimumLiquidity)
	require.Equal(t, expected, liquidity)

	pair, ok := ex.GetPair(b.Address(), a.Address())
	require.True(t, ok)
	require.Equal(t, expected, pair.BalanceOf(lp))
	r0, r1 := pair.Reserves()
	require.Equal(t, e18(1), r0)
	require.Equal(t, e18(4), r1)
	require.Equal(t, ex.PairAddress(a.Address(), b.Address()), pair.Address())
}

func TestAddLiquidityUsesOptimalRatio(t *testing.T) {
	ex, a, b := setup(t)
	ctx := context.Background()
	deadline := time.Unix(1_700_000_060, 0).Unix()

	_, _, _, err := ex.AddLiquidity(ctx, lp, a, b, e18(1), e18(4), big.NewInt(0), big.NewInt(0), lp, deadline)
	require.NoError(t, err)

	amountA, amountB, liquidity, err := ex.AddLiquidity(ctx, lp, a, b, e18(2), e18(20), big.NewInt(0), big.NewInt(0), lp, deadline)
	require.NoError(t, err)
	require.Equal(t, e18(2), amountA)
	require.Equal(t, e18(8), amountB)
	require.Equal(t, e18(4), liquidity)

	_, _, _, err = ex.AddLiquidity(ctx, lp, a, b, e18(1), e18(20), big.NewInt(0), e18(5), lp, deadline)
	require.ErrorIs(t, err, ErrInsufficientBAmount)
}

func TestAddLiquidityExpired(t *testing.T) {
	ex, a, b := setup(t)
	_, _, _, err := ex.AddLiquidity(context.Background(), lp, a, b, e18(1), e18(1), big.NewInt(0), big.NewInt(0), lp, 1_699_999_999)
	require.ErrorIs(t, err, ErrExpired)
}

func TestCreatePairIdentical(t *testing.T) {
	ex, a, _ := setup(t)
	_, err := ex.CreatePair(a.Address(), a.Address())
	require.ErrorIs(t, err, ErrIdenticalAddresses)
}
