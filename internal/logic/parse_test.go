package logic

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount("amount", " 1500000000 ")
	require.NoError(t, err)
	require.Equal(t, "1500000000", v.String())

	for _, bad := range []string{"", "-1", "1.5", "0x10", "abc"} {
		_, err := ParseAmount("amount", bad)
		require.True(t, errors.Is(err, ErrInvalidAmount), bad)
	}
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("token", "0x00000000000000000000000000000000000005d1")
	require.NoError(t, err)
	require.Equal(t, common.HexToAddress("0x5d1"), addr)

	_, err = ParseAddress("token", "0x123")
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestFormatUnits(t *testing.T) {
	require.Equal(t, "1.5", FormatUnits("1500000000000000000", 18))
	require.Equal(t, "0.000000001", FormatUnits("1", 9))
	require.Equal(t, "42", FormatUnits("42", 0))
	require.Equal(t, "n/a", FormatUnits("n/a", 18))
}

func TestPercent(t *testing.T) {
	require.Equal(t, "50.00", Percent("10", "20"))
	require.Equal(t, "33.33", Percent("1", "3"))
	require.Equal(t, "0.00", Percent("5", "0"))
	require.Equal(t, "0.00", Percent("x", "10"))
}

func TestNormalizePage(t *testing.T) {
	page, size := normalizePage(0, 500)
	require.Equal(t, 1, page)
	require.Equal(t, 10, size)

	page, size = normalizePage(3, 25)
	require.Equal(t, 3, page)
	require.Equal(t, 25, size)
}
