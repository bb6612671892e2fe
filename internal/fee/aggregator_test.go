package fee

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestTallyAccumulates(t *testing.T) {
	token := common.HexToAddress("0x70")
	tally := NewTally(common.HexToAddress("0xfee"))

	require.NoError(t, tally.AddTokenFee(context.Background(), token, big.NewInt(5)))
	require.NoError(t, tally.AddTokenFee(context.Background(), token, big.NewInt(7)))

	require.Equal(t, int64(12), tally.Collected(token).Int64())
	require.Zero(t, tally.Collected(common.HexToAddress("0x71")).Sign())
}
