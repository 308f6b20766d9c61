package engine

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMinReceiveBasisPoints(t *testing.T) {
	// 10% slippage on 1,000,000 leaves 900,000.
	min, err := MinReceive(big.NewInt(1000000), 1000)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(900000), min)

	// 0.5% on an 18-decimals amount, integer math only.
	agg, _ := new(big.Int).SetString("2000000000000000000", 10)
	min, err = MinReceive(agg, 50)
	require.NoError(t, err)
	expected, _ := new(big.Int).SetString("1990000000000000000", 10)
	require.Equal(t, expected, min)
}

func TestMinReceiveBounds(t *testing.T) {
	agg := big.NewInt(1000000)

	min, err := MinReceive(agg, 1)
	require.NoError(t, err)
	require.Equal(t, -1, min.Cmp(agg))
	require.Equal(t, 1, min.Sign())

	min, err = MinReceive(agg, 9999)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(100), min)
}

func TestMinReceiveRejectsInvalidSlippage(t *testing.T) {
	for _, bps := range []int64{0, -1, 10000, 20000} {
		_, err := MinReceive(big.NewInt(1000000), bps)
		require.Error(t, err, "bps %d", bps)
	}
}

func TestMinReceiveDustAggregate(t *testing.T) {
	_, err := MinReceive(nil, 1000)
	require.ErrorIs(t, err, ErrDustTooSmall)

	_, err = MinReceive(big.NewInt(0), 1000)
	require.ErrorIs(t, err, ErrDustTooSmall)

	// 1 * 9999/10000 rounds down to zero.
	_, err = MinReceive(big.NewInt(1), 9999)
	require.ErrorIs(t, err, ErrDustTooSmall)
}

func TestMinReceiveMonotonic(t *testing.T) {
	small, err := MinReceive(big.NewInt(1000000), 1000)
	require.NoError(t, err)
	large, err := MinReceive(big.NewInt(2000000), 1000)
	require.NoError(t, err)
	require.Equal(t, -1, small.Cmp(large))
}

func TestMinReceiveFromEstimateClamps(t *testing.T) {
	estimate := big.NewInt(1000000)

	// 5% slippage would leave 95%, above the 90% ceiling.
	min, err := MinReceiveFromEstimate(estimate, 500)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(900000), min)

	// 40% slippage would leave 60%, below the 70% floor.
	min, err = MinReceiveFromEstimate(estimate, 4000)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(700000), min)

	// 15% slippage leaves 85%, inside the band.
	min, err = MinReceiveFromEstimate(estimate, 1500)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(850000), min)
}
