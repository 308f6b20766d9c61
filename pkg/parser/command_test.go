package parser

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"dustsweep/pkg/types"
)

func rec(addr string, usd float64) types.TokenRecord {
	return types.TokenRecord{Address: common.HexToAddress(addr), USDValue: usd}
}

func TestParseSelectionForms(t *testing.T) {
	sel, err := ParseSelection([]string{"all"})
	require.NoError(t, err)
	require.True(t, sel.All)

	sel, err = ParseSelection([]string{"top", "5"})
	require.NoError(t, err)
	require.Equal(t, 5, sel.TopN)

	sel, err = ParseSelection([]string{"under", "2.50"})
	require.NoError(t, err)
	require.Equal(t, 2.50, sel.UnderUSD)

	sel, err = ParseSelection([]string{
		"0x00000000000000000000000000000000000000aa",
		"0x00000000000000000000000000000000000000bb",
	})
	require.NoError(t, err)
	require.Len(t, sel.Addresses, 2)
}

func TestParseSelectionErrors(t *testing.T) {
	cases := [][]string{
		{},
		{"all", "extra"},
		{"top"},
		{"top", "zero"},
		{"top", "-1"},
		{"under"},
		{"under", "abc"},
		{"under", "-5"},
		{"0x123"},
		{"0x00000000000000000000000000000000000000aa", "notanaddress"},
	}
	for _, args := range cases {
		_, err := ParseSelection(args)
		require.Error(t, err, "args %v", args)
	}
}

func TestApplyAll(t *testing.T) {
	snapshot := []types.TokenRecord{
		rec("0x00000000000000000000000000000000000000aa", 1),
		rec("0x00000000000000000000000000000000000000bb", 2),
	}
	addrs, err := (&Selection{All: true}).Apply(snapshot)
	require.NoError(t, err)
	require.Len(t, addrs, 2)
	require.Equal(t, snapshot[0].Address, addrs[0])
	require.Equal(t, snapshot[1].Address, addrs[1])
}

func TestApplyTopSortsByValue(t *testing.T) {
	snapshot := []types.TokenRecord{
		rec("0x00000000000000000000000000000000000000aa", 0.50),
		rec("0x00000000000000000000000000000000000000bb", 4.20),
		rec("0x00000000000000000000000000000000000000cc", 1.75),
	}
	addrs, err := (&Selection{TopN: 2}).Apply(snapshot)
	require.NoError(t, err)
	require.Equal(t, []common.Address{snapshot[1].Address, snapshot[2].Address}, addrs)

	// A count past the end takes everything.
	addrs, err = (&Selection{TopN: 10}).Apply(snapshot)
	require.NoError(t, err)
	require.Len(t, addrs, 3)
}

func TestApplyUnderFilters(t *testing.T) {
	snapshot := []types.TokenRecord{
		rec("0x00000000000000000000000000000000000000aa", 0.50),
		rec("0x00000000000000000000000000000000000000bb", 4.20),
		rec("0x00000000000000000000000000000000000000cc", 1.75),
	}
	addrs, err := (&Selection{UnderUSD: 2.0}).Apply(snapshot)
	require.NoError(t, err)
	require.Equal(t, []common.Address{snapshot[0].Address, snapshot[2].Address}, addrs)
}

func TestApplyExplicitAddressesKeepOrder(t *testing.T) {
	a := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	b := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	addrs, err := (&Selection{Addresses: []common.Address{b, a}}).Apply(nil)
	require.NoError(t, err)
	require.Equal(t, []common.Address{b, a}, addrs)

	_, err = (&Selection{}).Apply(nil)
	require.Error(t, err)
}
