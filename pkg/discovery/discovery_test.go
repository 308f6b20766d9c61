package discovery

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"dustsweep/pkg/types"
)

type fakeReader struct {
	balances map[common.Address]*big.Int
	quotes   map[common.Address]*big.Int
	balErr   error
}

func (f *fakeReader) TokenSymbol(ctx context.Context, token common.Address) string {
	return "TK" + token.Hex()[40:]
}

func (f *fakeReader) TokenDecimals(ctx context.Context, token common.Address) uint8 {
	return 18
}

func (f *fakeReader) TokenBalance(ctx context.Context, token common.Address) (*big.Int, error) {
	if f.balErr != nil {
		return nil, f.balErr
	}
	if b, ok := f.balances[token]; ok {
		return b, nil
	}
	return big.NewInt(0), nil
}

func (f *fakeReader) SwapQuote(ctx context.Context, token common.Address, amountIn *big.Int) (*big.Int, error) {
	if q, ok := f.quotes[token]; ok {
		return q, nil
	}
	return nil, errors.New("no liquidity")
}

var (
	dustToken = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	richToken = common.HexToAddress("0x00000000000000000000000000000000000000d2")
	zeroToken = common.HexToAddress("0x00000000000000000000000000000000000000d3")
)

func testService(r *fakeReader) *Service {
	return New(r, Config{
		Tokens:           []common.Address{dustToken, richToken, zeroToken},
		DustUSDThreshold: 5.0,
		TargetDecimals:   6,
		TargetUSDPrice:   1.0,
	})
}

func TestScanSkipsZeroBalances(t *testing.T) {
	reader := &fakeReader{
		balances: map[common.Address]*big.Int{
			dustToken: big.NewInt(1000000),
			richToken: big.NewInt(2000000),
		},
		quotes: map[common.Address]*big.Int{
			dustToken: big.NewInt(1500000),  // ~$1.50 in 6-decimals target units
			richToken: big.NewInt(42000000), // ~$42.00
		},
	}

	records, err := testService(reader).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Equal(t, dustToken, records[0].Address)
	require.Equal(t, "1000000", records[0].Balance)
	require.InDelta(t, 1.50, records[0].USDValue, 0.001)
	require.Equal(t, types.ProvenanceConfig, records[0].Provenance)
	require.InDelta(t, 42.0, records[1].USDValue, 0.001)
}

func TestScanPropagatesBalanceErrors(t *testing.T) {
	reader := &fakeReader{balErr: errors.New("rpc down")}
	_, err := testService(reader).Scan(context.Background())
	require.Error(t, err)
}

func TestScanUnquotableTokenGetsZeroValue(t *testing.T) {
	reader := &fakeReader{
		balances: map[common.Address]*big.Int{dustToken: big.NewInt(777)},
	}
	records, err := testService(reader).Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 0.0, records[0].USDValue)
}

func TestScanAddressesTagsManual(t *testing.T) {
	extra := common.HexToAddress("0x00000000000000000000000000000000000000ee")
	reader := &fakeReader{
		balances: map[common.Address]*big.Int{extra: big.NewInt(5)},
	}
	records, err := testService(reader).ScanAddresses(context.Background(), []common.Address{extra})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, types.ProvenanceManual, records[0].Provenance)
}

func TestDustFiltersByThreshold(t *testing.T) {
	svc := testService(&fakeReader{})
	records := []types.TokenRecord{
		{Address: dustToken, USDValue: 1.50},
		{Address: richToken, USDValue: 42.0},
		{Address: zeroToken, USDValue: 4.99},
	}
	dust := svc.Dust(records)
	require.Len(t, dust, 2)
	require.Equal(t, dustToken, dust[0].Address)
	require.Equal(t, zeroToken, dust[1].Address)
}
