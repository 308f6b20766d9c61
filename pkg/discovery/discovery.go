package discovery

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"dustsweep/pkg/types"
)

// TokenReader is the read-only chain surface discovery needs. Implemented
// by the router client.
type TokenReader interface {
	TokenSymbol(ctx context.Context, token common.Address) string
	TokenDecimals(ctx context.Context, token common.Address) uint8
	TokenBalance(ctx context.Context, token common.Address) (*big.Int, error)
	SwapQuote(ctx context.Context, token common.Address, amountIn *big.Int) (*big.Int, error)
}

// Config controls the scan.
type Config struct {
	// Tokens is the candidate list from configuration.
	Tokens []common.Address
	// DustUSDThreshold marks balances below this estimated value as dust.
	DustUSDThreshold float64
	// TargetDecimals and TargetUSDPrice describe the consolidation target
	// asset, used to turn router quotes into USD estimates.
	TargetDecimals uint8
	TargetUSDPrice float64
}

// Service builds TokenRecord snapshots from on-chain balance reads over
// the configured candidate list. The snapshot is a point-in-time read:
// consumers trust the balances as of scan time.
type Service struct {
	reader TokenReader
	cfg    Config
}

// New wires a discovery service.
func New(reader TokenReader, cfg Config) *Service {
	return &Service{reader: reader, cfg: cfg}
}

// Scan reads every configured candidate and returns records for those
// with a non-zero balance.
func (s *Service) Scan(ctx context.Context) ([]types.TokenRecord, error) {
	return s.scan(ctx, s.cfg.Tokens, types.ProvenanceConfig)
}

// ScanAddresses reads explicitly supplied token addresses, tagging them
// as manual additions.
func (s *Service) ScanAddresses(ctx context.Context, addrs []common.Address) ([]types.TokenRecord, error) {
	return s.scan(ctx, addrs, types.ProvenanceManual)
}

func (s *Service) scan(ctx context.Context, addrs []common.Address, provenance types.Provenance) ([]types.TokenRecord, error) {
	records := make([]types.TokenRecord, 0, len(addrs))
	for _, addr := range addrs {
		balance, err := s.reader.TokenBalance(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("balance of %s: %w", addr.Hex(), err)
		}
		if balance.Sign() == 0 {
			continue
		}
		records = append(records, types.TokenRecord{
			Address:    addr,
			Symbol:     s.reader.TokenSymbol(ctx, addr),
			Decimals:   s.reader.TokenDecimals(ctx, addr),
			Balance:    balance.String(),
			USDValue:   s.estimateUSD(ctx, addr, balance),
			Provenance: provenance,
		})
	}
	return records, nil
}

// estimateUSD prices a balance through the router quote into the target
// asset, then applies the configured target USD price. A failed or zero
// quote yields 0 — the value estimate is advisory, not a gate.
func (s *Service) estimateUSD(ctx context.Context, token common.Address, balance *big.Int) float64 {
	quote, err := s.reader.SwapQuote(ctx, token, balance)
	if err != nil || quote == nil || quote.Sign() == 0 {
		return 0
	}
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(s.cfg.TargetDecimals)), nil))
	units, _ := new(big.Float).Quo(new(big.Float).SetInt(quote), scale).Float64()
	return units * s.cfg.TargetUSDPrice
}

// Dust filters a snapshot down to balances under the USD threshold.
func (s *Service) Dust(records []types.TokenRecord) []types.TokenRecord {
	out := make([]types.TokenRecord, 0, len(records))
	for _, rec := range records {
		if rec.USDValue < s.cfg.DustUSDThreshold {
			out = append(out, rec)
		}
	}
	return out
}
