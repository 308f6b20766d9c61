package parser

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"dustsweep/pkg/types"
)

// Selection describes which dust tokens a sweep should cover.
type Selection struct {
	All       bool
	TopN      int
	UnderUSD  float64
	Addresses []common.Address
}

// ParseSelection parses the sweep command's selection expression.
// Examples:
//   - "all"
//   - "top 5"
//   - "under 2.50"
//   - "0xabc... 0xdef..." (explicit token addresses)
func ParseSelection(args []string) (*Selection, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("selection is required. Expected: 'all', 'top <n>', 'under <usd>', or token addresses")
	}

	switch strings.ToLower(args[0]) {
	case "all":
		if len(args) != 1 {
			return nil, fmt.Errorf("'all' takes no further arguments")
		}
		return &Selection{All: true}, nil

	case "top":
		if len(args) != 2 {
			return nil, fmt.Errorf("expected: top <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid count %q: expected a positive integer", args[1])
		}
		return &Selection{TopN: n}, nil

	case "under":
		if len(args) != 2 {
			return nil, fmt.Errorf("expected: under <usd>")
		}
		usd, err := strconv.ParseFloat(args[1], 64)
		if err != nil || usd <= 0 {
			return nil, fmt.Errorf("invalid USD amount %q", args[1])
		}
		return &Selection{UnderUSD: usd}, nil
	}

	// Otherwise every argument must be a token address.
	addrs := make([]common.Address, 0, len(args))
	for _, arg := range args {
		if !common.IsHexAddress(arg) {
			return nil, fmt.Errorf("invalid token address: %s", arg)
		}
		addrs = append(addrs, common.HexToAddress(arg))
	}
	return &Selection{Addresses: addrs}, nil
}

// Apply resolves the selection against a snapshot and returns the ordered
// address list the plan builder consumes. Snapshot order is preserved for
// the filter forms; explicit addresses keep their given order.
func (s *Selection) Apply(snapshot []types.TokenRecord) ([]common.Address, error) {
	switch {
	case s.All:
		return recordAddresses(snapshot), nil

	case s.TopN > 0:
		sorted := make([]types.TokenRecord, len(snapshot))
		copy(sorted, snapshot)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].USDValue > sorted[j].USDValue
		})
		if len(sorted) > s.TopN {
			sorted = sorted[:s.TopN]
		}
		return recordAddresses(sorted), nil

	case s.UnderUSD > 0:
		var picked []types.TokenRecord
		for _, rec := range snapshot {
			if rec.USDValue < s.UnderUSD {
				picked = append(picked, rec)
			}
		}
		return recordAddresses(picked), nil
	}

	if len(s.Addresses) == 0 {
		return nil, fmt.Errorf("empty selection")
	}
	return s.Addresses, nil
}

func recordAddresses(records []types.TokenRecord) []common.Address {
	out := make([]common.Address, len(records))
	for i, rec := range records {
		out[i] = rec.Address
	}
	return out
}
