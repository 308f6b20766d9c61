package router

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
)

// Bounded retry with a small fixed backoff for RPC reads and estimates.
// This is the only retry in the system: the pipeline above never retries
// anything. Backoff doubles on rate-limit responses.

const (
	maxAttempts  = 3
	retryBackoff = 200 * time.Millisecond
)

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "Too Many Requests") || strings.Contains(s, "-32005")
}

func callWithRetry(ctx context.Context, ec *ethclient.Client, log zerolog.Logger, msg ethereum.CallMsg) ([]byte, error) {
	backoff := retryBackoff
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ret, err := ec.CallContract(ctx, msg, nil)
		if err == nil {
			return ret, nil
		}
		lastErr = err
		log.Debug().Err(err).Int("attempt", attempt).Msg("eth_call failed")
		if attempt < maxAttempts {
			time.Sleep(backoff)
			if isRateLimitError(err) {
				backoff *= 2
			}
		}
	}
	return nil, lastErr
}

func estimateGasWithRetry(ctx context.Context, ec *ethclient.Client, log zerolog.Logger, msg ethereum.CallMsg) (uint64, error) {
	backoff := retryBackoff
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		g, err := ec.EstimateGas(ctx, msg)
		if err == nil {
			return g, nil
		}
		lastErr = err
		log.Debug().Err(err).Int("attempt", attempt).Msg("eth_estimateGas failed")
		if attempt < maxAttempts {
			time.Sleep(backoff)
			if isRateLimitError(err) {
				backoff *= 2
			}
		}
	}
	return 0, lastErr
}
