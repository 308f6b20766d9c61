package router

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"dustsweep/pkg/types"
)

const receiptPollInterval = 2 * time.Second

// Client is the on-chain backend: it talks to the dust router contract
// and to the dust tokens from a single connected account. It implements
// engine.ChainBackend. Only Approve and ExecuteBulkSwap mutate chain
// state, and the engine never calls them concurrently.
type Client struct {
	ec         *ethclient.Client
	routerAddr common.Address
	routerABI  abi.ABI
	erc20ABI   abi.ABI
	key        *ecdsa.PrivateKey
	account    common.Address
	chainID    *big.Int
	log        zerolog.Logger
}

// Dial connects to the RPC endpoint, parses the signing key, and resolves
// the connected chain id.
func Dial(ctx context.Context, rpcURL, routerAddress, privateKeyHex string, log zerolog.Logger) (*Client, error) {
	if !common.IsHexAddress(routerAddress) {
		return nil, fmt.Errorf("invalid router address: %s", routerAddress)
	}

	ec, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	chainID, err := ec.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}

	routerABI, err := abi.JSON(strings.NewReader(routerABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse router ABI: %w", err)
	}
	erc20ABI, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse ERC20 ABI: %w", err)
	}

	return &Client{
		ec:         ec,
		routerAddr: common.HexToAddress(routerAddress),
		routerABI:  routerABI,
		erc20ABI:   erc20ABI,
		key:        key,
		account:    crypto.PubkeyToAddress(key.PublicKey),
		chainID:    chainID,
		log:        log,
	}, nil
}

// Account returns the connected account address.
func (c *Client) Account() common.Address { return c.account }

// Router returns the router contract address.
func (c *Client) Router() common.Address { return c.routerAddr }

// ChainID returns the chain id resolved at dial time.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.chainID), nil
}

// RouterCode returns the contract code at the router address.
func (c *Client) RouterCode(ctx context.Context) ([]byte, error) {
	return c.ec.CodeAt(ctx, c.routerAddr, nil)
}

// Allowance reads allowance(account, router) on a token.
func (c *Client) Allowance(ctx context.Context, token common.Address) (*big.Int, error) {
	data, err := c.erc20ABI.Pack("allowance", c.account, c.routerAddr)
	if err != nil {
		return nil, fmt.Errorf("pack allowance: %w", err)
	}
	ret, err := callWithRetry(ctx, c.ec, c.log, ethereum.CallMsg{To: &token, Data: data})
	if err != nil {
		return nil, err
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("empty allowance response from %s", token.Hex())
	}
	return new(big.Int).SetBytes(ret), nil
}

// SubmitApproval signs and submits approve(router, amount) against a token
// and returns the transaction hash without waiting for a receipt.
func (c *Client) SubmitApproval(ctx context.Context, token common.Address, amount *big.Int) (common.Hash, error) {
	data, err := c.erc20ABI.Pack("approve", c.routerAddr, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack approve: %w", err)
	}
	tx, err := c.buildAndSign(ctx, token, data)
	if err != nil {
		return common.Hash{}, err
	}
	if err := c.ec.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, fmt.Errorf("send approval: %w", err)
	}
	c.log.Debug().Str("token", token.Hex()).Str("tx", tx.Hash().Hex()).Msg("approval submitted")
	return tx.Hash(), nil
}

// WaitMined polls for the transaction receipt. A reverted receipt is an
// error; receipt acceptance with status 1 is taken as success.
func (c *Client) WaitMined(ctx context.Context, txHash common.Hash) error {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.ec.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			if receipt.Status != gtypes.ReceiptStatusSuccessful {
				return fmt.Errorf("transaction %s reverted", txHash.Hex())
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SwapQuote calls getSwapQuote(token, amountIn) on the router.
func (c *Client) SwapQuote(ctx context.Context, token common.Address, amountIn *big.Int) (*big.Int, error) {
	data, err := c.routerABI.Pack("getSwapQuote", token, amountIn)
	if err != nil {
		return nil, fmt.Errorf("pack getSwapQuote: %w", err)
	}
	ret, err := callWithRetry(ctx, c.ec, c.log, ethereum.CallMsg{To: &c.routerAddr, Data: data})
	if err != nil {
		return nil, err
	}
	out, err := c.routerABI.Unpack("getSwapQuote", ret)
	if err != nil {
		return nil, fmt.Errorf("unpack getSwapQuote: %w", err)
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// BulkSwapQuote calls getBulkSwapQuote(tokens, amountsIn) on the router.
func (c *Client) BulkSwapQuote(ctx context.Context, tokens []common.Address, amounts []*big.Int) (*big.Int, []*big.Int, error) {
	data, err := c.routerABI.Pack("getBulkSwapQuote", tokens, amounts)
	if err != nil {
		return nil, nil, fmt.Errorf("pack getBulkSwapQuote: %w", err)
	}
	ret, err := callWithRetry(ctx, c.ec, c.log, ethereum.CallMsg{To: &c.routerAddr, Data: data})
	if err != nil {
		return nil, nil, err
	}
	out, err := c.routerABI.Unpack("getBulkSwapQuote", ret)
	if err != nil {
		return nil, nil, fmt.Errorf("unpack getBulkSwapQuote: %w", err)
	}
	total := abi.ConvertType(out[0], new(big.Int)).(*big.Int)
	perToken := abi.ConvertType(out[1], new([]*big.Int)).(*[]*big.Int)
	return total, *perToken, nil
}

// EstimateBulkSwap dry-runs executeBulkSwap from the connected account.
func (c *Client) EstimateBulkSwap(ctx context.Context, params types.SwapParameters) (uint64, error) {
	data, err := c.routerABI.Pack("executeBulkSwap", params.Addresses, params.Amounts, params.MinReceive)
	if err != nil {
		return 0, fmt.Errorf("pack executeBulkSwap: %w", err)
	}
	return estimateGasWithRetry(ctx, c.ec, c.log, ethereum.CallMsg{
		From: c.account,
		To:   &c.routerAddr,
		Data: data,
	})
}

// ExecuteBulkSwap signs and submits executeBulkSwap and returns the
// transaction hash as soon as the node accepts it.
func (c *Client) ExecuteBulkSwap(ctx context.Context, params types.SwapParameters) (common.Hash, error) {
	data, err := c.routerABI.Pack("executeBulkSwap", params.Addresses, params.Amounts, params.MinReceive)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack executeBulkSwap: %w", err)
	}
	tx, err := c.buildAndSign(ctx, c.routerAddr, data)
	if err != nil {
		return common.Hash{}, err
	}
	if err := c.ec.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, fmt.Errorf("send bulk swap: %w", err)
	}
	c.log.Debug().Str("tx", tx.Hash().Hex()).Int("tokens", len(params.Addresses)).Msg("bulk swap submitted")
	return tx.Hash(), nil
}

// buildAndSign assembles a legacy transaction to the target with the
// pending nonce, a suggested gas price, and an estimated gas limit with a
// 20% buffer.
func (c *Client) buildAndSign(ctx context.Context, to common.Address, data []byte) (*gtypes.Transaction, error) {
	nonce, err := c.ec.PendingNonceAt(ctx, c.account)
	if err != nil {
		return nil, fmt.Errorf("get nonce: %w", err)
	}
	gasPrice, err := c.ec.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("get gas price: %w", err)
	}
	gasLimit, err := estimateGasWithRetry(ctx, c.ec, c.log, ethereum.CallMsg{
		From: c.account,
		To:   &to,
		Data: data,
	})
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}
	gasLimit = gasLimit * 120 / 100

	tx := gtypes.NewTransaction(nonce, to, big.NewInt(0), gasLimit, gasPrice, data)
	signed, err := gtypes.SignTx(tx, gtypes.NewEIP155Signer(c.chainID), c.key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return signed, nil
}

// TokenSymbol reads symbol() on a token; unnamed tokens fall back to a
// short address form.
func (c *Client) TokenSymbol(ctx context.Context, token common.Address) string {
	data, err := c.erc20ABI.Pack("symbol")
	if err != nil {
		return shortAddr(token)
	}
	ret, err := callWithRetry(ctx, c.ec, c.log, ethereum.CallMsg{To: &token, Data: data})
	if err != nil || len(ret) == 0 {
		return shortAddr(token)
	}
	out, err := c.erc20ABI.Unpack("symbol", ret)
	if err != nil || len(out) == 0 {
		return shortAddr(token)
	}
	if s, ok := out[0].(string); ok && s != "" {
		return s
	}
	return shortAddr(token)
}

// TokenDecimals reads decimals() on a token, defaulting to 18.
func (c *Client) TokenDecimals(ctx context.Context, token common.Address) uint8 {
	data, err := c.erc20ABI.Pack("decimals")
	if err != nil {
		return 18
	}
	ret, err := callWithRetry(ctx, c.ec, c.log, ethereum.CallMsg{To: &token, Data: data})
	if err != nil || len(ret) == 0 {
		return 18
	}
	out, err := c.erc20ABI.Unpack("decimals", ret)
	if err != nil || len(out) == 0 {
		return 18
	}
	if d, ok := out[0].(uint8); ok {
		return d
	}
	return 18
}

// TokenBalance reads balanceOf(account) on a token.
func (c *Client) TokenBalance(ctx context.Context, token common.Address) (*big.Int, error) {
	data, err := c.erc20ABI.Pack("balanceOf", c.account)
	if err != nil {
		return nil, fmt.Errorf("pack balanceOf: %w", err)
	}
	ret, err := callWithRetry(ctx, c.ec, c.log, ethereum.CallMsg{To: &token, Data: data})
	if err != nil {
		return nil, err
	}
	if len(ret) == 0 {
		return big.NewInt(0), nil
	}
	return new(big.Int).SetBytes(ret), nil
}

// Receipt returns the receipt for a submitted transaction, or nil while
// it is still pending.
func (c *Client) Receipt(ctx context.Context, txHash common.Hash) (*gtypes.Receipt, error) {
	receipt, err := c.ec.TransactionReceipt(ctx, txHash)
	if err != nil {
		if err == ethereum.NotFound {
			return nil, nil
		}
		return nil, err
	}
	return receipt, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	if c.ec != nil {
		c.ec.Close()
	}
}

func shortAddr(a common.Address) string {
	h := a.Hex()
	return h[:6] + "…" + h[len(h)-4:]
}
