package engine

import (
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Revert decoding: a fixed table of known 4-byte selectors mapped to
// human-readable causes. Pure lookup, no state. Raw revert bytes are never
// surfaced to the user.

const (
	selErrorString = "08c379a0" // Error(string)
	selPanic       = "4e487b71" // Panic(uint256)
)

var customErrorSigs = map[string]string{
	"ERC20InsufficientAllowance(address,uint256,uint256)": "insufficient token allowance for the router",
	"ERC20InsufficientBalance(address,uint256,uint256)":   "transfer amount exceeds token balance",
	"ERC20InvalidReceiver(address)":                       "invalid receiver address",
	"ERC20InvalidSender(address)":                         "invalid sender address",
	"ERC20InvalidSpender(address)":                        "invalid spender address",
	"SafeERC20FailedOperation(address)":                   "token transfer operation failed",
}

// Solidity Panic(uint256) codes.
var panicCodes = map[uint64]string{
	0x01: "assertion failed",
	0x11: "arithmetic overflow or underflow",
	0x12: "division by zero",
	0x21: "invalid enum value",
	0x31: "pop on empty array",
	0x32: "array index out of bounds",
	0x41: "out of memory",
}

var customSelectors map[string]string

func init() {
	customSelectors = make(map[string]string, len(customErrorSigs))
	for sig, msg := range customErrorSigs {
		sel := crypto.Keccak256([]byte(sig))[:4]
		customSelectors[hex.EncodeToString(sel)] = msg
	}
}

// DecodeRevert maps ABI-encoded revert data to a one-line cause.
// Unrecognized selectors map to a generic message.
func DecodeRevert(data []byte) string {
	if len(data) < 4 {
		return "unknown contract error"
	}
	sel := hex.EncodeToString(data[:4])
	args := data[4:]

	switch sel {
	case selErrorString:
		if s := decodeRevertString(args); s != "" {
			return normalizeReason(s)
		}
		return "contract reverted without a reason"
	case selPanic:
		if len(args) >= 32 {
			code := new(big.Int).SetBytes(args[:32]).Uint64()
			if msg, ok := panicCodes[code]; ok {
				return msg
			}
		}
		return "contract panic"
	}
	if msg, ok := customSelectors[sel]; ok {
		return msg
	}
	return "unknown contract error"
}

// DecodeRPCError extracts revert data embedded in an RPC error string and
// decodes it; without embedded data it falls back to a trimmed message.
func DecodeRPCError(err error) string {
	if err == nil {
		return ""
	}
	s := err.Error()
	if i := strings.Index(s, "0x"); i >= 0 {
		hexPart := s[i+2:]
		if j := strings.IndexFunc(hexPart, notHexDigit); j >= 0 {
			hexPart = hexPart[:j]
		}
		if data, derr := hex.DecodeString(hexPart); derr == nil && len(data) >= 4 {
			return DecodeRevert(data)
		}
	}
	if i := strings.Index(s, "execution reverted"); i >= 0 {
		return normalizeReason(s[i:])
	}
	return s
}

// decodeRevertString unpacks the single string argument of Error(string):
// 32-byte offset, 32-byte length, then the bytes.
func decodeRevertString(args []byte) string {
	if len(args) < 64 {
		return ""
	}
	length := new(big.Int).SetBytes(args[32:64]).Uint64()
	if uint64(len(args)) < 64+length {
		return ""
	}
	return string(args[64 : 64+length])
}

// Legacy tokens revert with string reasons; map the common ones onto the
// same causes as the typed errors.
func normalizeReason(reason string) string {
	lr := strings.ToLower(reason)
	switch {
	case strings.Contains(lr, "insufficient allowance"):
		return "insufficient token allowance for the router"
	case strings.Contains(lr, "transfer amount exceeds balance"):
		return "transfer amount exceeds token balance"
	case strings.Contains(lr, "transfer to the zero address"):
		return "invalid receiver address"
	}
	return reason
}

func notHexDigit(r rune) bool {
	return !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F')
}
