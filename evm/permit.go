package evm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"

	"github.com/openweb3-io/pkpkit/types"
)

// PermitArgs describe an ERC-2612 permit: a gasless approval the token
// contract verifies on-chain against the owner's EIP-712 signature.
type PermitArgs struct {
	// Token contract granting the allowance.
	Token string `json:"token"`
	// TokenName as registered in the contract's EIP-712 domain.
	TokenName string `json:"tokenName"`
	// TokenVersion of the domain, almost always "1".
	TokenVersion string `json:"tokenVersion,omitempty"`

	Owner   string        `json:"owner"`
	Spender string        `json:"spender"`
	Value   *types.BigInt `json:"value"`
	// Nonce is the owner's current permit nonce from nonces(owner).
	Nonce uint64 `json:"nonce"`
	// Deadline is a unix timestamp after which the permit is void.
	Deadline uint64 `json:"deadline"`
}

// PermitTypedData builds the EIP-712 structured data for an ERC-2612
// permit on the given chain.
func PermitTypedData(chainID *big.Int, args *PermitArgs) (apitypes.TypedData, error) {
	var empty apitypes.TypedData

	for name, addr := range map[string]string{
		"token":   args.Token,
		"owner":   args.Owner,
		"spender": args.Spender,
	} {
		if !common.IsHexAddress(addr) {
			return empty, errors.Errorf("%s is not a valid %s address", addr, name)
		}
	}
	if args.Value == nil {
		return empty, errors.New("permit value is required")
	}
	version := args.TokenVersion
	if version == "" {
		version = "1"
	}

	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"Permit": {
				{Name: "owner", Type: "address"},
				{Name: "spender", Type: "address"},
				{Name: "value", Type: "uint256"},
				{Name: "nonce", Type: "uint256"},
				{Name: "deadline", Type: "uint256"},
			},
		},
		PrimaryType: "Permit",
		Domain: apitypes.TypedDataDomain{
			Name:              args.TokenName,
			Version:           version,
			ChainId:           (*math.HexOrDecimal256)(chainID),
			VerifyingContract: common.HexToAddress(args.Token).Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"owner":    common.HexToAddress(args.Owner).Hex(),
			"spender":  common.HexToAddress(args.Spender).Hex(),
			"value":    (*math.HexOrDecimal256)(args.Value.Int()),
			"nonce":    (*math.HexOrDecimal256)(new(big.Int).SetUint64(args.Nonce)),
			"deadline": (*math.HexOrDecimal256)(new(big.Int).SetUint64(args.Deadline)),
		},
	}, nil
}
