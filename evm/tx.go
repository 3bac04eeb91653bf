package evm

import (
	"bytes"
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/openweb3-io/pkpkit/types"
)

// RPCClient is the part of ethclient.Client transaction assembly needs.
type RPCClient interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
}

// TxArgs are the caller-supplied inputs for a transaction signature.
// Nonce, gas limit and gas price are fetched from the chain when omitted.
type TxArgs struct {
	To    string        `json:"to"`
	Value *types.BigInt `json:"value,omitempty"`
	Data  []byte        `json:"data,omitempty"`
	Nonce *uint64       `json:"nonce,omitempty"`
	Gas   uint64        `json:"gas,omitempty"`

	GasPrice             *types.BigInt `json:"gasPrice,omitempty"`
	MaxFeePerGas         *types.BigInt `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *types.BigInt `json:"maxPriorityFeePerGas,omitempty"`
}

func (args *TxArgs) isDynamicFeeTx() bool {
	return args.MaxFeePerGas != nil && args.MaxPriorityFeePerGas != nil
}

// UnsignedTx is an assembled transaction awaiting its signature.
type UnsignedTx struct {
	Tx     *ethtypes.Transaction
	Signer ethtypes.Signer
	From   common.Address
}

// Digest is the sighash handed to the signing network.
func (u *UnsignedTx) Digest() []byte {
	return u.Signer.Hash(u.Tx).Bytes()
}

// WithSignature attaches a 65-byte signature, accepting either 0/1 or
// 27/28 recovery ids, and returns the signed transaction.
func (u *UnsignedTx) WithSignature(sig []byte) (*ethtypes.Transaction, error) {
	if len(sig) != 65 {
		return nil, errors.Errorf("expected 65-byte signature, got %d bytes", len(sig))
	}
	norm := bytes.Clone(sig)
	if norm[64] >= 27 {
		norm[64] -= 27
	}
	signed, err := u.Tx.WithSignature(u.Signer, norm)
	if err != nil {
		return nil, errors.Wrap(err, "error attaching signature")
	}
	return signed, nil
}

// BuildTx assembles an unsigned transaction from caller args, filling
// nonce, gas limit and fee fields from the chain where absent.
func BuildTx(ctx context.Context, client RPCClient, chainID *big.Int, from common.Address, args *TxArgs) (*UnsignedTx, error) {
	mixedTo, err := common.NewMixedcaseAddressFromString(args.To)
	if err != nil {
		return nil, errors.Errorf("%s is not a valid address", args.To)
	}
	to := mixedTo.Address()

	var value *big.Int
	if args.Value != nil {
		value = args.Value.Int()
	}

	var nonce uint64
	if args.Nonce != nil {
		nonce = *args.Nonce
	} else {
		nonce, err = client.PendingNonceAt(ctx, from)
		if err != nil {
			return nil, errors.Wrap(err, "failed to get nonce")
		}
	}

	var gasPrice *big.Int
	if args.GasPrice != nil {
		gasPrice = args.GasPrice.Int()
	}
	// GasPrice should be estimated only for LegacyTx
	if !args.isDynamicFeeTx() && gasPrice == nil {
		gasPrice, err = client.SuggestGasPrice(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to suggest gas price")
		}
	}

	gas := args.Gas
	if gas == 0 {
		msg := ethereum.CallMsg{
			From:  from,
			To:    &to,
			Value: value,
			Data:  args.Data,
		}
		if args.isDynamicFeeTx() {
			msg.GasFeeCap = args.MaxFeePerGas.Int()
			msg.GasTipCap = args.MaxPriorityFeePerGas.Int()
		} else {
			msg.GasPrice = gasPrice
		}
		gas, err = client.EstimateGas(ctx, msg)
		if err != nil {
			return nil, errors.Wrap(err, "failed to estimate gas")
		}
	}

	var txData ethtypes.TxData
	if args.isDynamicFeeTx() {
		txData = &ethtypes.DynamicFeeTx{
			ChainID:   chainID,
			Nonce:     nonce,
			Gas:       gas,
			GasTipCap: args.MaxPriorityFeePerGas.Int(),
			GasFeeCap: args.MaxFeePerGas.Int(),
			To:        &to,
			Value:     value,
			Data:      args.Data,
		}
	} else {
		txData = &ethtypes.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      gas,
			To:       &to,
			Value:    value,
			Data:     args.Data,
		}
	}

	tx := ethtypes.NewTx(txData)
	zap.S().Infow("new transaction",
		"from", from.String(),
		"to", to.String(),
		"nonce", nonce,
		"gas", gas,
		"chainId", chainID.String(),
	)

	return &UnsignedTx{
		Tx:     tx,
		Signer: ethtypes.NewLondonSigner(chainID),
		From:   from,
	}, nil
}
