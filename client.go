package pkpkit

import (
	"context"

	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/openweb3-io/pkpkit/auth"
	"github.com/openweb3-io/pkpkit/evm"
	"github.com/openweb3-io/pkpkit/lit"
	"github.com/openweb3-io/pkpkit/types"
)

type IClient interface {
	/**
	 * establish the network binding, resolve the master credential and
	 * open the identity store
	 */
	Init(ctx context.Context) error

	Close() error

	/**
	 * issue a key for a user, or return the existing binding
	 */
	IssueKey(ctx context.Context, user *types.UserInfo) (*types.Binding, error)

	/**
	 * look up a user's key binding
	 */
	GetBinding(userID string) (*types.Binding, error)

	/**
	 * sign an EIP-191 personal message with the user's key
	 */
	SignMessage(ctx context.Context, userID string, msg []byte, chain string) ([]byte, error)

	/**
	 * sign EIP-712 structured data with the user's key
	 */
	SignTypedData(ctx context.Context, userID string, td apitypes.TypedData, chain string) ([]byte, error)

	/**
	 * sign an ERC-2612 permit with the user's key
	 */
	SignPermit(ctx context.Context, userID string, args *evm.PermitArgs, chain string) ([]byte, error)

	/**
	 * assemble and sign a transaction with the user's key
	 */
	SignTransaction(ctx context.Context, userID string, args *evm.TxArgs, chain string) (*ethtypes.Transaction, error)
}

// IssuanceAuthorizer produces the authorization a key-minting request
// carries. The default signs a minting grant with the master credential;
// substituting it allows stronger schemes (multi-party approval) without
// touching the signing path.
type IssuanceAuthorizer interface {
	AuthorizeMint(ctx context.Context) (*auth.AuthSig, error)
}

// NetworkClient is the slice of the lit binding the SDK drives. It exists
// so tests can substitute a fake network.
type NetworkClient interface {
	MintPKP(ctx context.Context, req *lit.MintRequest) (*types.PKP, error)
	HandshakeSessionSigs(ctx context.Context, req *lit.SessionRequest) (lit.SessionSigs, error)
	SignWithSession(ctx context.Context, req *lit.SignRequest) ([]byte, error)
	RegistryChainID() uint64
}

var _ NetworkClient = &lit.Client{}
