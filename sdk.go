package pkpkit

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/openweb3-io/pkpkit/auth"
	"github.com/openweb3-io/pkpkit/chains"
	"github.com/openweb3-io/pkpkit/evm"
	"github.com/openweb3-io/pkpkit/lit"
	"github.com/openweb3-io/pkpkit/signer"
	"github.com/openweb3-io/pkpkit/store"
	"github.com/openweb3-io/pkpkit/types"
)

// SDK issues per-user keys through the network and signs on their behalf.
// One SDK instance shares a single network binding and master credential
// for the process lifetime; signing operations are safe to run in
// parallel once a user's binding exists.
type SDK struct {
	cfg  Config
	opts sdkOptions

	mu          sync.Mutex
	initialized bool
	master      *signer.LocalSigner
	network     NetworkClient
	authorizer  IssuanceAuthorizer
	store       store.Store
	log         *zap.SugaredLogger
}

// masterAuthorizer is the default issuance policy: a minting grant over
// any key, signed by the master credential alone.
type masterAuthorizer struct {
	signer  signer.Signer
	address common.Address
	domain  string
	chainID uint64
}

func (a *masterAuthorizer) AuthorizeMint(ctx context.Context) (*auth.AuthSig, error) {
	return auth.NewAuthSig(ctx, a.signer, a.address, &auth.SigParams{
		Domain:  a.domain,
		URI:     "lit:pkp:mint",
		ChainID: a.chainID,
		Grants: []auth.Grant{
			{Resource: auth.PKPResource("*"), Ability: auth.AbilityPKPMinting},
		},
	})
}

var _ IClient = &SDK{}

// New validates the configuration. Construction performs no network
// activity; that happens in Init.
func New(cfg *Config, o ...Option) (*SDK, error) {
	opts := sdkOptions{}
	for _, opt := range o {
		opt(&opts)
	}

	if cfg.Credential == "" {
		return nil, types.ErrMissingCredential
	}
	if opts.network == nil && !cfg.Network.Valid() {
		return nil, types.WrapErrDetails(types.ErrUnknownNetwork, nil, map[string]any{
			"network": string(cfg.Network),
		})
	}
	if cfg.Domain == "" {
		cfg.Domain = "pkpkit"
	}
	if opts.provider == nil {
		opts.provider = signer.NewCredentialProvider()
	}
	if opts.dialer == nil {
		opts.dialer = defaultDialer
	}

	return &SDK{
		cfg:  *cfg,
		opts: opts,
		log:  zap.S().With("network", string(cfg.Network)),
	}, nil
}

func defaultStorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "cannot locate home directory for store")
	}
	return filepath.Join(home, ".pkpkit", "bindings.json"), nil
}

// Init resolves the master credential, constructs the network binding and
// opens the identity store. It is called once; the resulting state lives
// for the process lifetime and is not re-established on failure.
func (s *SDK) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}

	key, err := s.opts.provider.Load(ctx, s.cfg.Credential)
	if err != nil {
		return err
	}
	s.master = signer.NewLocalSigner(key)

	s.network = s.opts.network
	if s.network == nil {
		client, err := lit.NewClient(s.cfg.Network, s.cfg.RelayAPIKey, s.opts.litOptions...)
		if err != nil {
			return err
		}
		s.network = client
	}

	s.authorizer = s.opts.authorizer
	if s.authorizer == nil {
		s.authorizer = &masterAuthorizer{
			signer:  s.master,
			address: s.master.Address(),
			domain:  s.cfg.Domain,
			chainID: s.network.RegistryChainID(),
		}
	}

	s.store = s.opts.store
	if s.store == nil {
		path := s.cfg.StorePath
		if path == "" {
			path, err = defaultStorePath()
			if err != nil {
				return err
			}
		}
		fileStore, err := store.NewFileStore(path)
		if err != nil {
			return err
		}
		s.store = fileStore
	}

	s.initialized = true
	s.log.Infow("initialized", "master", s.master.Address().Hex())
	return nil
}

func (s *SDK) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return nil
	}
	s.initialized = false
	return s.store.Close()
}

func (s *SDK) ready() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return types.ErrNotInitialized
	}
	return nil
}

// GetBinding looks up a user's key binding by exact id match.
func (s *SDK) GetBinding(userID string) (*types.Binding, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	binding, err := s.store.Get(userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, types.WrapErrDetails(types.ErrUserNotFound, nil, map[string]any{"user": userID})
	}
	if err != nil {
		return nil, err
	}
	return binding, nil
}

// IssueKey returns the user's existing binding, or mints a new key via the
// relay with the master credential as sole authorizer and persists it.
// Issuing twice for the same id returns the same key record both times.
func (s *SDK) IssueKey(ctx context.Context, user *types.UserInfo) (*types.Binding, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if user == nil || user.ID == "" {
		return nil, errors.New("user id is required")
	}

	if binding, err := s.store.Get(user.ID); err == nil {
		return binding, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	authSig, err := s.authorizer.AuthorizeMint(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "issuance not authorized")
	}

	pkp, err := s.network.MintPKP(ctx, &lit.MintRequest{AuthSig: authSig})
	if err != nil {
		return nil, err
	}

	binding := &types.Binding{
		User:      *user,
		PKP:       *pkp,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Put(binding); err != nil {
		if errors.Is(err, store.ErrExists) {
			// a concurrent issuance won the race; its key is the user's key,
			// ours is orphaned on the network
			s.log.Warnw("concurrent issuance raced, keeping stored binding",
				"user", user.ID, "orphanedTokenId", pkp.TokenID)
			return s.store.Get(user.ID)
		}
		// the key exists externally with no local record
		return nil, errors.Wrapf(err,
			"key %s minted for user %s but binding not persisted, manual reconciliation required",
			pkp.TokenID, user.ID)
	}
	s.log.Infow("issued key", "user", user.ID, "tokenId", pkp.TokenID, "address", pkp.Address)
	return binding, nil
}

// sessionSign mints a fresh session scoped to the user's key and forwards
// one digest for signing. Sessions are never reused across calls.
func (s *SDK) sessionSign(ctx context.Context, binding *types.Binding, digest []byte, kind types.SignatureKind) ([]byte, error) {
	sessionKey, authSig, err := auth.NewSessionAuthSig(ctx, s.master, s.master.Address(), &auth.SigParams{
		Domain:  s.cfg.Domain,
		ChainID: s.network.RegistryChainID(),
		Grants: []auth.Grant{
			{Resource: auth.PKPResource(string(binding.PKP.TokenID)), Ability: auth.AbilityPKPSigning},
		},
	})
	if err != nil {
		return nil, err
	}

	sessionSigs, err := s.network.HandshakeSessionSigs(ctx, &lit.SessionRequest{
		SessionKey:   sessionKey,
		AuthSig:      authSig,
		PKPPublicKey: binding.PKP.PublicKey,
		Expiration:   time.Now().UTC().Add(auth.DefaultSessionDuration),
	})
	if err != nil {
		return nil, err
	}

	return s.network.SignWithSession(ctx, &lit.SignRequest{
		PKPPublicKey: binding.PKP.PublicKey,
		Digest:       digest,
		Kind:         kind,
		SessionSigs:  sessionSigs,
	})
}

// describeAndLookup resolves the chain then the user binding, failing
// before any network contact when either is unknown.
func (s *SDK) describeAndLookup(userID, chain string) (*chains.ChainConfig, *types.Binding, error) {
	if err := s.ready(); err != nil {
		return nil, nil, err
	}
	chainCfg, err := chains.Describe(chain)
	if err != nil {
		return nil, nil, err
	}
	binding, err := s.GetBinding(userID)
	if err != nil {
		return nil, nil, err
	}
	return chainCfg, binding, nil
}

func (s *SDK) SignMessage(ctx context.Context, userID string, msg []byte, chain string) ([]byte, error) {
	_, binding, err := s.describeAndLookup(userID, chain)
	if err != nil {
		return nil, err
	}
	sig, err := s.sessionSign(ctx, binding, evm.MessageDigest(msg), types.SignMessage)
	if err != nil {
		return nil, err
	}
	return evm.NormalizeV(sig), nil
}

func (s *SDK) SignTypedData(ctx context.Context, userID string, td apitypes.TypedData, chain string) ([]byte, error) {
	_, binding, err := s.describeAndLookup(userID, chain)
	if err != nil {
		return nil, err
	}
	digest, err := evm.TypedDataDigest(td)
	if err != nil {
		return nil, err
	}
	sig, err := s.sessionSign(ctx, binding, digest, types.SignTypedData)
	if err != nil {
		return nil, err
	}
	return evm.NormalizeV(sig), nil
}

func (s *SDK) SignPermit(ctx context.Context, userID string, args *evm.PermitArgs, chain string) ([]byte, error) {
	chainCfg, binding, err := s.describeAndLookup(userID, chain)
	if err != nil {
		return nil, err
	}
	if args.Owner == "" {
		args.Owner = string(binding.PKP.Address)
	}
	td, err := evm.PermitTypedData(chainCfg.ChainIDBig(), args)
	if err != nil {
		return nil, err
	}
	digest, err := evm.TypedDataDigest(td)
	if err != nil {
		return nil, err
	}
	sig, err := s.sessionSign(ctx, binding, digest, types.SignTypedData)
	if err != nil {
		return nil, err
	}
	return evm.NormalizeV(sig), nil
}

func (s *SDK) SignTransaction(ctx context.Context, userID string, args *evm.TxArgs, chain string) (*ethtypes.Transaction, error) {
	chainCfg, binding, err := s.describeAndLookup(userID, chain)
	if err != nil {
		return nil, err
	}

	rpc, err := s.opts.dialer(ctx, chain)
	if err != nil {
		return nil, err
	}

	from := common.HexToAddress(string(binding.PKP.Address))
	unsigned, err := evm.BuildTx(ctx, rpc, chainCfg.ChainIDBig(), from, args)
	if err != nil {
		return nil, err
	}

	sig, err := s.sessionSign(ctx, binding, unsigned.Digest(), types.SignTransaction)
	if err != nil {
		return nil, err
	}
	return unsigned.WithSignature(sig)
}

// VerifyMessage reports whether sig was produced over msg by expected.
// Malformed input reports false rather than erroring.
func VerifyMessage(msg []byte, sig []byte, expected types.Address) bool {
	return evm.VerifyMessage(msg, sig, expected)
}

// VerifyTypedData reports whether sig was produced over td by expected.
// Malformed input reports false rather than erroring.
func VerifyTypedData(td apitypes.TypedData, sig []byte, expected types.Address) bool {
	return evm.VerifyTypedData(td, sig, expected)
}
