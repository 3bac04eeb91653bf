package pkpkit

import (
	"context"

	"github.com/openweb3-io/pkpkit/chains"
	"github.com/openweb3-io/pkpkit/evm"
	"github.com/openweb3-io/pkpkit/lit"
	"github.com/openweb3-io/pkpkit/signer"
	"github.com/openweb3-io/pkpkit/store"
)

// Config is supplied once at construction time; there is no runtime
// reconfiguration.
type Config struct {
	// Credential references the master key authorized to request issuance:
	// a raw hex key or a scheme reference ("env:", "file:", "vault:", ...).
	Credential string
	// Network selects the Lit network environment.
	Network lit.Network
	// StorePath overrides where key bindings are persisted.
	StorePath string
	// RelayAPIKey authenticates relay minting requests, when required.
	RelayAPIKey string
	// Domain appears in SIWE messages; defaults to "pkpkit".
	Domain string
}

// RPCDialer opens a chain RPC connection for transaction assembly.
type RPCDialer = func(ctx context.Context, chain string) (evm.RPCClient, error)

type sdkOptions struct {
	store      store.Store
	network    NetworkClient
	provider   signer.CredentialProvider
	authorizer IssuanceAuthorizer
	dialer     RPCDialer
	litOptions []lit.Option
}

type Option func(*sdkOptions)

// WithStore substitutes the binding store, e.g. store.NewMemStore().
func WithStore(v store.Store) Option {
	return func(o *sdkOptions) {
		o.store = v
	}
}

// WithNetworkClient substitutes the network binding, mainly for tests.
func WithNetworkClient(v NetworkClient) Option {
	return func(o *sdkOptions) {
		o.network = v
	}
}

// WithCredentialProvider substitutes the credential scheme registry.
func WithCredentialProvider(v signer.CredentialProvider) Option {
	return func(o *sdkOptions) {
		o.provider = v
	}
}

// WithIssuanceAuthorizer substitutes how minting requests are authorized.
func WithIssuanceAuthorizer(v IssuanceAuthorizer) Option {
	return func(o *sdkOptions) {
		o.authorizer = v
	}
}

// WithRPCDialer substitutes how chain RPC connections are opened.
func WithRPCDialer(v RPCDialer) Option {
	return func(o *sdkOptions) {
		o.dialer = v
	}
}

// WithLitOptions forwards options to the underlying lit client.
func WithLitOptions(v ...lit.Option) Option {
	return func(o *sdkOptions) {
		o.litOptions = append(o.litOptions, v...)
	}
}

func defaultDialer(ctx context.Context, chain string) (evm.RPCClient, error) {
	return chains.Dial(ctx, chain)
}
