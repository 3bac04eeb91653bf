package signer

import (
	"context"
	"crypto/ecdsa"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/openweb3-io/pkpkit/types"
)

// CredentialLoader resolves a credential reference to a private key.
type CredentialLoader = func(ctx context.Context, ref string) (*ecdsa.PrivateKey, error)

// CredentialProvider maps credential schemes ("env:", "file:", "vault:", ...)
// to loaders. A reference without a scheme is treated as a raw hex key.
type CredentialProvider interface {
	Register(scheme string, loader CredentialLoader)
	Load(ctx context.Context, credential string) (*ecdsa.PrivateKey, error)
}

type Options struct {
	failoverLoader CredentialLoader
}

type Option func(*Options)

func WithFailoverLoader(v CredentialLoader) Option {
	return func(o *Options) {
		o.failoverLoader = v
	}
}

type credentialProvider struct {
	opts      *Options
	loaderMap map[string]CredentialLoader
}

func NewCredentialProvider(o ...Option) CredentialProvider {
	opts := &Options{}

	for _, opt := range o {
		opt(opts)
	}

	p := &credentialProvider{
		opts:      opts,
		loaderMap: make(map[string]CredentialLoader),
	}
	p.Register("raw", loadRaw)
	p.Register("env", loadEnv)
	p.Register("file", loadFile)
	// remote loaders configure themselves from their ambient environment
	// (VAULT_ADDR/VAULT_TOKEN, application default credentials)
	p.Register("vault", NewVaultLoader("", ""))
	p.Register("gcp", NewGCPSecretLoader())
	return p
}

func (p *credentialProvider) Register(scheme string, loader CredentialLoader) {
	p.loaderMap[scheme] = loader
}

func (p *credentialProvider) Load(ctx context.Context, credential string) (*ecdsa.PrivateKey, error) {
	if credential == "" {
		return nil, types.ErrMissingCredential
	}

	scheme, ref := "raw", credential
	if i := strings.Index(credential, ":"); i > 0 {
		if _, ok := p.loaderMap[credential[:i]]; ok {
			scheme, ref = credential[:i], credential[i+1:]
		}
	}

	loader, ok := p.loaderMap[scheme]
	if !ok {
		if p.opts.failoverLoader == nil {
			return nil, errors.Errorf("credential loader for scheme %s not found", scheme)
		}
		loader = p.opts.failoverLoader
	}

	key, err := loader(ctx, ref)
	if err != nil {
		return nil, types.WrapErr(types.ErrMissingCredential, err)
	}
	return key, nil
}

// ParseKey decodes a hex-encoded secp256k1 private key, 0x prefix optional.
func ParseKey(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if hexKey == "" {
		return nil, errors.New("empty private key")
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key hex")
	}
	return key, nil
}

func loadRaw(ctx context.Context, ref string) (*ecdsa.PrivateKey, error) {
	return ParseKey(ref)
}

func loadEnv(ctx context.Context, ref string) (*ecdsa.PrivateKey, error) {
	value, ok := os.LookupEnv(ref)
	if !ok {
		return nil, errors.Errorf("environment variable %s not set", ref)
	}
	return ParseKey(value)
}

func loadFile(ctx context.Context, ref string) (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, errors.Wrap(err, "error reading keyfile")
	}
	return ParseKey(string(data))
}
