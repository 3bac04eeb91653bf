package signer

import (
	"context"
	"crypto/ecdsa"

	vault "github.com/hashicorp/vault/api"
	"github.com/pkg/errors"
)

// NewVaultLoader reads the master credential from a HashiCorp Vault secret.
// The reference is the secret path; the key material is expected under the
// "key" field (KV v2 nesting is unwrapped).
func NewVaultLoader(address, token string) CredentialLoader {
	return func(ctx context.Context, ref string) (*ecdsa.PrivateKey, error) {
		cfg := vault.DefaultConfig()
		if address != "" {
			cfg.Address = address
		}
		client, err := vault.NewClient(cfg)
		if err != nil {
			return nil, errors.Wrap(err, "error creating vault client")
		}
		if token != "" {
			client.SetToken(token)
		}

		secret, err := client.Logical().ReadWithContext(ctx, ref)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading vault secret %s", ref)
		}
		if secret == nil {
			return nil, errors.Errorf("vault secret %s not found", ref)
		}

		data := secret.Data
		if nested, ok := data["data"].(map[string]interface{}); ok {
			data = nested
		}
		hexKey, ok := data["key"].(string)
		if !ok {
			return nil, errors.Errorf("vault secret %s has no key field", ref)
		}
		return ParseKey(hexKey)
	}
}
