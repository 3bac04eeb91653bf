package types

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

// Address is a 0x-prefixed EVM address derived from a PKP public key.
type Address string

// TokenID is the external network's handle for a PKP, the hex-encoded
// token id of the key's NFT on the network's registry contract.
type TokenID string

// UserInfo identifies a person or account. It is caller-supplied and
// immutable once a key binding has been created for it.
type UserInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PKP is an externally managed signing key. The private material never
// leaves the network; only the handle, the public key and the derived
// address are held locally.
type PKP struct {
	TokenID   TokenID `json:"tokenId"`
	PublicKey string  `json:"publicKey"`
	Address   Address `json:"ethAddress"`
}

// Binding ties a user to the one PKP issued for them. At most one binding
// exists per user id; bindings are created once and never mutated.
type Binding struct {
	User      UserInfo  `json:"user"`
	PKP       PKP       `json:"pkp"`
	CreatedAt time.Time `json:"createdAt"`
}

// DecodePublicKey decodes a hex public key (with or without 0x prefix) into
// the 65-byte uncompressed SEC1 form the network reports for PKPs.
func DecodePublicKey(pubkey string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(pubkey, "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid public key hex")
	}
	if len(raw) != 65 || raw[0] != 0x04 {
		return nil, errors.Errorf("expected 65-byte uncompressed public key, got %d bytes", len(raw))
	}
	return raw, nil
}

// DeriveAddress computes the EVM address for a PKP public key.
func DeriveAddress(pubkey string) (Address, error) {
	raw, err := DecodePublicKey(pubkey)
	if err != nil {
		return "", err
	}
	pub, err := crypto.UnmarshalPubkey(raw)
	if err != nil {
		return "", errors.Wrap(err, "invalid secp256k1 point")
	}
	return Address(crypto.PubkeyToAddress(*pub).Hex()), nil
}

// DeriveTokenID computes the registry token id for a PKP public key. The
// network mints the key's NFT with id keccak256(pubkey).
func DeriveTokenID(pubkey string) (TokenID, error) {
	raw, err := DecodePublicKey(pubkey)
	if err != nil {
		return "", err
	}
	h := sha3.NewLegacyKeccak256()
	h.Write(raw)
	return TokenID("0x" + hex.EncodeToString(h.Sum(nil))), nil
}
