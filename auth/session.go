package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
)

// Ability is an action a session is allowed to perform with a resource.
type Ability string

const (
	AbilityPKPSigning Ability = "pkp-signing"
	AbilityPKPMinting Ability = "pkp-minting"
)

// Resource names an external key (or all keys) a grant applies to.
type Resource struct {
	Kind string
	ID   string
}

// PKPResource scopes a grant to one key by token id; "*" means any.
func PKPResource(tokenID string) Resource {
	return Resource{Kind: "pkp", ID: tokenID}
}

func (r Resource) URN() string {
	return fmt.Sprintf("lit-%s://%s", r.Kind, r.ID)
}

// Grant pairs a resource with the ability a session may exercise on it.
type Grant struct {
	Resource Resource
	Ability  Ability
}

func (g Grant) String() string {
	return fmt.Sprintf("* '%s' for '%s'.", g.Ability, g.Resource.URN())
}

// SessionKey is an ephemeral ed25519 keypair a session grant delegates to.
// One is minted fresh per signing call and never reused.
type SessionKey struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

func NewSessionKey() (*SessionKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "error generating session key")
	}
	return &SessionKey{pub: pub, priv: priv}, nil
}

// URI identifies the session key inside the SIWE delegation message.
func (k *SessionKey) URI() string {
	return "lit:session:" + k.PublicKeyHex()
}

func (k *SessionKey) PublicKeyHex() string {
	return hex.EncodeToString(k.pub)
}

func (k *SessionKey) Sign(payload []byte) []byte {
	return ed25519.Sign(k.priv, payload)
}

// Verify checks an ed25519 signature made by this session key.
func (k *SessionKey) Verify(payload, sig []byte) bool {
	return ed25519.Verify(k.pub, payload, sig)
}
