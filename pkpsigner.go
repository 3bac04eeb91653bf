package pkpkit

import (
	"context"

	"github.com/openweb3-io/pkpkit/signer"
	"github.com/openweb3-io/pkpkit/types"
)

// PKPSigner adapts one user's network key to the signer.Signer interface
// so it can be composed with code written against a generic signer. Every
// Sign call runs its own session handshake; nothing is cached between
// calls.
type PKPSigner struct {
	sdk     *SDK
	binding *types.Binding

	// Kind tags the payload on the wire; SignMessage when unset.
	Kind types.SignatureKind
}

var _ signer.Signer = &PKPSigner{}

// Signer returns a signer bound to the user's key. The user must already
// hold a key binding.
func (s *SDK) Signer(userID string) (*PKPSigner, error) {
	binding, err := s.GetBinding(userID)
	if err != nil {
		return nil, err
	}
	return &PKPSigner{sdk: s, binding: binding}, nil
}

// PublicKey returns the key's uncompressed SEC1 public key bytes.
func (p *PKPSigner) PublicKey(ctx context.Context) ([]byte, error) {
	return types.DecodePublicKey(p.binding.PKP.PublicKey)
}

// Sign forwards a prepared 32-byte digest to the network under a fresh
// session.
func (p *PKPSigner) Sign(ctx context.Context, payload []byte) ([]byte, error) {
	kind := p.Kind
	if kind == "" {
		kind = types.SignMessage
	}
	return p.sdk.sessionSign(ctx, p.binding, payload, kind)
}

// Address is the EVM address of the underlying key.
func (p *PKPSigner) Address() types.Address {
	return p.binding.PKP.Address
}
