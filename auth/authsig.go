package auth

import (
	"context"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"github.com/openweb3-io/pkpkit/evm"
	"github.com/openweb3-io/pkpkit/signer"
	"github.com/openweb3-io/pkpkit/types"
)

// DefaultSessionDuration bounds a session grant when the caller does not
// choose a lifetime.
const DefaultSessionDuration = 10 * time.Minute

const derivedViaPersonalSign = "web3.eth.personal.sign"

// AuthSig is the wallet signature envelope the network verifies: the exact
// signed SIWE text, the EIP-191 signature over it, and the signing address.
type AuthSig struct {
	Sig           string `json:"sig"`
	DerivedVia    string `json:"derivedVia"`
	SignedMessage string `json:"signedMessage"`
	Address       string `json:"address"`
}

// Verify recovers the signer from the envelope and compares it against the
// claimed address. Malformed envelopes report false.
func (a *AuthSig) Verify() bool {
	sig, err := hexutil.Decode(a.Sig)
	if err != nil {
		return false
	}
	return evm.VerifyMessage([]byte(a.SignedMessage), sig, types.Address(a.Address))
}

// SigParams configure one SIWE signature from the master credential.
type SigParams struct {
	// Domain requesting the signature, e.g. "pkpkit".
	Domain string
	// URI the statement authorizes: a session key URI for session grants,
	// the relay origin for minting.
	URI string
	// Statement lines appended after the base sign-in text.
	Grants []Grant
	// ChainID of the network's registry chain.
	ChainID uint64
	// Expiration bounds the grant; DefaultSessionDuration when zero.
	Expiration time.Duration
}

func (p *SigParams) statement() string {
	if len(p.Grants) == 0 {
		return ""
	}
	lines := []string{"I further authorize the stated URI to perform the following actions on my behalf:"}
	for _, grant := range p.Grants {
		lines = append(lines, grant.String())
	}
	return strings.Join(lines, " ")
}

// NewAuthSig builds a SIWE message per params and signs it EIP-191 style
// with the given credential.
func NewAuthSig(ctx context.Context, s signer.Signer, address common.Address, params *SigParams) (*AuthSig, error) {
	expiration := params.Expiration
	if expiration == 0 {
		expiration = DefaultSessionDuration
	}
	now := time.Now().UTC()

	msg := SIWEMessage{
		Domain:         params.Domain,
		Address:        address,
		Statement:      params.statement(),
		URI:            params.URI,
		Version:        "1",
		ChainID:        params.ChainID,
		Nonce:          NewNonce(),
		IssuedAt:       now,
		ExpirationTime: now.Add(expiration),
	}
	text := msg.String()

	sig, err := s.Sign(ctx, evm.MessageDigest([]byte(text)))
	if err != nil {
		return nil, errors.Wrap(err, "error signing siwe message")
	}

	return &AuthSig{
		Sig:           hexutil.Encode(evm.NormalizeV(sig)),
		DerivedVia:    derivedViaPersonalSign,
		SignedMessage: text,
		Address:       address.Hex(),
	}, nil
}

// NewSessionAuthSig mints a fresh session key and an AuthSig delegating
// the given grants to it. The session key is returned alongside the
// envelope; it lives only for this call chain.
func NewSessionAuthSig(ctx context.Context, s signer.Signer, address common.Address, params *SigParams) (*SessionKey, *AuthSig, error) {
	sessionKey, err := NewSessionKey()
	if err != nil {
		return nil, nil, err
	}
	delegated := *params
	delegated.URI = sessionKey.URI()

	authSig, err := NewAuthSig(ctx, s, address, &delegated)
	if err != nil {
		return nil, nil, err
	}
	return sessionKey, authSig, nil
}
