package lit

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"github.com/openweb3-io/pkpkit/auth"
	"github.com/openweb3-io/pkpkit/types"
)

// SessionSigs are the per-node signatures that authorize a session key to
// operate one PKP for a bounded time window.
type SessionSigs map[string]auth.AuthSig

// SessionRequest asks the nodes to countersign a session delegation.
type SessionRequest struct {
	SessionKey   *auth.SessionKey
	AuthSig      *auth.AuthSig
	PKPPublicKey string
	Expiration   time.Time
}

type sessionBody struct {
	SessionKey   string        `json:"sessionKey"`
	AuthSig      *auth.AuthSig `json:"authSig"`
	PKPPublicKey string        `json:"pkpPublicKey"`
	Expiration   string        `json:"expiration"`
}

type sessionResponse struct {
	SessionSigs SessionSigs `json:"sessionSigs"`
}

// HandshakeSessionSigs obtains session signatures for a freshly minted
// session key. Sessions are never cached; every signing call performs its
// own handshake.
func (c *Client) HandshakeSessionSigs(ctx context.Context, req *SessionRequest) (SessionSigs, error) {
	if req.SessionKey == nil || req.AuthSig == nil {
		return nil, errors.New("session key and auth sig are required")
	}

	var resp sessionResponse
	err := c.do(ctx, "POST", c.cfg.NodeURL+"/web/sign_session_key", &sessionBody{
		SessionKey:   req.SessionKey.URI(),
		AuthSig:      req.AuthSig,
		PKPPublicKey: req.PKPPublicKey,
		Expiration:   req.Expiration.UTC().Format(time.RFC3339),
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.SessionSigs) == 0 {
		return nil, types.WrapErr(types.ErrNetwork, errors.New("nodes returned no session signatures"))
	}
	return resp.SessionSigs, nil
}

// SignRequest submits one digest for threshold signing under a session.
type SignRequest struct {
	PKPPublicKey string
	Digest       []byte
	Kind         types.SignatureKind
	SessionSigs  SessionSigs
}

type signBody struct {
	ToSign      string              `json:"toSign"`
	PubKey      string              `json:"pubkey"`
	Kind        types.SignatureKind `json:"kind"`
	SessionSigs SessionSigs         `json:"sessionSigs"`
}

type signResponse struct {
	Signature string `json:"signature"`
}

// SignWithSession forwards a 32-byte digest to the nodes and returns the
// combined 65-byte signature. Share combination happens network-side; the
// client only validates the assembled result.
func (c *Client) SignWithSession(ctx context.Context, req *SignRequest) ([]byte, error) {
	if len(req.Digest) != 32 {
		return nil, errors.Errorf("expected 32-byte digest, got %d bytes", len(req.Digest))
	}
	if len(req.SessionSigs) == 0 {
		return nil, errors.New("session sigs are required")
	}

	var resp signResponse
	err := c.do(ctx, "POST", c.cfg.NodeURL+"/web/pkp_sign", &signBody{
		ToSign:      hexutil.Encode(req.Digest),
		PubKey:      req.PKPPublicKey,
		Kind:        req.Kind,
		SessionSigs: req.SessionSigs,
	}, &resp)
	if err != nil {
		return nil, err
	}

	sig, err := hexutil.Decode(resp.Signature)
	if err != nil {
		return nil, types.WrapErr(types.ErrNetwork, errors.Wrap(err, "error decoding signature"))
	}
	if len(sig) != 65 {
		return nil, types.WrapErr(types.ErrNetwork, errors.Errorf("expected 65-byte signature, got %d bytes", len(sig)))
	}
	c.log.Debugw("signature combined", "kind", req.Kind, "pubkey", req.PKPPublicKey)
	return sig, nil
}
