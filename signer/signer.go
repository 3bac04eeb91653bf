package signer

import (
	"context"
)

// Signer signs a prepared digest. Implementations may hold the key locally
// (the master credential) or delegate to the key network (a PKP).
type Signer interface {
	PublicKey(ctx context.Context) ([]byte, error)
	Sign(ctx context.Context, payload []byte) ([]byte, error)
}
