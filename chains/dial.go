package chains

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
)

// Dial opens an RPC connection to the chain's configured endpoint.
// The caller owns the returned client.
func Dial(ctx context.Context, name string) (*ethclient.Client, error) {
	cfg, err := Describe(name)
	if err != nil {
		return nil, err
	}
	client, err := ethclient.DialContext(ctx, cfg.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "error dialing rpc for chain %s", name)
	}
	return client, nil
}
