// Package lit binds to the Lit Protocol network over its JSON/HTTP
// surface: key minting through the relay, session-signature handshakes
// and threshold signing through the nodes. The threshold cryptography
// itself happens inside the network; this package only speaks its wire
// protocol and never sees private key material.
package lit

import (
	"github.com/openweb3-io/pkpkit/types"
)

// Network selects a Lit network environment.
type Network string

const (
	NetworkDatilDev  = Network("datil-dev")
	NetworkDatilTest = Network("datil-test")
	NetworkDatil     = Network("datil")
)

var SupportedNetworks = []Network{
	NetworkDatilDev,
	NetworkDatilTest,
	NetworkDatil,
}

// NetworkConfig holds the endpoints and registry chain of one network
// environment. The table is static; environments are not discovered.
type NetworkConfig struct {
	RelayURL string
	NodeURL  string
	// RegistryChainID is the chain the network anchors key NFTs on,
	// referenced in SIWE grants.
	RegistryChainID uint64
}

var networks = map[Network]NetworkConfig{
	NetworkDatilDev: {
		RelayURL:        "https://datil-dev-relayer.getlit.dev",
		NodeURL:         "https://datil-dev.litgateway.com",
		RegistryChainID: 175188,
	},
	NetworkDatilTest: {
		RelayURL:        "https://datil-test-relayer.getlit.dev",
		NodeURL:         "https://datil-test.litgateway.com",
		RegistryChainID: 175188,
	},
	NetworkDatil: {
		RelayURL:        "https://datil-relayer.getlit.dev",
		NodeURL:         "https://datil.litgateway.com",
		RegistryChainID: 175188,
	},
}

func (n Network) Valid() bool {
	_, ok := networks[n]
	return ok
}

// Config resolves the endpoint table for a network environment.
func (n Network) Config() (NetworkConfig, error) {
	cfg, ok := networks[n]
	if !ok {
		return NetworkConfig{}, types.WrapErrDetails(types.ErrUnknownNetwork, nil, map[string]any{
			"network": string(n),
			"options": SupportedNetworks,
		})
	}
	return cfg, nil
}
