package chains

import (
	_ "embed"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/openweb3-io/pkpkit/types"
)

// Currency is the native currency metadata of a chain.
type Currency struct {
	Name     string `yaml:"name" json:"name"`
	Symbol   string `yaml:"symbol" json:"symbol"`
	Decimals int32  `yaml:"decimals" json:"decimals"`
}

// ChainConfig describes one supported chain. The table is static and
// read-only, known at process start; there is no dynamic registration.
type ChainConfig struct {
	Chain    string   `yaml:"-" json:"chain"`
	Name     string   `yaml:"name" json:"name"`
	ChainID  uint64   `yaml:"chain_id" json:"chainId"`
	URL      string   `yaml:"url" json:"url"`
	Currency Currency `yaml:"currency" json:"currency"`
}

func (cfg *ChainConfig) ChainIDBig() *big.Int {
	return new(big.Int).SetUint64(cfg.ChainID)
}

func (cfg *ChainConfig) String() string {
	return fmt.Sprintf("ChainConfig(chain=%s id=%d url=%s)", cfg.Chain, cfg.ChainID, cfg.URL)
}

type chainsFile struct {
	Network string                  `yaml:"network"`
	Chains  map[string]*ChainConfig `yaml:"chains"`
}

func unmarshal(data string) map[string]*ChainConfig {
	var cfg chainsFile
	if err := yaml.Unmarshal([]byte(data), &cfg); err != nil {
		panic(err)
	}
	for name, chain := range cfg.Chains {
		chain.Chain = name
	}
	return cfg.Chains
}

func init() {
	Mainnet = unmarshal(mainnetData)
	Testnet = unmarshal(testnetData)

	all = map[string]*ChainConfig{}
	for name, chain := range Mainnet {
		all[name] = chain
	}
	for name, chain := range Testnet {
		all[name] = chain
	}
}

//go:embed mainnet.yaml
var mainnetData string

//go:embed testnet.yaml
var testnetData string

var Mainnet map[string]*ChainConfig
var Testnet map[string]*ChainConfig

var all map[string]*ChainConfig

// Describe looks up a chain by its symbolic name. Matching is
// case-insensitive; unknown names fail with ErrUnsupportedChain.
func Describe(name string) (*ChainConfig, error) {
	if chain, ok := all[strings.ToLower(name)]; ok {
		return chain, nil
	}
	return nil, types.WrapErrDetails(types.ErrUnsupportedChain, nil, map[string]any{
		"chain":   name,
		"options": Names(),
	})
}

// Names lists the symbolic names of every registered chain, sorted.
func Names() []string {
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns every registered chain descriptor, sorted by name.
func List() []*ChainConfig {
	out := make([]*ChainConfig, 0, len(all))
	for _, name := range Names() {
		out = append(out, all[name])
	}
	return out
}
