package setup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/openweb3-io/pkpkit"
	"github.com/openweb3-io/pkpkit/lit"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type ContextKey string

const (
	ContextSDK ContextKey = "sdk"
)

func WrapSDK(ctx context.Context, sdk *pkpkit.SDK) context.Context {
	ctx = context.WithValue(ctx, ContextSDK, sdk)
	return ctx
}

func UnwrapSDK(ctx context.Context) *pkpkit.SDK {
	sdk, _ := ctx.Value(ContextSDK).(*pkpkit.SDK)
	return sdk
}

func CreateContext(sdk *pkpkit.SDK) context.Context {
	ctx := context.Background()
	ctx = WrapSDK(ctx, sdk)
	return ctx
}

type Args struct {
	ConfigPath  string
	Network     string
	Credential  string
	Store       string
	RelayAPIKey string
}

func AddArgs(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "", "Config file to use. Optional.")
	cmd.PersistentFlags().String("network", "", "Lit network to use (datil-dev, datil-test, datil).")
	cmd.PersistentFlags().String("credential", "", "Master credential reference (raw hex, env:NAME, or file:PATH).")
	cmd.PersistentFlags().String("store", "", "Path to the binding store file. Optional.")
	cmd.PersistentFlags().String("relay-api-key", "", "Relay API key. Optional.")
}

func ArgsFromCmd(cmd *cobra.Command) (*Args, error) {
	configPath, _ := cmd.Flags().GetString("config")
	network, _ := cmd.Flags().GetString("network")
	credential, _ := cmd.Flags().GetString("credential")
	store, _ := cmd.Flags().GetString("store")
	relayAPIKey, _ := cmd.Flags().GetString("relay-api-key")

	return &Args{
		ConfigPath:  configPath,
		Network:     network,
		Credential:  credential,
		Store:       store,
		RelayAPIKey: relayAPIKey,
	}, nil
}

// LoadConfig merges the config file, PKP_* environment variables and
// command-line flags, with flags taking precedence.
func LoadConfig(args *Args) (*pkpkit.Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PKP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if args.ConfigPath != "" {
		v.SetConfigFile(args.ConfigPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not read config %s: %v", args.ConfigPath, err)
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.SetConfigName("pkpkit")
			v.SetConfigType("yaml")
			v.AddConfigPath(filepath.Join(home, ".pkpkit"))
			// a missing default config file is fine
			_ = v.ReadInConfig()
		}
	}

	cfg := &pkpkit.Config{
		Credential:  v.GetString("credential"),
		Network:     lit.Network(v.GetString("network")),
		StorePath:   v.GetString("store"),
		RelayAPIKey: v.GetString("relay-api-key"),
		Domain:      v.GetString("domain"),
	}
	if args.Credential != "" {
		cfg.Credential = args.Credential
	}
	if args.Network != "" {
		cfg.Network = lit.Network(args.Network)
	}
	if args.Store != "" {
		cfg.StorePath = args.Store
	}
	if args.RelayAPIKey != "" {
		cfg.RelayAPIKey = args.RelayAPIKey
	}
	return cfg, nil
}

func LoadSDK(args *Args) (*pkpkit.SDK, error) {
	cfg, err := LoadConfig(args)
	if err != nil {
		return nil, err
	}
	sdk, err := pkpkit.New(cfg)
	if err != nil {
		return nil, err
	}
	return sdk, nil
}
