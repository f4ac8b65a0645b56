package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const releaseVersion = "0.3.1"

type Config struct {
	rpcURL   string
	wsURL    string
	contract string
	account  string
	demo     bool
	verbose  bool
}

func (c *Config) validate() error {
	if c.demo {
		return nil
	}
	if c.contract != "" && c.rpcURL == "" {
		return fmt.Errorf("--rpc-url is required when --contract is set")
	}
	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("PROBESEEK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "probeseek",
		Short:         "Deploy encrypted probes at a hidden on-chain signal and reveal private feedback.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return runPlay(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&cfg.rpcURL, "rpc-url", "", "JSON-RPC endpoint of an Ethereum node (env: PROBESEEK_RPC_URL)")
	fs.StringVar(&cfg.wsURL, "ws-url", "", "websocket endpoint for new-head refresh triggers (env: PROBESEEK_WS_URL)")
	fs.StringVar(&cfg.contract, "contract", "", "game contract address (env: PROBESEEK_CONTRACT)")
	fs.StringVar(&cfg.account, "account", "", "watch this account read-only instead of a local dev key (env: PROBESEEK_ACCOUNT)")
	fs.BoolVar(&cfg.demo, "demo", false, "play against an in-memory chain and engine (env: PROBESEEK_DEMO)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display debug output (env: PROBESEEK_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	return cmd
}

func main() {
	cfg := &Config{}
	if err := newCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
