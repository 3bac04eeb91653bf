package main

import (
	"github.com/openweb3-io/pkpkit/cmd/pkp/setup"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	cmd := &cobra.Command{
		Use:          "pkp",
		Short:        "Manually interact with Lit Protocol PKP keys",
		Args:         cobra.ExactArgs(0),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case "chains", "verify":
				// offline commands, no credential needed
				return nil
			}
			args, err := setup.ArgsFromCmd(cmd)
			if err != nil {
				return err
			}

			sdk, err := setup.LoadSDK(args)
			if err != nil {
				return err
			}
			if err := sdk.Init(cmd.Context()); err != nil {
				return err
			}

			ctx := setup.CreateContext(sdk)
			logrus.WithFields(logrus.Fields{
				"network": args.Network,
				"store":   args.Store,
			}).Info("sdk ready")

			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if sdk := setup.UnwrapSDK(cmd.Context()); sdk != nil {
				return sdk.Close()
			}
			return nil
		},
	}
	setup.AddArgs(cmd)

	cmd.AddCommand(CmdChains())
	cmd.AddCommand(CmdIssue())
	cmd.AddCommand(CmdBinding())
	cmd.AddCommand(CmdSignMessage())
	cmd.AddCommand(CmdSignPermit())
	cmd.AddCommand(CmdVerify())

	_ = cmd.Execute()
}
