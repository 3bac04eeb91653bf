package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/openweb3-io/pkpkit/chains"
	"github.com/openweb3-io/pkpkit/cmd/pkp/setup"
	"github.com/openweb3-io/pkpkit/evm"
	"github.com/openweb3-io/pkpkit/types"
	"github.com/spf13/cobra"
)

func CmdChains() *cobra.Command {
	return &cobra.Command{
		Use:   "chains",
		Short: "List information on all supported chains.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			bz, _ := json.MarshalIndent(chains.List(), "", "  ")
			fmt.Println(string(bz))
			return nil
		},
	}
}

func CmdIssue() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issue <user-id>",
		Short: "Issue a PKP signing key for a user, or return the existing one.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sdk := setup.UnwrapSDK(cmd.Context())

			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			binding, err := sdk.IssueKey(cmd.Context(), &types.UserInfo{
				ID:    args[0],
				Name:  name,
				Email: email,
			})
			if err != nil {
				return err
			}

			bz, _ := json.MarshalIndent(binding, "", "  ")
			fmt.Println(string(bz))
			return nil
		},
	}
	cmd.Flags().String("name", "", "Optional display name for the user")
	cmd.Flags().String("email", "", "Optional email for the user")
	return cmd
}

func CmdBinding() *cobra.Command {
	return &cobra.Command{
		Use:   "binding <user-id>",
		Short: "Show the stored key binding for a user.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sdk := setup.UnwrapSDK(cmd.Context())

			binding, err := sdk.GetBinding(args[0])
			if err != nil {
				return err
			}

			bz, _ := json.MarshalIndent(binding, "", "  ")
			fmt.Println(string(bz))
			return nil
		},
	}
}

func CmdSignMessage() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign-message <user-id> <message>",
		Short: "Sign a message with the user's PKP key.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sdk := setup.UnwrapSDK(cmd.Context())

			chain, _ := cmd.Flags().GetString("chain")
			sig, err := sdk.SignMessage(cmd.Context(), args[0], []byte(args[1]), chain)
			if err != nil {
				return fmt.Errorf("could not sign message: %v", err)
			}

			fmt.Println(hexutil.Encode(sig))
			return nil
		},
	}
	cmd.Flags().String("chain", "ethereum", "Chain to sign for")
	return cmd
}

func CmdSignPermit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign-permit <user-id>",
		Short: "Sign an ERC-2612 permit with the user's PKP key.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sdk := setup.UnwrapSDK(cmd.Context())

			chain, _ := cmd.Flags().GetString("chain")
			token, _ := cmd.Flags().GetString("token")
			tokenName, _ := cmd.Flags().GetString("token-name")
			spender, _ := cmd.Flags().GetString("spender")
			value, _ := cmd.Flags().GetString("value")
			nonce, _ := cmd.Flags().GetUint64("nonce")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			amount := types.NewBigIntFromStr(value)
			sig, err := sdk.SignPermit(cmd.Context(), args[0], &evm.PermitArgs{
				Token:     token,
				TokenName: tokenName,
				Spender:   spender,
				Value:     &amount,
				Nonce:     nonce,
				Deadline:  uint64(time.Now().Add(ttl).Unix()),
			}, chain)
			if err != nil {
				return fmt.Errorf("could not sign permit: %v", err)
			}

			fmt.Println(hexutil.Encode(sig))
			return nil
		},
	}
	cmd.Flags().String("chain", "ethereum", "Chain to sign for")
	cmd.Flags().String("token", "", "Token contract address")
	cmd.Flags().String("token-name", "", "Token name from the EIP-712 domain")
	cmd.Flags().String("spender", "", "Spender address")
	cmd.Flags().String("value", "0", "Allowance amount in base units")
	cmd.Flags().Uint64("nonce", 0, "Owner's current permit nonce")
	cmd.Flags().Duration("ttl", time.Hour, "How long the permit stays valid")
	return cmd
}

func CmdVerify() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <message> <signature> <address>",
		Short: "Verify a message signature against an address, offline.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := hexutil.Decode(args[1])
			if err != nil {
				return fmt.Errorf("invalid signature hex: %v", err)
			}

			ok := evm.VerifyMessage([]byte(args[0]), sig, types.Address(args[2]))
			fmt.Println(ok)
			if !ok {
				return fmt.Errorf("signature does not match %s", args[2])
			}
			return nil
		},
	}
}
