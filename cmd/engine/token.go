package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"atsscout-engine/internal/secrets"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the delegated search token in the OS keychain",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set [token]",
	Short: "Store the token (reads stdin when no argument is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var tok string
		if len(args) == 1 {
			tok = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read token: %w", err)
			}
			tok = strings.TrimSpace(line)
		}
		if err := secrets.SetSearchToken(tok); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "token stored")
		return nil
	},
}

var tokenDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := secrets.DeleteSearchToken(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "token deleted")
		return nil
	},
}

var tokenStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether a token is available",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := secrets.GetSearchToken()
		switch {
		case err == nil && secrets.HasKeychainToken():
			fmt.Fprintln(cmd.OutOrStdout(), "token: keychain")
		case err == nil:
			fmt.Fprintln(cmd.OutOrStdout(), "token: environment")
		default:
			fmt.Fprintln(cmd.OutOrStdout(), "token: none")
		}
		return nil
	},
}

func init() {
	tokenCmd.AddCommand(tokenSetCmd, tokenDeleteCmd, tokenStatusCmd)
}
