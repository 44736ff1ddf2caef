package cmd

import (
	"github.com/spf13/cobra"
	"github.com/thegrumpylion/gmail-manager/internal/auth"
)

func newLoginCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authorize Gmail access and store the token",
		Long: `Runs the OAuth2 authorization-code flow in the terminal.

Open the printed URL, approve access, then paste the code from the redirect
URL back into the terminal. The token is written to --token (default
<config-dir>/token.json). Only gmail.readonly and gmail.compose are
requested.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := o.newLoader()
			cfg, err := loader.Config()
			if err != nil {
				return err
			}

			_, err = auth.Authorize(cmd.Context(), cfg, loader.Store, loader.TokenKey, cmd.InOrStdin(), cmd.OutOrStdout())
			return err
		},
	}
}
