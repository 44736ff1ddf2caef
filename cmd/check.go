package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the stored token by reading the mailbox profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mb, err := o.newDialer(o.newLoader())(ctx)
			if err != nil {
				return err
			}

			profile, err := mb.GetProfile(ctx)
			if err != nil {
				return fmt.Errorf("connection check failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Success! Connected to account: %s\n", profile.EmailAddress)
			fmt.Fprintf(out, "Total messages in inbox: %d\n", profile.MessagesTotal)
			return nil
		},
	}
}
