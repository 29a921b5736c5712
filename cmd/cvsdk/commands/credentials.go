package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/commvault-ps/cvpysdk-sub001/internal/commcell"
)

func newCredentialsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage saved credentials",
	}
	cmd.AddCommand(newCredentialsListCommand(opts))
	cmd.AddCommand(newCredentialsAddCommand(opts))
	cmd.AddCommand(newCredentialsDeleteCommand(opts))
	return cmd
}

func newCredentialsListCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withCommcell(cmd.Context(), func(ctx context.Context, cc *commcell.Commcell) error {
				credentials, err := cc.Credentials(ctx)
				if err != nil {
					return err
				}
				return opts.printRegistry(credentials.Registry)
			})
		},
	}
}

func newCredentialsAddCommand(opts *rootOptions) *cobra.Command {
	var req commcell.NewCredentialRequest
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Save a credential",
		Example: `  cvsdk credentials add svc-backup --type windows --user LAB\\svc --password '...'
  cvsdk credentials add root-linux --type linux --user root --password '...'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Name = args[0]
			return opts.withCommcell(cmd.Context(), func(ctx context.Context, cc *commcell.Commcell) error {
				credentials, err := cc.Credentials(ctx)
				if err != nil {
					return err
				}
				if err := credentials.Add(ctx, req); err != nil {
					return err
				}
				fmt.Fprintf(opts.stdout, "added credential %s\n", req.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.RecordType, "type", "windows", "account type: windows or linux")
	cmd.Flags().StringVar(&req.UserName, "user", "", "account user name")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	cmd.Flags().StringVar(&req.Description, "description", "", "free-text description")
	return cmd
}

func newCredentialsDeleteCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a saved credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withCommcell(cmd.Context(), func(ctx context.Context, cc *commcell.Commcell) error {
				credentials, err := cc.Credentials(ctx)
				if err != nil {
					return err
				}
				if err := credentials.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(opts.stdout, "deleted credential %s\n", args[0])
				return nil
			})
		},
	}
}
