// Package commands implements the cvsdk command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/commvault-ps/cvpysdk-sub001/internal/commcell"
	"github.com/commvault-ps/cvpysdk-sub001/internal/config"
	"github.com/commvault-ps/cvpysdk-sub001/internal/session"
)

// rootOptions are the persistent flags every subcommand sees.
type rootOptions struct {
	configPath string
	connection string
	timezone   string
	verbose    bool
	jsonOutput bool

	stdout io.Writer
	stderr io.Writer
}

// Execute runs the root command with the process stdio.
func Execute(ctx context.Context, version, commit, buildDate string) error {
	return NewRootCmd(os.Stdout, os.Stderr, version, commit, buildDate).ExecuteContext(ctx)
}

// NewRootCmd returns the root cobra command for the cvsdk CLI.
func NewRootCmd(stdout, stderr io.Writer, version, commit, buildDate string) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr}
	cmd := &cobra.Command{
		Use:   "cvsdk",
		Short: "Browse and operate a Commserve from the command line",
		Long: `cvsdk talks to a Commserve REST API. It lists clients, agents, instances,
backupsets, subclients, credentials and schedules, toggles agent activity,
starts backups and serves the same operations over HTTP.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path")
	cmd.PersistentFlags().StringVar(&opts.connection, "connection", "", "connection name (default: default_connection)")
	cmd.PersistentFlags().StringVar(&opts.timezone, "timezone", "", "IANA zone scheduled times are given in")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output in JSON format")

	cmd.AddCommand(newClientsCommand(opts))
	cmd.AddCommand(newAgentsCommand(opts))
	cmd.AddCommand(newInstancesCommand(opts))
	cmd.AddCommand(newBackupsetsCommand(opts))
	cmd.AddCommand(newSubclientsCommand(opts))
	cmd.AddCommand(newCredentialsCommand(opts))
	cmd.AddCommand(newSchedulesCommand(opts))
	cmd.AddCommand(newActivityCommand(opts))
	cmd.AddCommand(newBackupCommand(opts))
	cmd.AddCommand(newRestoreCommand(opts))
	cmd.AddCommand(newJobCommand(opts))
	cmd.AddCommand(newServeCommand(opts))

	return cmd
}

// loadConfig reads the config file with the command-line overrides applied.
func (o *rootOptions) loadConfig(listen string) (*config.Config, error) {
	flags := config.Flags{Connection: o.connection, Listen: listen, TimeZone: o.timezone}
	if o.verbose {
		flags.LogLevel = "debug"
	}
	return config.Load(o.configPath, flags)
}

func (o *rootOptions) runtime(listen string) (*session.Runtime, error) {
	cfg, err := o.loadConfig(listen)
	if err != nil {
		return nil, err
	}
	return session.NewRuntime(cfg)
}

// withCommcell connects to the selected connection and runs fn.
func (o *rootOptions) withCommcell(ctx context.Context, fn func(ctx context.Context, cc *commcell.Commcell) error) error {
	rt, err := o.runtime("")
	if err != nil {
		return err
	}
	defer rt.Close(context.Background())

	cc, err := rt.ConnectNamed(ctx, o.connection)
	if err != nil {
		return err
	}
	return fn(ctx, cc)
}
