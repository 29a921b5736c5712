package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/commvault-ps/cvpysdk-sub001/internal/commcell"
	"github.com/commvault-ps/cvpysdk-sub001/internal/schedpattern"
)

func newActivityCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Enable or disable backup and restore on an agent",
	}
	cmd.AddCommand(newActivityToggleCommand(opts, true))
	cmd.AddCommand(newActivityToggleCommand(opts, false))
	return cmd
}

func newActivityToggleCommand(opts *rootOptions, enable bool) *cobra.Command {
	var activity, at string
	use, short := "disable", "Disable an activity on an agent"
	if enable {
		use, short = "enable", "Enable an activity on an agent, now or at a future time"
	}
	cmd := &cobra.Command{
		Use:   use + " CLIENT AGENT",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if activity != "backup" && activity != "restore" {
				return fmt.Errorf("--activity must be backup or restore, got %q", activity)
			}
			if !enable && at != "" {
				return fmt.Errorf("--at only applies to enable")
			}
			return opts.withCommcell(cmd.Context(), func(ctx context.Context, cc *commcell.Commcell) error {
				agent, err := lookupAgent(ctx, cc, args[0], args[1])
				if err != nil {
					return err
				}
				if err := toggle(ctx, agent, activity, enable, at); err != nil {
					return err
				}
				if opts.jsonOutput {
					return opts.printJSON(map[string]interface{}{
						"agent":           agent.Name(),
						"backup_enabled":  agent.IsBackupEnabled(),
						"restore_enabled": agent.IsRestoreEnabled(),
					})
				}
				fmt.Fprintf(opts.stdout, "%s: backup enabled=%t, restore enabled=%t\n",
					agent.Name(), agent.IsBackupEnabled(), agent.IsRestoreEnabled())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&activity, "activity", "backup", "backup or restore")
	if enable {
		cmd.Flags().StringVar(&at, "at", "", "enable at this future time ("+commcell.TimeLayout+")")
	}
	return cmd
}

func toggle(ctx context.Context, agent commcell.Agent, activity string, enable bool, at string) error {
	switch {
	case activity == "backup" && !enable:
		return agent.DisableBackup(ctx)
	case activity == "backup" && at != "":
		return agent.EnableBackupAtTime(ctx, at)
	case activity == "backup":
		return agent.EnableBackup(ctx)
	case !enable:
		return agent.DisableRestore(ctx)
	case at != "":
		return agent.EnableRestoreAtTime(ctx, at)
	default:
		return agent.EnableRestore(ctx)
	}
}

func newBackupCommand(opts *rootOptions) *cobra.Command {
	var level, schedulePath string
	cmd := &cobra.Command{
		Use:   "backup CLIENT AGENT BACKUPSET SUBCLIENT",
		Short: "Start or schedule a subclient backup",
		Example: `  cvsdk backup client1 "file system" defaultBackupSet default --level full
  cvsdk backup client1 "file system" defaultBackupSet default --schedule nightly.yaml`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pattern *schedpattern.Pattern
			if schedulePath != "" {
				data, err := os.ReadFile(schedulePath)
				if err != nil {
					return fmt.Errorf("reading schedule: %w", err)
				}
				p, err := schedpattern.Load(data)
				if err != nil {
					return err
				}
				pattern = &p
			}
			return opts.withCommcell(cmd.Context(), func(ctx context.Context, cc *commcell.Commcell) error {
				sub, err := lookupSubclient(ctx, cc, args)
				if err != nil {
					return err
				}
				var h *commcell.Handle
				if pattern != nil {
					h, err = sub.BackupWithOptions(ctx, commcell.BackupOptions{Level: level, Schedule: pattern})
				} else {
					h, err = sub.Backup(ctx, level)
				}
				if err != nil {
					return err
				}
				return opts.printHandle(h)
			})
		},
	}
	cmd.Flags().StringVar(&level, "level", "incremental", "full, incremental, differential, synthetic_full or transaction_log")
	cmd.Flags().StringVar(&schedulePath, "schedule", "", "YAML schedule pattern; schedules the backup instead of starting it")
	return cmd
}

func newRestoreCommand(opts *rootOptions) *cobra.Command {
	var (
		ro         commcell.RestoreOptions
		destClient string
		destPath   string
	)
	cmd := &cobra.Command{
		Use:   "restore CLIENT AGENT BACKUPSET SUBCLIENT",
		Short: "Restore file system paths in place or to another client",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withCommcell(cmd.Context(), func(ctx context.Context, cc *commcell.Commcell) error {
				sub, err := lookupSubclient(ctx, cc, args)
				if err != nil {
					return err
				}
				fs, ok := sub.(*commcell.FileSystemSubclient)
				if !ok {
					return fmt.Errorf("subclient %s is not a file system subclient", sub.Name())
				}
				var h *commcell.Handle
				if destClient != "" || destPath != "" {
					h, err = fs.RestoreOutOfPlace(ctx, destClient, destPath, ro)
				} else {
					h, err = fs.RestoreInPlace(ctx, ro)
				}
				if err != nil {
					return err
				}
				return opts.printHandle(h)
			})
		},
	}
	cmd.Flags().StringSliceVar(&ro.Paths, "path", nil, "path to restore (repeatable)")
	cmd.Flags().BoolVar(&ro.Overwrite, "overwrite", false, "overwrite existing files")
	cmd.Flags().BoolVar(&ro.RestoreACLs, "acls", true, "restore ACLs")
	cmd.Flags().StringVar(&ro.FromTime, "from", "", "browse backups from this time ("+commcell.TimeLayout+")")
	cmd.Flags().StringVar(&ro.ToTime, "to", "", "browse backups up to this time ("+commcell.TimeLayout+")")
	cmd.Flags().StringVar(&destClient, "dest-client", "", "restore to this client")
	cmd.Flags().StringVar(&destPath, "dest-path", "", "restore under this path on the destination client")
	return cmd
}

func newJobCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "job ID",
		Short: "Show a job summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withCommcell(cmd.Context(), func(ctx context.Context, cc *commcell.Commcell) error {
				job, err := cc.Job(args[0])
				if err != nil {
					return err
				}
				summary, err := job.Summary(ctx)
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return opts.printJSON(summary)
				}
				fmt.Fprintf(opts.stdout, "job %s: %s %s\n", job, summary.String("jobType"), summary.String("status"))
				return nil
			})
		},
	}
}

func lookupSubclient(ctx context.Context, cc *commcell.Commcell, args []string) (commcell.Subclient, error) {
	subclients, err := lookupSubclients(ctx, cc, args[0], args[1], args[2])
	if err != nil {
		return nil, err
	}
	return subclients.Get(ctx, args[3])
}
