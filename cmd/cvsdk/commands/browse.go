package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/commvault-ps/cvpysdk-sub001/internal/commcell"
)

func newClientsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clients",
		Short: "List clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withCommcell(cmd.Context(), func(ctx context.Context, cc *commcell.Commcell) error {
				clients, err := cc.Clients(ctx)
				if err != nil {
					return err
				}
				return opts.printRegistry(clients.Registry)
			})
		},
	}
}

func newAgentsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "agents CLIENT",
		Short: "List the agents installed on a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withCommcell(cmd.Context(), func(ctx context.Context, cc *commcell.Commcell) error {
				client, err := cc.Client(ctx, args[0])
				if err != nil {
					return err
				}
				agents, err := client.Agents(ctx)
				if err != nil {
					return err
				}
				return opts.printRegistry(agents.Registry)
			})
		},
	}
}

func newInstancesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "instances CLIENT AGENT",
		Short: "List the instances of an agent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withCommcell(cmd.Context(), func(ctx context.Context, cc *commcell.Commcell) error {
				agent, err := lookupAgent(ctx, cc, args[0], args[1])
				if err != nil {
					return err
				}
				instances, err := agent.Instances(ctx)
				if err != nil {
					return err
				}
				return opts.printRegistry(instances.Registry)
			})
		},
	}
}

func newBackupsetsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "backupsets CLIENT AGENT",
		Short: "List the backupsets of an agent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withCommcell(cmd.Context(), func(ctx context.Context, cc *commcell.Commcell) error {
				agent, err := lookupAgent(ctx, cc, args[0], args[1])
				if err != nil {
					return err
				}
				backupsets, err := agent.Backupsets(ctx)
				if err != nil {
					return err
				}
				return opts.printRegistry(backupsets.Registry)
			})
		},
	}
}

func newSubclientsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "subclients CLIENT AGENT BACKUPSET",
		Short: "List the subclients of a backupset",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withCommcell(cmd.Context(), func(ctx context.Context, cc *commcell.Commcell) error {
				subclients, err := lookupSubclients(ctx, cc, args[0], args[1], args[2])
				if err != nil {
					return err
				}
				return opts.printRegistry(subclients.Registry)
			})
		},
	}
}

func newSchedulesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schedules",
		Short: "List schedule tasks by task id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withCommcell(cmd.Context(), func(ctx context.Context, cc *commcell.Commcell) error {
				schedules, err := cc.Schedules(ctx)
				if err != nil {
					return err
				}
				return opts.printRegistry(schedules.Registry)
			})
		},
	}
}

func lookupAgent(ctx context.Context, cc *commcell.Commcell, client, agent string) (commcell.Agent, error) {
	c, err := cc.Client(ctx, client)
	if err != nil {
		return nil, err
	}
	return c.Agent(ctx, agent)
}

func lookupSubclients(ctx context.Context, cc *commcell.Commcell, client, agent, backupset string) (*commcell.Subclients, error) {
	a, err := lookupAgent(ctx, cc, client, agent)
	if err != nil {
		return nil, err
	}
	backupsets, err := a.Backupsets(ctx)
	if err != nil {
		return nil, err
	}
	bs, err := backupsets.Get(ctx, backupset)
	if err != nil {
		return nil, err
	}
	return bs.Subclients(ctx)
}
