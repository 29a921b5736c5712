package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/commvault-ps/cvpysdk-sub001/internal/commcell"
	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
)

type agentView struct {
	Name           string `json:"name"`
	ID             string `json:"id"`
	BackupEnabled  bool   `json:"backup_enabled"`
	RestoreEnabled bool   `json:"restore_enabled"`
}

type subclientView struct {
	Name          string          `json:"name"`
	ID            string          `json:"id"`
	Description   string          `json:"description"`
	BackupEnabled bool            `json:"backup_enabled"`
	Properties    models.Document `json:"properties"`
}

func (s *Server) ListClients(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, func(ctx context.Context, cc *commcell.Commcell) (interface{}, error) {
		clients, err := cc.Clients(ctx)
		if err != nil {
			return nil, err
		}
		return entries(clients.Registry), nil
	})
}

func (s *Server) GetClient(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, func(ctx context.Context, cc *commcell.Commcell) (interface{}, error) {
		client, err := cc.Client(ctx, chi.URLParam(r, "client"))
		if err != nil {
			return nil, err
		}
		return client.Properties(), nil
	})
}

func (s *Server) ListAgents(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, func(ctx context.Context, cc *commcell.Commcell) (interface{}, error) {
		client, err := cc.Client(ctx, chi.URLParam(r, "client"))
		if err != nil {
			return nil, err
		}
		agents, err := client.Agents(ctx)
		if err != nil {
			return nil, err
		}
		return entries(agents.Registry), nil
	})
}

func (s *Server) GetAgent(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, func(ctx context.Context, cc *commcell.Commcell) (interface{}, error) {
		agent, err := agentFor(ctx, cc, r)
		if err != nil {
			return nil, err
		}
		return agentView{
			Name:           agent.Name(),
			ID:             agent.ID(),
			BackupEnabled:  agent.IsBackupEnabled(),
			RestoreEnabled: agent.IsRestoreEnabled(),
		}, nil
	})
}

func (s *Server) ListInstances(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, func(ctx context.Context, cc *commcell.Commcell) (interface{}, error) {
		agent, err := agentFor(ctx, cc, r)
		if err != nil {
			return nil, err
		}
		instances, err := agent.Instances(ctx)
		if err != nil {
			return nil, err
		}
		return entries(instances.Registry), nil
	})
}

func (s *Server) ListBackupsets(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, func(ctx context.Context, cc *commcell.Commcell) (interface{}, error) {
		agent, err := agentFor(ctx, cc, r)
		if err != nil {
			return nil, err
		}
		backupsets, err := agent.Backupsets(ctx)
		if err != nil {
			return nil, err
		}
		return entries(backupsets.Registry), nil
	})
}

func (s *Server) ListSubclients(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, func(ctx context.Context, cc *commcell.Commcell) (interface{}, error) {
		subclients, err := subclientsFor(ctx, cc, r)
		if err != nil {
			return nil, err
		}
		return entries(subclients.Registry), nil
	})
}

func (s *Server) GetSubclient(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, func(ctx context.Context, cc *commcell.Commcell) (interface{}, error) {
		sub, err := subclientFor(ctx, cc, r)
		if err != nil {
			return nil, err
		}
		return subclientView{
			Name:          sub.Name(),
			ID:            sub.ID(),
			Description:   sub.Description(),
			BackupEnabled: sub.IsBackupEnabled(),
			Properties:    sub.Properties(),
		}, nil
	})
}

func (s *Server) ListCredentials(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, func(ctx context.Context, cc *commcell.Commcell) (interface{}, error) {
		credentials, err := cc.Credentials(ctx)
		if err != nil {
			return nil, err
		}
		return entries(credentials.Registry), nil
	})
}

func (s *Server) ListSchedules(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, func(ctx context.Context, cc *commcell.Commcell) (interface{}, error) {
		schedules, err := cc.Schedules(ctx)
		if err != nil {
			return nil, err
		}
		return entries(schedules.Registry), nil
	})
}

func agentFor(ctx context.Context, cc *commcell.Commcell, r *http.Request) (commcell.Agent, error) {
	client, err := cc.Client(ctx, chi.URLParam(r, "client"))
	if err != nil {
		return nil, err
	}
	return client.Agent(ctx, chi.URLParam(r, "agent"))
}

func subclientsFor(ctx context.Context, cc *commcell.Commcell, r *http.Request) (*commcell.Subclients, error) {
	agent, err := agentFor(ctx, cc, r)
	if err != nil {
		return nil, err
	}
	backupsets, err := agent.Backupsets(ctx)
	if err != nil {
		return nil, err
	}
	bs, err := backupsets.Get(ctx, chi.URLParam(r, "backupset"))
	if err != nil {
		return nil, err
	}
	return bs.Subclients(ctx)
}

func subclientFor(ctx context.Context, cc *commcell.Commcell, r *http.Request) (commcell.Subclient, error) {
	subclients, err := subclientsFor(ctx, cc, r)
	if err != nil {
		return nil, err
	}
	return subclients.Get(ctx, chi.URLParam(r, "subclient"))
}
