package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/commvault-ps/cvpysdk-sub001/internal/commcell"
)

// activityRequest toggles an agent activity. At, when set with Enable,
// schedules the enable for a future "YYYY-MM-DD HH:MM:SS" time.
type activityRequest struct {
	Enable bool   `json:"enable"`
	At     string `json:"at,omitempty"`
}

type backupRequest struct {
	Level string `json:"level,omitempty"`
}

// handleView is the JSON form of a submitted operation.
type handleView struct {
	Jobs     []string `json:"jobs,omitempty"`
	Schedule string   `json:"schedule,omitempty"`
}

func newHandleView(h *commcell.Handle) handleView {
	v := handleView{}
	for _, j := range h.Jobs {
		v.Jobs = append(v.Jobs, j.ID())
	}
	if h.Scheduled() {
		v.Schedule = h.Schedule.TaskID()
	}
	return v
}

// decodeOptional decodes a JSON body into v; an empty body leaves v as is.
func decodeOptional(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == io.EOF {
		return nil
	}
	return err
}

func (s *Server) SetAgentActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	activity := chi.URLParam(r, "activity")
	if activity != "backup" && activity != "restore" {
		writeError(w, http.StatusBadRequest, "activity must be backup or restore")
		return
	}
	s.serve(w, r, func(ctx context.Context, cc *commcell.Commcell) (interface{}, error) {
		agent, err := agentFor(ctx, cc, r)
		if err != nil {
			return nil, err
		}
		if err := setActivity(ctx, agent, activity, req); err != nil {
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

func setActivity(ctx context.Context, agent commcell.Agent, activity string, req activityRequest) error {
	switch {
	case activity == "backup" && req.Enable && req.At != "":
		return agent.EnableBackupAtTime(ctx, req.At)
	case activity == "backup" && req.Enable:
		return agent.EnableBackup(ctx)
	case activity == "backup":
		return agent.DisableBackup(ctx)
	case req.Enable && req.At != "":
		return agent.EnableRestoreAtTime(ctx, req.At)
	case req.Enable:
		return agent.EnableRestore(ctx)
	default:
		return agent.DisableRestore(ctx)
	}
}

func (s *Server) RunBackup(w http.ResponseWriter, r *http.Request) {
	var req backupRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	s.serve(w, r, func(ctx context.Context, cc *commcell.Commcell) (interface{}, error) {
		sub, err := subclientFor(ctx, cc, r)
		if err != nil {
			return nil, err
		}
		h, err := sub.Backup(ctx, req.Level)
		if err != nil {
			return nil, err
		}
		s.Log.Info().Str("subclient", sub.Name()).Str("handle", h.String()).Msg("backup submitted")
		return newHandleView(h), nil
	})
}
