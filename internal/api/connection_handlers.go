package api

import (
	"context"
	"net/http"

	"github.com/commvault-ps/cvpysdk-sub001/internal/commcell"
)

// connectionView is a connection as the API shows it, password masked.
type connectionView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Insecure bool   `json:"insecure"`
}

func (s *Server) ListConnections(w http.ResponseWriter, r *http.Request) {
	conns := s.Connections.List()
	out := make([]connectionView, 0, len(conns))
	for _, c := range conns {
		out = append(out, connectionView{
			ID:       c.ID,
			Name:     c.Name,
			URL:      c.BaseURL(),
			Username: c.Username,
			Password: c.MaskedPassword(),
			Insecure: c.Insecure,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// TestConnection logs in afresh and reports whether it worked. A failed
// login is a result, not an error.
func (s *Server) TestConnection(w http.ResponseWriter, r *http.Request) {
	conn := s.connection(r)
	if conn == nil {
		writeError(w, http.StatusNotFound, "connection not found")
		return
	}
	if _, err := s.Connect(r.Context(), conn); err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"ok":    false,
			"error": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok": true,
	})
}

// DeleteConnection stops serving a connection and drops its session.
func (s *Server) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	conn := s.connection(r)
	if conn == nil || !s.Connections.Delete(conn.ID) {
		writeError(w, http.StatusNotFound, "connection not found")
		return
	}
	s.mu.Lock()
	delete(s.sessions, conn.ID)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

// RefreshConnection drops the cached client and credential listings so the
// next browse request reloads them from the Commserve.
func (s *Server) RefreshConnection(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, func(ctx context.Context, cc *commcell.Commcell) (interface{}, error) {
		cc.Reset()
		return map[string]interface{}{"ok": true}, nil
	})
}
