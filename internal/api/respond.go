package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/commvault-ps/cvpysdk-sub001/internal/commcell"
	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
	"github.com/commvault-ps/cvpysdk-sub001/internal/sdkerr"
)

var (
	errConnectionNotFound = errors.New("connection not found")
	errConnectFailed      = errors.New("connecting to commserve")
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Code  int    `json:"code,omitempty"`
}

// entryView is one item of a registry listing.
type entryView struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeSDKError maps an object model error to an HTTP status.
func writeSDKError(w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error(), Kind: string(sdkerr.KindOf(err))}
	var e *sdkerr.Error
	if errors.As(err, &e) {
		body.Code = e.Code
	}
	writeJSON(w, statusFor(err), body)
}

func statusFor(err error) int {
	if errors.Is(err, errConnectionNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, errConnectFailed) {
		return http.StatusBadGateway
	}
	switch sdkerr.KindOf(err) {
	case sdkerr.KindNotFound, sdkerr.KindIndex:
		return http.StatusNotFound
	case sdkerr.KindInvalidArgument, sdkerr.KindInvalidTimeFormat, sdkerr.KindTimeNotInFuture:
		return http.StatusBadRequest
	case sdkerr.KindAlreadyExists:
		return http.StatusConflict
	case sdkerr.KindUnsupported:
		return http.StatusNotImplemented
	case sdkerr.KindTransport, sdkerr.KindServer, sdkerr.KindMalformedResponse:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// entries lists a registry sorted by name.
func entries(reg *commcell.Registry) []entryView {
	all := reg.All()
	out := make([]entryView, 0, len(all))
	for name, id := range all {
		out = append(out, entryView{Name: name, ID: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// connection resolves the {conn} URL parameter by id or name.
func (s *Server) connection(r *http.Request) *models.Connection {
	key := chi.URLParam(r, "conn")
	if c := s.Connections.Get(key); c != nil {
		return c
	}
	return s.Connections.ByName(key)
}

// withCommcell runs fn against the {conn} Commcell, logging in on first use.
// Requests for one connection run one at a time.
func (s *Server) withCommcell(r *http.Request, fn func(ctx context.Context, cc *commcell.Commcell) error) error {
	conn := s.connection(r)
	if conn == nil {
		return errConnectionNotFound
	}

	s.mu.Lock()
	if s.sessions == nil {
		s.sessions = make(map[string]*liveSession)
	}
	ls, ok := s.sessions[conn.ID]
	if !ok {
		ls = &liveSession{}
		s.sessions[conn.ID] = ls
	}
	s.mu.Unlock()

	ls.mu.Lock()
	defer ls.mu.Unlock()
	ctx := r.Context()
	if ls.cc == nil {
		cc, err := s.Connect(ctx, conn)
		if err != nil {
			return fmt.Errorf("%w: %v", errConnectFailed, err)
		}
		ls.cc = cc
	}
	return fn(ctx, ls.cc)
}

// serve wraps withCommcell with error rendering.
func (s *Server) serve(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, cc *commcell.Commcell) (interface{}, error)) {
	var out interface{}
	err := s.withCommcell(r, func(ctx context.Context, cc *commcell.Commcell) error {
		var err error
		out, err = fn(ctx, cc)
		return err
	})
	if err != nil {
		s.Log.Debug().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeSDKError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
