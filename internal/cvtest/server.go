// Package cvtest provides a scripted fake Commserve for tests.
package cvtest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
	"github.com/commvault-ps/cvpysdk-sub001/internal/transport"
)

// APIPath is where the fake mounts its routes.
const APIPath = "/webconsole/api"

// Request is one request the fake received.
type Request struct {
	Method string
	Path   string // relative to APIPath, without query
	Query  url.Values
	Body   models.Document
}

// Server is an httptest server whose routes are scripted per test.
// Routes use chi patterns relative to APIPath, e.g. "Subclient/{id}".
type Server struct {
	*httptest.Server

	t      testing.TB
	router chi.Router

	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []Request
}

// NewServer starts an empty fake and closes it when the test ends.
func NewServer(t testing.TB) *Server {
	s := &Server{
		t:      t,
		router: chi.NewRouter(),
		routes: make(map[string]http.HandlerFunc),
	}
	s.router.Use(s.record)
	s.Server = httptest.NewServer(s.router)
	t.Cleanup(s.Close)
	return s
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(data))

		req := Request{
			Method: r.Method,
			Path:   strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, APIPath), "/"),
			Query:  r.URL.Query(),
		}
		if len(bytes.TrimSpace(data)) > 0 {
			json.Unmarshal(data, &req.Body)
		}
		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// Handle scripts method+pattern. Re-scripting an existing route replaces its handler.
func (s *Server) Handle(method, pattern string, h http.HandlerFunc) {
	key := method + " " + pattern
	s.mu.Lock()
	_, exists := s.routes[key]
	s.routes[key] = h
	s.mu.Unlock()
	if exists {
		return
	}
	s.router.MethodFunc(method, APIPath+"/"+strings.TrimPrefix(pattern, "/"), func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		current := s.routes[key]
		s.mu.Unlock()
		current(w, r)
	})
}

// JSON scripts a route that always answers body with status 200.
func (s *Server) JSON(method, pattern string, body interface{}) {
	s.Handle(method, pattern, func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, body)
	})
}

// Sequence scripts a route that answers bodies in order, repeating the last one.
func (s *Server) Sequence(method, pattern string, bodies ...interface{}) {
	var mu sync.Mutex
	n := 0
	s.Handle(method, pattern, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		i := n
		if n < len(bodies)-1 {
			n++
		}
		mu.Unlock()
		WriteJSON(w, http.StatusOK, bodies[i])
	})
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests matched method and path (query ignored).
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Last returns the most recent request for method and path.
func (s *Server) Last(method, path string) (Request, bool) {
	reqs := s.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return Request{}, false
}

// Reset forgets recorded requests.
func (s *Server) Reset() {
	s.mu.Lock()
	s.requests = nil
	s.mu.Unlock()
}

// Connection describes the fake the way a configured Commserve is described.
func (s *Server) Connection(name string) *models.Connection {
	u, err := url.Parse(s.URL)
	if err != nil {
		s.t.Fatalf("parsing fake URL: %v", err)
	}
	port, _ := strconv.Atoi(u.Port())
	return &models.Connection{
		Name:     name,
		Scheme:   u.Scheme,
		Host:     u.Hostname(),
		Port:     port,
		APIPath:  APIPath,
		Username: "admin",
		Password: "admin",
	}
}

// Transport returns a transport client pointed at the fake.
func (s *Server) Transport(opts ...transport.Option) *transport.Client {
	conn := s.Connection("fake")
	opts = append([]transport.Option{transport.WithHTTPClient(s.Client()), transport.WithToken("QSDK test")}, opts...)
	return transport.NewClient(conn, opts...)
}

// WriteJSON writes body as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if raw, ok := body.(string); ok {
		io.WriteString(w, raw)
		return
	}
	json.NewEncoder(w).Encode(body)
}

// Success is the status document most update endpoints answer with.
func Success() models.Document {
	return models.Document{"response": []interface{}{models.Document{"errorCode": 0}}}
}

// Failure is an update status document carrying a non-zero code.
func Failure(code int, message string) models.Document {
	return models.Document{"response": []interface{}{models.Document{"errorCode": code, "errorString": message}}}
}
