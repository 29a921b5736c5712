package models

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// DefaultAPIPath is where the Commserve web console exposes its REST API.
const DefaultAPIPath = "/webconsole/api"

// Connection describes how to reach and authenticate against a Commserve.
type Connection struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Scheme   string `json:"scheme"` // "http" or "https"
	Host     string `json:"host"`
	Port     int    `json:"port"`
	APIPath  string `json:"api_path"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Insecure bool   `json:"insecure"` // skip TLS verification
	CACert   string `json:"-"`
}

// BaseURL returns the root URL every service path is appended to.
func (c *Connection) BaseURL() string {
	apiPath := c.APIPath
	if apiPath == "" {
		apiPath = DefaultAPIPath
	}
	return fmt.Sprintf("%s://%s:%d/%s", c.Scheme, c.Host, c.Port, strings.Trim(apiPath, "/"))
}

// MaskedPassword returns a fixed-width placeholder for a non-empty password.
func (c *Connection) MaskedPassword() string {
	if c.Password == "" {
		return ""
	}
	return "••••••••"
}

// ConnectionStore is an in-memory thread-safe store for connections.
type ConnectionStore struct {
	mu    sync.RWMutex
	conns map[string]*Connection
}

// NewConnectionStore creates an empty connection store.
func NewConnectionStore() *ConnectionStore {
	return &ConnectionStore{conns: make(map[string]*Connection)}
}

// Create adds a new connection, assigning it a UUID.
func (s *ConnectionStore) Create(c *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = uuid.New().String()
	s.conns[c.ID] = c
}

// Get returns a connection by ID, or nil if not found.
func (s *ConnectionStore) Get(id string) *Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conns[id]
}

// ByName returns the connection with the given name (case-insensitive), or nil.
func (s *ConnectionStore) ByName(name string) *Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.conns {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// List returns all connections ordered by name.
func (s *ConnectionStore) List() []*Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*Connection, 0, len(s.conns))
	for _, c := range s.conns {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Delete removes a connection by ID.
func (s *ConnectionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conns[id]; !ok {
		return false
	}
	delete(s.conns, id)
	return true
}
