package session

import (
	"context"
	"net/http"
	"testing"

	"github.com/commvault-ps/cvpysdk-sub001/internal/config"
	"github.com/commvault-ps/cvpysdk-sub001/internal/cvtest"
)

func testConfig(cs *cvtest.Commserve) *config.Config {
	conn := cs.Connection("lab")
	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Connections = []config.ConnectionConfig{{
		Name:     conn.Name,
		Scheme:   conn.Scheme,
		Host:     conn.Host,
		Port:     conn.Port,
		APIPath:  conn.APIPath,
		Username: conn.Username,
		Password: conn.Password,
	}}
	return cfg
}

func TestConnectNamed_LogsIn(t *testing.T) {
	cs := cvtest.NewCommserve(t)
	rt, err := NewRuntime(testConfig(cs))
	if err != nil {
		t.Fatalf("NewRuntime returned error: %v", err)
	}
	defer rt.Close(context.Background())

	cc, err := rt.ConnectNamed(context.Background(), "")
	if err != nil {
		t.Fatalf("ConnectNamed returned error: %v", err)
	}
	if n := cs.Count(http.MethodPost, "Login"); n != 1 {
		t.Errorf("Login requests = %d, want 1", n)
	}
	clients, err := cc.Clients(context.Background())
	if err != nil {
		t.Fatalf("Clients returned error: %v", err)
	}
	if !clients.Has("client1") {
		t.Errorf("Clients = %v, want client1", clients.Names())
	}
}

func TestConnectNamed_Unknown(t *testing.T) {
	cs := cvtest.NewCommserve(t)
	rt, err := NewRuntime(testConfig(cs))
	if err != nil {
		t.Fatalf("NewRuntime returned error: %v", err)
	}
	if _, err := rt.ConnectNamed(context.Background(), "prod"); err == nil {
		t.Fatal("ConnectNamed(prod) should fail")
	}
	if n := cs.Count(http.MethodPost, "Login"); n != 0 {
		t.Errorf("Login requests = %d, want 0", n)
	}
}

func TestConnect_LoginRejected(t *testing.T) {
	cs := cvtest.NewCommserve(t)
	cs.JSON(http.MethodPost, "Login", map[string]interface{}{
		"errList": []interface{}{map[string]interface{}{"errLogMessage": "Invalid credentials"}},
	})
	rt, err := NewRuntime(testConfig(cs))
	if err != nil {
		t.Fatalf("NewRuntime returned error: %v", err)
	}
	if _, err := rt.Connect(context.Background(), cs.Connection("lab")); err == nil {
		t.Fatal("Connect should fail when login returns no token")
	}
}
