package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cvsdk.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const sample = `
connections:
  - name: prod
    host: cs.example.com
    username: admin
    password: secret
  - name: lab
    scheme: http
    host: 10.0.0.5
    api_path: /commandcenter/api
    insecure: true
default_connection: prod
timezone: UTC
listen: ":9090"
logging:
  level: debug
  format: json
  output: stdout
`

func TestLoad_File(t *testing.T) {
	c, err := Load(writeConfig(t, sample), Flags{})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(c.Connections) != 2 {
		t.Fatalf("len(Connections) = %d, want 2", len(c.Connections))
	}
	if c.Listen != ":9090" {
		t.Errorf("Listen = %q, want :9090", c.Listen)
	}
	if c.Logging.Level != "debug" || c.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want debug/json", c.Logging)
	}
	if !c.Metrics.Enabled || c.Metrics.Namespace != "cvsdk" {
		t.Errorf("Metrics = %+v, want defaults kept", c.Metrics)
	}
}

func TestLoad_FlagsWin(t *testing.T) {
	c, err := Load(writeConfig(t, sample), Flags{Connection: "lab", Listen: ":7070", LogLevel: "warn"})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if c.DefaultConnection != "lab" {
		t.Errorf("DefaultConnection = %q, want lab", c.DefaultConnection)
	}
	if c.Listen != ":7070" {
		t.Errorf("Listen = %q, want :7070", c.Listen)
	}
	if c.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", c.Logging.Level)
	}
}

func TestLoad_NoFile(t *testing.T) {
	c, err := Load("", Flags{})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if c.Listen != DefaultListen {
		t.Errorf("Listen = %q, want %q", c.Listen, DefaultListen)
	}
	if _, err := c.Connection(""); !errors.Is(err, ErrNoConnection) {
		t.Errorf("Connection(\"\") error = %v, want ErrNoConnection", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), Flags{}); err == nil {
		t.Fatal("Load should fail for a missing file")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "connections: [\n"},
		{"missing host", "connections:\n  - name: a\n"},
		{"bad scheme", "connections:\n  - name: a\n    host: cs\n    scheme: ftp\n"},
		{"bad port", "connections:\n  - name: a\n    host: cs\n    port: 70000\n"},
		{"duplicate name", "connections:\n  - name: a\n    host: cs\n  - name: A\n    host: cs2\n"},
		{"unknown default", "connections:\n  - name: a\n    host: cs\ndefault_connection: b\n"},
		{"bad timezone", "timezone: Mars/Olympus\n"},
		{"bad log level", "logging:\n  level: loud\n"},
		{"bad exporter", "tracing:\n  exporter: jaeger\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.body), Flags{}); err == nil {
				t.Errorf("Load(%q) should fail", tc.body)
			}
		})
	}
}

func TestConnection(t *testing.T) {
	c, err := Load(writeConfig(t, sample), Flags{})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	tests := []struct {
		name    string
		lookup  string
		wantURL string
	}{
		{"default", "", "https://cs.example.com:443/webconsole/api"},
		{"by name", "LAB", "http://10.0.0.5:80/commandcenter/api"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			conn, err := c.Connection(tc.lookup)
			if err != nil {
				t.Fatalf("Connection(%q) returned error: %v", tc.lookup, err)
			}
			if got := conn.BaseURL(); got != tc.wantURL {
				t.Errorf("BaseURL() = %q, want %q", got, tc.wantURL)
			}
		})
	}
	if _, err := c.Connection("staging"); err == nil {
		t.Error("Connection(staging) should fail")
	}
}

func TestConnection_SingleWithoutDefault(t *testing.T) {
	c, err := Load(writeConfig(t, "connections:\n  - name: only\n    host: cs\n"), Flags{})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	conn, err := c.Connection("")
	if err != nil {
		t.Fatalf("Connection returned error: %v", err)
	}
	if conn.Name != "only" {
		t.Errorf("Name = %q, want only", conn.Name)
	}
}

func TestConnection_CACertFile(t *testing.T) {
	dir := t.TempDir()
	pem := filepath.Join(dir, "ca.pem")
	if err := os.WriteFile(pem, []byte("-----BEGIN CERTIFICATE-----\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Load(writeConfig(t, "connections:\n  - name: a\n    host: cs\n    ca_cert_file: "+pem+"\n"), Flags{})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	conn, err := c.Connection("a")
	if err != nil {
		t.Fatalf("Connection returned error: %v", err)
	}
	if conn.CACert == "" {
		t.Error("CACert should be loaded from ca_cert_file")
	}
}

func TestLocation(t *testing.T) {
	c := Default()
	if loc, _ := c.Location(); loc == nil {
		t.Fatal("Location() = nil for empty timezone")
	}
	c.TimeZone = "UTC"
	loc, err := c.Location()
	if err != nil || loc.String() != "UTC" {
		t.Errorf("Location() = %v, %v, want UTC", loc, err)
	}
}
