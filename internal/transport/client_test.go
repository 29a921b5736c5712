package transport

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
	"github.com/commvault-ps/cvpysdk-sub001/internal/telemetry"
)

func newTestClient(ts *httptest.Server, opts ...Option) *Client {
	conn := &models.Connection{Username: "admin", Password: "secret"}
	c := NewClient(conn, opts...)
	c.baseURL = ts.URL + "/webconsole/api"
	c.httpClient = ts.Client()
	return c
}

func TestClient_MakeRequest_GET(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/webconsole/api/Agent" {
			t.Errorf("path = %q, want /webconsole/api/Agent", r.URL.Path)
		}
		if got := r.URL.Query().Get("clientId"); got != "2" {
			t.Errorf("clientId = %q, want 2", got)
		}
		if r.Header.Get(RequestIDHeader) == "" {
			t.Error("request id header not set")
		}
		if got := r.Header.Get("Authtoken"); got != "QSDK abc" {
			t.Errorf("Authtoken = %q, want %q", got, "QSDK abc")
		}
		w.Write([]byte(`{"agentProperties":[]}`))
	}))
	defer ts.Close()

	c := newTestClient(ts, WithToken("QSDK abc"))
	resp, err := c.MakeRequest(context.Background(), http.MethodGet, "Agent?clientId=2", nil)
	if err != nil {
		t.Fatalf("MakeRequest returned error: %v", err)
	}
	if !resp.OK() {
		t.Errorf("OK() = false for status %d", resp.StatusCode)
	}
	doc, err := resp.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if _, ok := doc["agentProperties"]; !ok {
		t.Errorf("JSON() = %v, missing agentProperties", doc)
	}
}

func TestClient_MakeRequest_POSTBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if body["name"] != "cred1" {
			t.Errorf("body name = %v, want cred1", body["name"])
		}
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	c := newTestClient(ts)
	if _, err := c.MakeRequest(context.Background(), http.MethodPost, "/Credential", map[string]string{"name": "cred1"}); err != nil {
		t.Fatalf("MakeRequest returned error: %v", err)
	}
}

func TestClient_MakeRequest_ErrorStatusIsNotError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"errorCode":500,"errorMessage":"database offline"}`))
	}))
	defer ts.Close()

	c := newTestClient(ts)
	resp, err := c.MakeRequest(context.Background(), http.MethodGet, "Client", nil)
	if err != nil {
		t.Fatalf("MakeRequest returned error: %v", err)
	}
	if resp.OK() {
		t.Error("OK() = true for status 500")
	}
	if got := UpdateResponse(resp.Text()); got != "database offline" {
		t.Errorf("UpdateResponse = %q, want %q", got, "database offline")
	}
}

func TestClient_MakeRequest_ConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := newTestClient(ts)
	ts.Close()

	if _, err := c.MakeRequest(context.Background(), http.MethodGet, "Client", nil); err == nil {
		t.Fatal("MakeRequest should fail when the server is unreachable")
	}
}

func TestClient_MakeRequest_Metrics(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer ts.Close()

	m := telemetry.NewMetrics(telemetry.MetricsConfig{Enabled: true, Namespace: "t"})
	c := newTestClient(ts, WithMetrics(m))
	for i := 0; i < 3; i++ {
		if _, err := c.MakeRequest(context.Background(), http.MethodGet, "Client", nil); err != nil {
			t.Fatal(err)
		}
	}
	got, err := testutil.GatherAndCount(m.Registry(), "t_requests_total")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if got != 1 {
		t.Errorf("series count = %d, want 1", got)
	}
}

func TestClient_Login(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		pw, _ := base64.StdEncoding.DecodeString(body["password"])
		if body["username"] != "admin" || string(pw) != "secret" {
			w.Write([]byte(`{"errList":[{"errLogMessage":"Invalid credentials"}]}`))
			return
		}
		w.Write([]byte(`{"token":"QSDK 123","userName":"admin"}`))
	}))
	defer ts.Close()

	c := newTestClient(ts)
	if err := c.Login(context.Background()); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if c.Token() != "QSDK 123" {
		t.Errorf("Token() = %q, want %q", c.Token(), "QSDK 123")
	}

	bad := newTestClient(ts)
	bad.password = "wrong"
	err := bad.Login(context.Background())
	if err == nil || !strings.Contains(err.Error(), "Invalid credentials") {
		t.Errorf("Login error = %v, want Invalid credentials", err)
	}
}

func TestResponse_JSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"object", `{"a":1}`, false},
		{"empty", "", true},
		{"whitespace", "  \n", true},
		{"array", `[1,2]`, true},
		{"null", `null`, true},
		{"garbage", `<html>`, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := (&Response{StatusCode: 200, Body: []byte(tc.body)}).JSON()
			if (err != nil) != tc.wantErr {
				t.Errorf("JSON() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestUpdateResponse(t *testing.T) {
	long := strings.Repeat("x", 300)
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"errorMessage", `{"errorMessage":"bad"}`, "bad"},
		{"nested error", `{"error":{"errorCode":3,"errorMessage":"nested"}}`, "nested"},
		{"plain text", "Service Unavailable\n", "Service Unavailable"},
		{"truncated", long, long[:200] + "..."},
		{"truncated at rune boundary", strings.Repeat("a", 199) + "é" + long, strings.Repeat("a", 199) + "..."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := UpdateResponse(tc.input); got != tc.expect {
				t.Errorf("UpdateResponse = %q, want %q", got, tc.expect)
			}
		})
	}
}

func TestServicePath(t *testing.T) {
	tests := []struct {
		input  string
		expect string
	}{
		{"Agent?clientId=2", "Agent"},
		{"Subclient/12/action/backup?backupLevel=Full", "Subclient/{id}/action/backup"},
		{"/V4/Credential/7", "V4/Credential/{id}"},
	}
	for _, tc := range tests {
		if got := servicePath(tc.input); got != tc.expect {
			t.Errorf("servicePath(%q) = %q, want %q", tc.input, got, tc.expect)
		}
	}
}
