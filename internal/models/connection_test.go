package models

import (
	"sync"
	"testing"
)

func TestBaseURL(t *testing.T) {
	tests := []struct {
		name   string
		conn   Connection
		expect string
	}{
		{"https default path", Connection{Scheme: "https", Host: "cs.lab.local", Port: 443}, "https://cs.lab.local:443/webconsole/api"},
		{"http custom port", Connection{Scheme: "http", Host: "cs.lab.local", Port: 81}, "http://cs.lab.local:81/webconsole/api"},
		{"custom api path", Connection{Scheme: "https", Host: "cs", Port: 443, APIPath: "/commandcenter/api/"}, "https://cs:443/commandcenter/api"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.conn.BaseURL()
			if got != tc.expect {
				t.Errorf("BaseURL() = %q, want %q", got, tc.expect)
			}
		})
	}
}

func TestMaskedPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		expect   string
	}{
		{"non-empty", "secret123", "••••••••"},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := &Connection{Password: tc.password}
			got := c.MaskedPassword()
			if got != tc.expect {
				t.Errorf("MaskedPassword() = %q, want %q", got, tc.expect)
			}
		})
	}
}

func TestConnectionStore_CRUD(t *testing.T) {
	store := NewConnectionStore()

	conn := &Connection{Name: "Prod", Host: "localhost"}
	store.Create(conn)
	if conn.ID == "" {
		t.Fatal("Create did not assign an ID")
	}

	got := store.Get(conn.ID)
	if got == nil || got.Name != "Prod" {
		t.Fatalf("Get(%s) returned %v", conn.ID, got)
	}
	if store.Get("nonexistent") != nil {
		t.Error("Get(nonexistent) should return nil")
	}

	if store.ByName("prod") != conn {
		t.Error("ByName(prod) should match case-insensitively")
	}
	if store.ByName("lab") != nil {
		t.Error("ByName(lab) should return nil")
	}

	store.Create(&Connection{Name: "Lab", Host: "lab"})
	list := store.List()
	if len(list) != 2 || list[0].Name != "Lab" {
		t.Fatalf("List() = %v, want 2 items ordered by name", list)
	}

	if !store.Delete(conn.ID) {
		t.Fatal("Delete returned false for existing connection")
	}
	if store.Get(conn.ID) != nil {
		t.Error("Get after Delete should return nil")
	}
	if store.Delete("missing") {
		t.Error("Delete should return false for missing ID")
	}
}

func TestConnectionStore_Concurrent(t *testing.T) {
	store := NewConnectionStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Create(&Connection{Name: "concurrent", Host: "localhost"})
		}()
	}
	wg.Wait()

	list := store.List()
	if len(list) != 50 {
		t.Fatalf("expected 50 connections, got %d", len(list))
	}

	for _, c := range list {
		wg.Add(2)
		go func(id string) {
			defer wg.Done()
			store.Get(id)
		}(c.ID)
		go func() {
			defer wg.Done()
			store.ByName("concurrent")
		}()
	}
	wg.Wait()
}
