package commcell

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/commvault-ps/cvpysdk-sub001/internal/cvtest"
	"github.com/commvault-ps/cvpysdk-sub001/internal/sdkerr"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// testVMware stands in for the vmware vendor, which lives in a package that
// imports this one.
type testVMware struct {
	*VirtualServerInstance
}

func init() {
	RegisterVirtualServer("vmware", func(base *VirtualServerInstance) (Instance, error) {
		return &testVMware{VirtualServerInstance: base}, nil
	})
}

func newTestCommcell(t *testing.T) (*cvtest.Commserve, *Commcell) {
	t.Helper()
	cs := cvtest.NewCommserve(t)
	cc := New(cs.Transport(),
		WithClock(func() time.Time { return testNow }),
		WithTimeZone(DefaultTimeZone, time.UTC),
	)
	return cs, cc
}

func mustAgent(t *testing.T, cc *Commcell, name string) Agent {
	t.Helper()
	ctx := context.Background()
	client, err := cc.Client(ctx, "client1")
	if err != nil {
		t.Fatalf("Client(client1) returned error: %v", err)
	}
	agent, err := client.Agent(ctx, name)
	if err != nil {
		t.Fatalf("Agent(%q) returned error: %v", name, err)
	}
	return agent
}

func mustBackupset(t *testing.T, cc *Commcell, name string) *Backupset {
	t.Helper()
	ctx := context.Background()
	backupsets, err := mustAgent(t, cc, "file system").Backupsets(ctx)
	if err != nil {
		t.Fatalf("Backupsets returned error: %v", err)
	}
	bs, err := backupsets.Get(ctx, name)
	if err != nil {
		t.Fatalf("Backupsets.Get(%q) returned error: %v", name, err)
	}
	return bs
}

func mustSubclient(t *testing.T, cc *Commcell, backupset, name string) Subclient {
	t.Helper()
	ctx := context.Background()
	subclients, err := mustBackupset(t, cc, backupset).Subclients(ctx)
	if err != nil {
		t.Fatalf("Subclients returned error: %v", err)
	}
	sc, err := subclients.Get(ctx, name)
	if err != nil {
		t.Fatalf("Subclients.Get(%q) returned error: %v", name, err)
	}
	return sc
}

func wantKind(t *testing.T, err error, kind sdkerr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("error = nil, want kind %s", kind)
	}
	if got := sdkerr.KindOf(err); got != kind {
		t.Fatalf("error kind = %s, want %s (%v)", got, kind, err)
	}
}

func asSDKError(t *testing.T, err error) *sdkerr.Error {
	t.Helper()
	var e *sdkerr.Error
	if !errors.As(err, &e) {
		t.Fatalf("error %v is not an SDK error", err)
	}
	return e
}

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("time zone %s unavailable: %v", name, err)
	}
	return loc
}
