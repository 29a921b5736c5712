package commcell

import (
	"context"
	"reflect"
	"testing"

	"github.com/commvault-ps/cvpysdk-sub001/internal/cvtest"
	"github.com/commvault-ps/cvpysdk-sub001/internal/sdkerr"
)

func TestBackupsets_ListAndDefault(t *testing.T) {
	_, cc := newTestCommcell(t)
	ctx := context.Background()
	backupsets, err := mustAgent(t, cc, "file system").Backupsets(ctx)
	if err != nil {
		t.Fatalf("Backupsets returned error: %v", err)
	}
	if got, want := backupsets.Names(), []string{"bs2", "defaultbackupset"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}
	bs, err := backupsets.Default(ctx)
	if err != nil {
		t.Fatalf("Default returned error: %v", err)
	}
	if bs.ID() != cvtest.DefaultBackupsetID || !bs.IsDefault() {
		t.Errorf("Default = %s (default %v), want %s", bs.ID(), bs.IsDefault(), cvtest.DefaultBackupsetID)
	}
	if bs.InstanceName() != "defaultinstancename" {
		t.Errorf("InstanceName = %q", bs.InstanceName())
	}
	inst, err := bs.Instance(ctx)
	if err != nil {
		t.Fatalf("Instance returned error: %v", err)
	}
	if inst.ID() != cvtest.DefaultInstanceID {
		t.Errorf("Instance id = %q, want %q", inst.ID(), cvtest.DefaultInstanceID)
	}
}

func TestInstance_BackupsetsScoped(t *testing.T) {
	_, cc := newTestCommcell(t)
	ctx := context.Background()
	instances, err := mustAgent(t, cc, "virtual server").Instances(ctx)
	if err != nil {
		t.Fatalf("Instances returned error: %v", err)
	}
	inst, err := instances.Get(ctx, "vmware")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	backupsets, err := inst.Backupsets(ctx)
	if err != nil {
		t.Fatalf("Backupsets returned error: %v", err)
	}
	if got := backupsets.All(); !reflect.DeepEqual(got, map[string]string{"defaultbackupset": cvtest.VMBackupsetID}) {
		t.Errorf("All = %v", got)
	}
}

func TestBackupset_Setters(t *testing.T) {
	_, cc := newTestCommcell(t)
	ctx := context.Background()
	bs := mustBackupset(t, cc, "bs2")

	if err := bs.SetDescription(ctx, "second"); err != nil {
		t.Fatalf("SetDescription returned error: %v", err)
	}
	if bs.Description() != "second" {
		t.Errorf("Description = %q, want second", bs.Description())
	}
	wantKind(t, bs.SetName(ctx, " "), sdkerr.KindInvalidArgument)
	if err := bs.SetName(ctx, "Archive"); err != nil {
		t.Fatalf("SetName returned error: %v", err)
	}
	if bs.Name() != "archive" {
		t.Errorf("Name = %q, want archive", bs.Name())
	}
	if bs.IsDefault() {
		t.Error("rename changed the default flag")
	}
}
