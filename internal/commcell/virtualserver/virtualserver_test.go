package virtualserver_test

import (
	"context"
	"testing"
	"time"

	"github.com/commvault-ps/cvpysdk-sub001/internal/commcell"
	"github.com/commvault-ps/cvpysdk-sub001/internal/commcell/virtualserver"
	"github.com/commvault-ps/cvpysdk-sub001/internal/cvtest"
	"github.com/commvault-ps/cvpysdk-sub001/internal/sdkerr"
)

func instances(t *testing.T) *commcell.Instances {
	t.Helper()
	cs := cvtest.NewCommserve(t)
	cc := commcell.New(cs.Transport(), commcell.WithClock(time.Now))
	ctx := context.Background()
	client, err := cc.Client(ctx, "client1")
	if err != nil {
		t.Fatalf("Client returned error: %v", err)
	}
	agent, err := client.Agent(ctx, "virtual server")
	if err != nil {
		t.Fatalf("Agent returned error: %v", err)
	}
	insts, err := agent.Instances(ctx)
	if err != nil {
		t.Fatalf("Instances returned error: %v", err)
	}
	return insts
}

func TestVendorsRegistered(t *testing.T) {
	got := commcell.VirtualServerVendors()
	want := map[string]bool{"amazon_web_services": true, "hyperv": true, "vmware": true}
	for _, v := range got {
		delete(want, v)
	}
	if len(want) != 0 {
		t.Errorf("VirtualServerVendors = %v, missing %v", got, want)
	}
}

func TestVMwareInstance(t *testing.T) {
	inst, err := instances(t).Get(context.Background(), "VMware")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	vm, ok := inst.(*virtualserver.VMwareInstance)
	if !ok {
		t.Fatalf("type = %T, want *VMwareInstance", inst)
	}
	if vm.VCenter() != "vcenter.lab.local" || vm.ServerName() != "vcenter.lab.local" {
		t.Errorf("VCenter/ServerName = %q/%q", vm.VCenter(), vm.ServerName())
	}
	if vm.Username() != "administrator@vsphere.local" {
		t.Errorf("Username = %q", vm.Username())
	}
}

func TestHyperVInstance(t *testing.T) {
	inst, err := instances(t).Get(context.Background(), "hyper-v")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	hv, ok := inst.(*virtualserver.HyperVInstance)
	if !ok {
		t.Fatalf("type = %T, want *HyperVInstance", inst)
	}
	if hv.ServerName() != "hv-cluster" {
		t.Errorf("ServerName = %q, want hv-cluster", hv.ServerName())
	}
	if hv.InstanceType() != "hyperv" {
		t.Errorf("InstanceType = %q, want hyperv", hv.InstanceType())
	}
}

func TestUnknownVendorStillUnsupported(t *testing.T) {
	_, err := instances(t).Get(context.Background(), "exotica")
	if sdkerr.KindOf(err) != sdkerr.KindUnsupported {
		t.Errorf("error = %v, want unsupported", err)
	}
}
