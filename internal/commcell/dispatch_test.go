package commcell

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"testing"

	"github.com/commvault-ps/cvpysdk-sub001/internal/cvtest"
	"github.com/commvault-ps/cvpysdk-sub001/internal/sdkerr"
)

func TestAgentDispatch(t *testing.T) {
	_, cc := newTestCommcell(t)
	tests := []struct {
		name string
		want string
	}{
		{"file system", "*commcell.BaseAgent"},
		{"Virtual Server", "*commcell.BaseAgent"},
		{"exchange database", "*commcell.ExchangeDatabaseAgent"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			agent := mustAgent(t, cc, tc.name)
			if got := fmt.Sprintf("%T", agent); got != tc.want {
				t.Errorf("type = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestStaticTable_FallsBackToGeneric(t *testing.T) {
	base := &BaseAgent{}
	if got := agentTable.lookup("no such agent")(base); got != Agent(base) {
		t.Errorf("lookup returned %T, want the generic agent", got)
	}
	inst := &BaseInstance{}
	if got := instanceTable.lookup("")(inst); got != Instance(inst) {
		t.Errorf("lookup returned %T, want the generic instance", got)
	}
}

func TestInstanceDispatch(t *testing.T) {
	_, cc := newTestCommcell(t)
	ctx := context.Background()

	instances, err := mustAgent(t, cc, "sql server").Instances(ctx)
	if err != nil {
		t.Fatalf("Instances returned error: %v", err)
	}
	inst, err := instances.Get(ctx, "sqlinst")
	if err != nil {
		t.Fatalf("Get(sqlinst) returned error: %v", err)
	}
	if _, ok := inst.(*SQLServerInstance); !ok {
		t.Errorf("type = %T, want *SQLServerInstance", inst)
	}

	fs, err := mustAgent(t, cc, "file system").Instances(ctx)
	if err != nil {
		t.Fatalf("Instances returned error: %v", err)
	}
	inst, err = fs.Get(ctx, "DefaultInstanceName")
	if err != nil {
		t.Fatalf("Get(DefaultInstanceName) returned error: %v", err)
	}
	if _, ok := inst.(*BaseInstance); !ok {
		t.Errorf("type = %T, want *BaseInstance", inst)
	}
}

func TestVirtualServerDispatch(t *testing.T) {
	cs, cc := newTestCommcell(t)
	ctx := context.Background()
	instances, err := mustAgent(t, cc, "virtual server").Instances(ctx)
	if err != nil {
		t.Fatalf("Instances returned error: %v", err)
	}

	inst, err := instances.Get(ctx, "VMware")
	if err != nil {
		t.Fatalf("Get(VMware) returned error: %v", err)
	}
	vm, ok := inst.(*testVMware)
	if !ok {
		t.Fatalf("type = %T, want *testVMware", inst)
	}
	if vm.InstanceType() != "vmware" {
		t.Errorf("InstanceType = %q, want vmware", vm.InstanceType())
	}
	if got := vm.AssociatedClients(); !reflect.DeepEqual(got, []string{"proxy1"}) {
		t.Errorf("AssociatedClients = %v, want [proxy1]", got)
	}

	tests := []struct {
		name, key, id string
	}{
		{"Exotica", "exotica", cvtest.ExoticaInstanceID},
		// Registered by type id as hyperv, which this package has no vendor for.
		{"Hyper-V", "hyperv", cvtest.HyperVInstanceID},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := instances.Get(ctx, tc.name)
			wantKind(t, err, sdkerr.KindUnsupported)
			if e := asSDKError(t, err); e.Key != tc.key {
				t.Errorf("Key = %q, want %q", e.Key, tc.key)
			}
			if n := cs.Count(http.MethodGet, "Instance/"+tc.id); n != 0 {
				t.Errorf("GET Instance/%s count = %d, want 0", tc.id, n)
			}
		})
	}
}

func TestVirtualServerInstance_SetAssociatedClients(t *testing.T) {
	cs, cc := newTestCommcell(t)
	ctx := context.Background()
	instances, err := mustAgent(t, cc, "virtual server").Instances(ctx)
	if err != nil {
		t.Fatalf("Instances returned error: %v", err)
	}
	inst, err := instances.Get(ctx, "vmware")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	vm := inst.(*testVMware)

	err = vm.SetAssociatedClients(ctx, nil)
	wantKind(t, err, sdkerr.KindInvalidArgument)
	if n := cs.Count(http.MethodPost, "Instance/"+cvtest.VMwareInstanceID); n != 0 {
		t.Errorf("POST count = %d, want 0", n)
	}

	if err := vm.SetAssociatedClients(ctx, []string{"proxy2", "proxy3"}); err != nil {
		t.Fatalf("SetAssociatedClients returned error: %v", err)
	}
	if got := vm.AssociatedClients(); !reflect.DeepEqual(got, []string{"proxy2", "proxy3"}) {
		t.Errorf("AssociatedClients = %v, want [proxy2 proxy3]", got)
	}
	if got := vm.Settings().String("vmwareVendor", "virtualCenter", "domainName"); got != "vcenter.lab.local" {
		t.Errorf("vendor settings lost on update: domainName = %q", got)
	}
}

func TestSelectSubclient(t *testing.T) {
	tests := []struct {
		name   string
		agent  string
		traits subclientTraits
		want   string
	}{
		{"file system", "file system", subclientTraits{}, "*commcell.FileSystemSubclient"},
		{"virtual server", "virtual server", subclientTraits{instanceName: "VMware"}, "*commcell.VirtualServerSubclient"},
		{"vm instance", "virtual server", subclientTraits{instanceName: "VMInstance"}, "*commcell.VMInstanceSubclient"},
		{"mailbox", "exchange mailbox", subclientTraits{}, "*commcell.ExchangeMailboxSubclient"},
		{"case manager", "exchange mailbox", subclientTraits{clientType: ClientTypeCaseManager}, "*commcell.CaseSubclient"},
		{"sharepoint v1", "sharepoint server", subclientTraits{agentID: AgentIDSharepoint}, "*commcell.SharepointV1Subclient"},
		{"sharepoint pseudo client", "sharepoint server", subclientTraits{agentID: AgentIDSharepoint, clientType: 15}, "*commcell.SharepointSubclient"},
		{"unknown agent", "db2", subclientTraits{}, "*commcell.BaseSubclient"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := selectSubclient(tc.agent, tc.traits)(&BaseSubclient{})
			if s := fmt.Sprintf("%T", got); s != tc.want {
				t.Errorf("selectSubclient(%q, %+v) = %s, want %s", tc.agent, tc.traits, s, tc.want)
			}
		})
	}
}

func TestSubclientDispatch_FromTopology(t *testing.T) {
	_, cc := newTestCommcell(t)
	sc := mustSubclient(t, cc, "defaultBackupSet", "default")
	if _, ok := sc.(*FileSystemSubclient); !ok {
		t.Errorf("type = %T, want *FileSystemSubclient", sc)
	}
}

func TestVendorModule(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"VMware", "vmware"},
		{"Hyper-V", "hyperv"},
		{"Amazon Web Services", "amazon_web_services"},
		{"Red Hat Virtualization", "red_hat_virtualization"},
		{"Nutanix AHV!", "nutanix_ahv"},
	}
	for _, tc := range tests {
		if got := VendorModule(tc.in); got != tc.want {
			t.Errorf("VendorModule(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolveVendor(t *testing.T) {
	module, _ := resolveVendor("anything", 101)
	if module != "vmware" {
		t.Errorf("module for type 101 = %q, want vmware", module)
	}
	module, factory := resolveVendor("Exotica", 0)
	if module != "exotica" {
		t.Errorf("module = %q, want exotica", module)
	}
	_, err := factory(&VirtualServerInstance{discriminator: module})
	wantKind(t, err, sdkerr.KindUnsupported)
}

func TestRegisterVirtualServer_Panics(t *testing.T) {
	RegisterVirtualServer("test_dup", func(base *VirtualServerInstance) (Instance, error) { return base, nil })
	tests := []struct {
		name    string
		module  string
		factory VirtualServerFactory
	}{
		{"duplicate", "test_dup", func(base *VirtualServerInstance) (Instance, error) { return base, nil }},
		{"nil factory", "test_nil", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("RegisterVirtualServer did not panic")
				}
			}()
			RegisterVirtualServer(tc.module, tc.factory)
		})
	}
}

func TestVirtualServerVendors_HidesNull(t *testing.T) {
	for _, v := range VirtualServerVendors() {
		if v == NullVendor {
			t.Errorf("VirtualServerVendors lists %q", NullVendor)
		}
	}
}
