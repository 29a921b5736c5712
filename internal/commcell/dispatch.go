package commcell

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/commvault-ps/cvpysdk-sub001/internal/sdkerr"
)

// staticTable maps a closed set of discriminators to constructors. Unknown
// discriminators get the generic constructor; lookup never fails.
type staticTable[B, T any] struct {
	entries  map[string]func(B) T
	fallback func(B) T
}

func (t staticTable[B, T]) lookup(discriminator string) func(B) T {
	if f, ok := t.entries[strings.ToLower(discriminator)]; ok {
		return f
	}
	return t.fallback
}

var agentTable = staticTable[*BaseAgent, Agent]{
	entries: map[string]func(*BaseAgent) Agent{
		"exchange database": func(b *BaseAgent) Agent { return &ExchangeDatabaseAgent{BaseAgent: b} },
	},
	fallback: func(b *BaseAgent) Agent { return b },
}

var instanceTable = staticTable[*BaseInstance, Instance]{
	entries: map[string]func(*BaseInstance) Instance{
		"sql server": func(b *BaseInstance) Instance { return &SQLServerInstance{BaseInstance: b} },
	},
	fallback: func(b *BaseInstance) Instance { return b },
}

// subclientTraits are the facts subclient dispatch overrides look at.
type subclientTraits struct {
	instanceName string
	clientType   int
	agentID      string
}

// Client types and agent ids the overrides key on.
const (
	ClientTypeCaseManager = 36
	AgentIDSharepoint     = "78"
)

// subclientOverride selects the later candidate of a multi-candidate entry.
// The list is the known minimum; a newly found condition belongs here.
var subclientOverrides = []func(subclientTraits) bool{
	func(t subclientTraits) bool { return strings.EqualFold(t.instanceName, "vminstance") },
	func(t subclientTraits) bool { return t.clientType == ClientTypeCaseManager },
	func(t subclientTraits) bool { return t.agentID == AgentIDSharepoint && t.clientType != 0 },
}

func anyOverride(t subclientTraits) bool {
	for _, o := range subclientOverrides {
		if o(t) {
			return true
		}
	}
	return false
}

type subclientCandidate struct {
	// when is nil for the default candidate.
	when  func(subclientTraits) bool
	build func(*BaseSubclient) Subclient
}

// subclientTable lists candidates per agent name; the last candidate whose
// condition holds wins.
var subclientTable = map[string][]subclientCandidate{
	"file system": {
		{build: func(b *BaseSubclient) Subclient { return &FileSystemSubclient{BaseSubclient: b} }},
	},
	"virtual server": {
		{build: func(b *BaseSubclient) Subclient { return &VirtualServerSubclient{BaseSubclient: b} }},
		{when: anyOverride, build: func(b *BaseSubclient) Subclient { return &VMInstanceSubclient{BaseSubclient: b} }},
	},
	"exchange mailbox": {
		{build: func(b *BaseSubclient) Subclient { return &ExchangeMailboxSubclient{BaseSubclient: b} }},
		{when: anyOverride, build: func(b *BaseSubclient) Subclient { return &CaseSubclient{BaseSubclient: b} }},
	},
	"sharepoint server": {
		{build: func(b *BaseSubclient) Subclient { return &SharepointV1Subclient{BaseSubclient: b} }},
		{when: anyOverride, build: func(b *BaseSubclient) Subclient { return &SharepointSubclient{BaseSubclient: b} }},
	},
}

func selectSubclient(agentName string, traits subclientTraits) func(*BaseSubclient) Subclient {
	candidates := subclientTable[strings.ToLower(agentName)]
	if len(candidates) == 0 {
		return func(b *BaseSubclient) Subclient { return b }
	}
	build := candidates[0].build
	for _, c := range candidates[1:] {
		if c.when == nil || c.when(traits) {
			build = c.build
		}
	}
	return build
}

// VirtualServerFactory wraps a virtual server instance in its vendor type.
type VirtualServerFactory func(base *VirtualServerInstance) (Instance, error)

// NullVendor is the module unresolvable vendors fall back to.
const NullVendor = "null"

// VSInstanceTypes maps the vendor type ids found in instance listings to vendor modules.
var VSInstanceTypes = map[int]string{
	101: "vmware",
	102: "hyperv",
	103: "xen",
	301: "amazon_web_services",
	401: "azure",
	402: "azure_resource_manager",
	403: "azure_stack",
	501: "red_hat_virtualization",
	601: "nutanix_ahv",
}

var vendors = struct {
	sync.RWMutex
	m map[string]VirtualServerFactory
}{m: map[string]VirtualServerFactory{}}

func init() {
	RegisterVirtualServer(NullVendor, func(base *VirtualServerInstance) (Instance, error) {
		return nil, sdkerr.Unsupported("Instance", base.discriminator)
	})
}

// RegisterVirtualServer makes a vendor implementation available under module.
// It panics if module is registered twice or factory is nil.
func RegisterVirtualServer(module string, factory VirtualServerFactory) {
	vendors.Lock()
	defer vendors.Unlock()
	if factory == nil {
		panic("commcell: RegisterVirtualServer factory is nil")
	}
	if _, dup := vendors.m[module]; dup {
		panic(fmt.Sprintf("commcell: RegisterVirtualServer called twice for %q", module))
	}
	vendors.m[module] = factory
}

// VirtualServerVendors lists the registered vendor modules.
func VirtualServerVendors() []string {
	vendors.RLock()
	defer vendors.RUnlock()
	names := make([]string, 0, len(vendors.m))
	for name := range vendors.m {
		if name != NullVendor {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

var moduleInvalid = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// VendorModule normalizes an instance name into a vendor module name:
// spaces become underscores, other punctuation is dropped.
func VendorModule(name string) string {
	return strings.ToLower(moduleInvalid.ReplaceAllString(strings.ReplaceAll(name, " ", "_"), ""))
}

// resolveVendor picks the module for an instance: the vendor type id when
// the listing carried a known one, otherwise the normalized instance name.
// An unregistered module comes back with the null vendor's factory.
func resolveVendor(instanceName string, vsType int) (string, VirtualServerFactory) {
	module, ok := VSInstanceTypes[vsType]
	if !ok {
		module = VendorModule(instanceName)
	}
	vendors.RLock()
	defer vendors.RUnlock()
	if f, ok := vendors.m[module]; ok {
		return module, f
	}
	return module, vendors.m[NullVendor]
}
