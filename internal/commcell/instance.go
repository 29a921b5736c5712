package commcell

import (
	"context"
	"net/http"
	"strings"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
)

// Instance is implemented by every instance variant.
type Instance interface {
	Entity
	Agent() Agent
	Backupsets(ctx context.Context) (*Backupsets, error)
	Subclients(ctx context.Context) (*Subclients, error)
}

// Instances is the registry of an agent's instances.
type Instances struct {
	*Registry
	agent Agent
}

// NewInstances loads the instance registry of agent.
func NewInstances(ctx context.Context, agent Agent) (*Instances, error) {
	cc := agent.Client().cc
	reg, err := newRegistry(ctx, "Instance", func(ctx context.Context) (Listing, error) {
		doc, err := cc.get(ctx, "Instance", endpoint(svcInstances, agent.Client().ID(), agent.ID()))
		if err != nil {
			return nil, err
		}
		items, err := listElements("Instance", doc, "instanceProperties", false)
		if err != nil {
			return nil, cc.fail("Instance", err)
		}
		listing := Listing{}
		for _, item := range items {
			inst := item.Object("instance")
			name := inst.String("instanceName")
			listing[strings.ToLower(name)] = Entry{
				ID:     models.IDString(inst["instanceId"]),
				Name:   name,
				Parent: agent.Name(),
				Attrs:  models.Document{"vsInstanceType": item.Int("virtualServerInstance", "vsInstanceType")},
			}
		}
		return listing, nil
	})
	if err != nil {
		return nil, err
	}
	return &Instances{Registry: reg, agent: agent}, nil
}

// Get returns the named instance as its most specific type.
func (i *Instances) Get(ctx context.Context, name string) (Instance, error) {
	e, err := i.Entry(name)
	if err != nil {
		return nil, err
	}
	return newInstance(ctx, i.agent, name, e.ID, e.Attrs.Int("vsInstanceType"))
}

// NewInstance loads an instance of agent. An empty id is looked up by name,
// as is the vendor type of a virtual server instance.
func NewInstance(ctx context.Context, agent Agent, name, id string) (Instance, error) {
	vsType := 0
	if id == "" || isVirtualServer(agent) {
		instances, err := NewInstances(ctx, agent)
		if err != nil {
			return nil, err
		}
		if id == "" {
			e, err := instances.Entry(name)
			if err != nil {
				return nil, err
			}
			id = e.ID
		}
		if _, e, ok := instances.byID(id); ok {
			vsType = e.Attrs.Int("vsInstanceType")
		}
	}
	return newInstance(ctx, agent, name, id, vsType)
}

func isVirtualServer(agent Agent) bool {
	return strings.EqualFold(agent.Name(), "virtual server")
}

func newInstance(ctx context.Context, agent Agent, name, id string, vsType int) (Instance, error) {
	base := &BaseInstance{
		resource: resource{
			cc:       agent.Client().cc,
			entity:   "Instance",
			name:     strings.ToLower(name),
			id:       id,
			path:     endpoint(svcInstance, id),
			key:      "instanceProperties",
			namePath: []string{"instance", "instanceName"},
		},
		agent: agent,
	}

	var inst Instance
	if isVirtualServer(agent) {
		module, factory := resolveVendor(name, vsType)
		vs := &VirtualServerInstance{BaseInstance: base, discriminator: module}
		wrapped, err := factory(vs)
		if err != nil {
			return nil, base.cc.fail(base.entity, err)
		}
		inst = wrapped
	} else {
		inst = instanceTable.lookup(agent.Name())(base)
	}

	if err := base.load(ctx); err != nil {
		return nil, err
	}
	return inst, nil
}

// BaseInstance is the generic instance. Specific instance types embed it.
type BaseInstance struct {
	resource
	agent      Agent
	backupsets *Backupsets
	subclients *Subclients
}

// Agent returns the owning agent.
func (i *BaseInstance) Agent() Agent {
	return i.agent
}

// Refresh reloads the instance and forgets its child registries.
func (i *BaseInstance) Refresh(ctx context.Context) error {
	i.backupsets = nil
	i.subclients = nil
	return i.load(ctx)
}

// UpdateProperties merges fragment into an instanceProperties envelope that
// carries the instance identity block.
func (i *BaseInstance) UpdateProperties(ctx context.Context, fragment models.Document) error {
	props := models.Document{"instance": i.props.Object("instance").DeepCopy()}
	props.Merge(fragment.DeepCopy())
	return i.write(ctx, http.MethodPost, i.path, models.Document{"instanceProperties": props})
}

// Apply submits p against the instance properties.
func (i *BaseInstance) Apply(ctx context.Context, p Patch) (models.Document, error) {
	return apply(ctx, i.entity, i, p)
}

// Backupsets returns the backupsets of this instance.
func (i *BaseInstance) Backupsets(ctx context.Context) (*Backupsets, error) {
	if i.backupsets == nil {
		backupsets, err := NewBackupsets(ctx, i.agent, i)
		if err != nil {
			return nil, err
		}
		i.backupsets = backupsets
	}
	return i.backupsets, nil
}

// Subclients returns the subclients of every backupset of this instance.
func (i *BaseInstance) Subclients(ctx context.Context) (*Subclients, error) {
	if i.subclients == nil {
		subclients, err := NewInstanceSubclients(ctx, i.agent, i)
		if err != nil {
			return nil, err
		}
		i.subclients = subclients
	}
	return i.subclients, nil
}

// SQLServerInstance is a SQL Server instance.
type SQLServerInstance struct {
	*BaseInstance
}

// Version returns the SQL Server version the instance reports.
func (i *SQLServerInstance) Version() string {
	return i.props.String("mssqlInstance", "version")
}
