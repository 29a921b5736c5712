package commcell

import (
	"context"
	"net/http"
	"strings"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
	"github.com/commvault-ps/cvpysdk-sub001/internal/sdkerr"
)

// Agent is implemented by every agent variant.
type Agent interface {
	Entity
	Client() *Client
	Instances(ctx context.Context) (*Instances, error)
	Backupsets(ctx context.Context) (*Backupsets, error)

	IsBackupEnabled() bool
	IsRestoreEnabled() bool
	EnableBackup(ctx context.Context) error
	DisableBackup(ctx context.Context) error
	EnableBackupAtTime(ctx context.Context, at string) error
	EnableRestore(ctx context.Context) error
	DisableRestore(ctx context.Context) error
	EnableRestoreAtTime(ctx context.Context, at string) error
}

// Agents is the registry of agents installed on a client.
type Agents struct {
	*Registry
	client *Client
}

// agentName folds the file system agent variants ("Windows File System",
// "Linux File System", ...) into one name.
func agentName(name string) string {
	name = strings.ToLower(name)
	if strings.Contains(name, "file system") {
		return "file system"
	}
	return name
}

// NewAgents loads the agent registry of client.
func NewAgents(ctx context.Context, client *Client) (*Agents, error) {
	cc := client.cc
	reg, err := newRegistry(ctx, "Agent", func(ctx context.Context) (Listing, error) {
		doc, err := cc.get(ctx, "Agent", endpoint(svcAgents, client.ID()))
		if err != nil {
			return nil, err
		}
		items, err := listElements("Agent", doc, "agentProperties", false)
		if err != nil {
			return nil, cc.fail("Agent", err)
		}
		listing := Listing{}
		for _, item := range items {
			ida := item.Object("idaEntity")
			name := ida.String("appName")
			listing[agentName(name)] = Entry{
				ID:     models.IDString(ida["applicationId"]),
				Name:   name,
				Parent: client.Name(),
			}
		}
		return listing, nil
	})
	if err != nil {
		return nil, err
	}
	return &Agents{Registry: reg, client: client}, nil
}

// Has reports whether the client has the agent, folding file system
// variants the same way Get does.
func (a *Agents) Has(name string) bool {
	return a.Registry.Has(agentName(name))
}

// Get returns the named agent as its most specific type.
func (a *Agents) Get(ctx context.Context, name string) (Agent, error) {
	e, err := a.Entry(agentName(name))
	if err != nil {
		return nil, err
	}
	return NewAgent(ctx, a.client, name, e.ID)
}

// BaseAgent is the generic agent. Specific agent types embed it.
type BaseAgent struct {
	resource
	client     *Client
	instances  *Instances
	backupsets *Backupsets
}

// NewAgent loads an agent, choosing its type from the agent name. An empty
// id is looked up by name.
func NewAgent(ctx context.Context, client *Client, name, id string) (Agent, error) {
	name = agentName(name)
	if id == "" {
		agents, err := NewAgents(ctx, client)
		if err != nil {
			return nil, err
		}
		e, err := agents.Entry(name)
		if err != nil {
			return nil, err
		}
		id = e.ID
	}
	base := &BaseAgent{
		resource: resource{
			cc:     client.cc,
			entity: "Agent",
			name:   name,
			id:     id,
			path:   endpoint(svcAgent, client.ID(), id),
			key:    "agentProperties",
		},
		client: client,
	}
	agent := agentTable.lookup(name)(base)
	if err := base.load(ctx); err != nil {
		return nil, err
	}
	return agent, nil
}

// Client returns the owning client.
func (a *BaseAgent) Client() *Client {
	return a.client
}

// Refresh reloads the agent and forgets its child registries.
func (a *BaseAgent) Refresh(ctx context.Context) error {
	a.instances = nil
	a.backupsets = nil
	return a.load(ctx)
}

func (a *BaseAgent) identity() models.Document {
	return models.Document{"clientName": a.client.Name(), "appName": a.name}
}

// UpdateProperties merges fragment into an agentProperties envelope that
// names the agent and its client.
func (a *BaseAgent) UpdateProperties(ctx context.Context, fragment models.Document) error {
	props := models.Document{
		"AgentProperties": models.Document{},
		"idaEntity": models.Document{
			"appName":      a.name,
			"clientName":   a.client.Name(),
			"commCellName": a.props.String("idaEntity", "commCellName"),
		},
	}
	props.Merge(fragment.DeepCopy())
	body := models.Document{
		"association":     association(a.identity()),
		"agentProperties": props,
	}
	return a.write(ctx, http.MethodPost, svcAgentAction, body)
}

// Apply submits p against the agent properties.
func (a *BaseAgent) Apply(ctx context.Context, p Patch) (models.Document, error) {
	return apply(ctx, a.entity, a, p)
}

// Instances returns the agent's instance registry, loading it on first use.
func (a *BaseAgent) Instances(ctx context.Context) (*Instances, error) {
	if a.instances == nil {
		instances, err := NewInstances(ctx, a)
		if err != nil {
			return nil, err
		}
		a.instances = instances
	}
	return a.instances, nil
}

// Backupsets returns the agent's backupset registry across all its instances.
func (a *BaseAgent) Backupsets(ctx context.Context) (*Backupsets, error) {
	if a.backupsets == nil {
		backupsets, err := NewBackupsets(ctx, a, nil)
		if err != nil {
			return nil, err
		}
		a.backupsets = backupsets
	}
	return a.backupsets, nil
}

func (a *BaseAgent) activityOptions() []interface{} {
	return a.props.List("idaActivityControl", "activityControlOptions")
}

// IsBackupEnabled reports whether backups are currently enabled.
func (a *BaseAgent) IsBackupEnabled() bool {
	return activityEnabled(a.activityOptions(), ActivityBackup)
}

// IsRestoreEnabled reports whether restores are currently enabled.
func (a *BaseAgent) IsRestoreEnabled() bool {
	return activityEnabled(a.activityOptions(), ActivityRestore)
}

func (a *BaseAgent) setActivity(ctx context.Context, activityType int, enable bool, at string) error {
	if at != "" {
		if _, err := a.cc.futureTime(a.entity, at); err != nil {
			return a.cc.fail(a.entity, err)
		}
	}
	body := models.Document{
		"association": association(a.identity()),
		"agentProperties": models.Document{
			"idaEntity": a.identity(),
			"idaActivityControl": models.Document{
				"activityControlOptions": []interface{}{a.cc.activityOption(activityType, enable, at)},
			},
		},
	}
	return a.write(ctx, http.MethodPost, svcAgentAction, body)
}

// EnableBackup enables backups for the agent.
func (a *BaseAgent) EnableBackup(ctx context.Context) error {
	return a.setActivity(ctx, ActivityBackup, true, "")
}

// DisableBackup disables backups for the agent.
func (a *BaseAgent) DisableBackup(ctx context.Context) error {
	return a.setActivity(ctx, ActivityBackup, false, "")
}

// EnableBackupAtTime disables backups until at, given as TimeLayout in the
// Commserve time zone. at must be in the future.
func (a *BaseAgent) EnableBackupAtTime(ctx context.Context, at string) error {
	return a.setActivity(ctx, ActivityBackup, false, at)
}

// EnableRestore enables restores for the agent.
func (a *BaseAgent) EnableRestore(ctx context.Context) error {
	return a.setActivity(ctx, ActivityRestore, true, "")
}

// DisableRestore disables restores for the agent.
func (a *BaseAgent) DisableRestore(ctx context.Context) error {
	return a.setActivity(ctx, ActivityRestore, false, "")
}

// EnableRestoreAtTime disables restores until at.
func (a *BaseAgent) EnableRestoreAtTime(ctx context.Context, at string) error {
	return a.setActivity(ctx, ActivityRestore, false, at)
}

// ExchangeDatabaseAgent is the Exchange database agent. It has a single
// instance whose backupsets it exposes directly.
type ExchangeDatabaseAgent struct {
	*BaseAgent
}

// Instance returns the agent's only instance.
func (a *ExchangeDatabaseAgent) Instance(ctx context.Context) (Instance, error) {
	instances, err := a.Instances(ctx)
	if err != nil {
		return nil, err
	}
	names := instances.Names()
	if len(names) == 0 {
		return nil, sdkerr.NotFound("Instance", a.name)
	}
	return instances.Get(ctx, names[0])
}

// Backupsets returns the backupsets of the agent's instance.
func (a *ExchangeDatabaseAgent) Backupsets(ctx context.Context) (*Backupsets, error) {
	if a.backupsets == nil {
		inst, err := a.Instance(ctx)
		if err != nil {
			return nil, err
		}
		backupsets, err := inst.Backupsets(ctx)
		if err != nil {
			return nil, err
		}
		a.backupsets = backupsets
	}
	return a.backupsets, nil
}
