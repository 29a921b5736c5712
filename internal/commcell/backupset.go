package commcell

import (
	"context"
	"net/http"
	"strings"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
	"github.com/commvault-ps/cvpysdk-sub001/internal/sdkerr"
)

// Backupsets is the registry of backupsets of an agent, or of one of its
// instances. Agent-wide listings that span instances key each backupset as
// "instance\name".
type Backupsets struct {
	*Registry
	agent    Agent
	instance Instance
}

// NewBackupsets loads the backupsets of agent, restricted to instance when
// it is not nil.
func NewBackupsets(ctx context.Context, agent Agent, instance Instance) (*Backupsets, error) {
	cc := agent.Client().cc
	reg, err := newRegistry(ctx, "Backupset", func(ctx context.Context) (Listing, error) {
		doc, err := cc.get(ctx, "Backupset", endpoint(svcBackupsets, agent.Client().ID(), agent.ID()))
		if err != nil {
			return nil, err
		}
		items, err := listElements("Backupset", doc, "backupsetProperties", false)
		if err != nil {
			return nil, cc.fail("Backupset", err)
		}
		var entries []Entry
		for _, item := range items {
			ent := item.Object("backupSetEntity")
			instanceID := models.IDString(ent["instanceId"])
			if instance != nil && instanceID != instance.ID() {
				continue
			}
			entries = append(entries, Entry{
				ID:     models.IDString(ent["backupsetId"]),
				Name:   ent.String("backupsetName"),
				Parent: ent.String("instanceName"),
				Attrs: models.Document{
					"instanceId": instanceID,
					"isDefault":  item.Bool("commonBackupSet", "isDefaultBackupSet"),
				},
			})
		}
		return prefixCollisions(entries), nil
	})
	if err != nil {
		return nil, err
	}
	return &Backupsets{Registry: reg, agent: agent, instance: instance}, nil
}

// Get returns the backupset listed under name.
func (b *Backupsets) Get(ctx context.Context, name string) (*Backupset, error) {
	e, err := b.Entry(name)
	if err != nil {
		return nil, err
	}
	return NewBackupset(ctx, b.agent, e.ID)
}

// Default returns the default backupset. Across several instances the first
// default in name order wins.
func (b *Backupsets) Default(ctx context.Context) (*Backupset, error) {
	for _, name := range b.Names() {
		if e := b.listing[name]; e.Attrs.Bool("isDefault") {
			return NewBackupset(ctx, b.agent, e.ID)
		}
	}
	return nil, sdkerr.NotFound(b.entity, "default backupset")
}

// Backupset groups the subclients of one instance.
type Backupset struct {
	resource
	agent      Agent
	subclients *Subclients
}

// NewBackupset loads the backupset with the given id.
func NewBackupset(ctx context.Context, agent Agent, id string) (*Backupset, error) {
	b := &Backupset{
		resource: resource{
			cc:       agent.Client().cc,
			entity:   "Backupset",
			id:       id,
			path:     endpoint(svcBackupset, id),
			key:      "backupsetProperties",
			namePath: []string{"backupSetEntity", "backupsetName"},
		},
		agent: agent,
	}
	if err := b.load(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// Agent returns the owning agent.
func (b *Backupset) Agent() Agent {
	return b.agent
}

// InstanceName returns the name of the instance the backupset belongs to.
func (b *Backupset) InstanceName() string {
	return strings.ToLower(b.props.String("backupSetEntity", "instanceName"))
}

// Instance loads the instance the backupset belongs to.
func (b *Backupset) Instance(ctx context.Context) (Instance, error) {
	instances, err := b.agent.Instances(ctx)
	if err != nil {
		return nil, err
	}
	return instances.Get(ctx, b.InstanceName())
}

// IsDefault reports whether this is the instance's default backupset.
func (b *Backupset) IsDefault() bool {
	return b.props.Bool("commonBackupSet", "isDefaultBackupSet")
}

// Description returns the user description.
func (b *Backupset) Description() string {
	return b.props.String("userDescription")
}

// Refresh reloads the backupset and forgets its subclient registry.
func (b *Backupset) Refresh(ctx context.Context) error {
	b.subclients = nil
	return b.load(ctx)
}

func (b *Backupset) identity() models.Document {
	return models.Document{
		"clientName":    b.agent.Client().Name(),
		"appName":       b.agent.Name(),
		"instanceName":  b.InstanceName(),
		"backupsetName": b.name,
	}
}

// UpdateProperties merges fragment into a backupsetProperties envelope that
// carries the backupset entity.
func (b *Backupset) UpdateProperties(ctx context.Context, fragment models.Document) error {
	props := models.Document{"backupSetEntity": b.props.Object("backupSetEntity").DeepCopy()}
	props.Merge(fragment.DeepCopy())
	body := models.Document{
		"association":         association(b.identity()),
		"backupsetProperties": props,
	}
	return b.write(ctx, http.MethodPost, b.path, body)
}

// Apply submits p against the backupset properties.
func (b *Backupset) Apply(ctx context.Context, p Patch) (models.Document, error) {
	return apply(ctx, b.entity, b, p)
}

// SetDescription changes the user description.
func (b *Backupset) SetDescription(ctx context.Context, description string) error {
	_, err := b.Apply(ctx, Patch{}.Set("userDescription", description))
	return err
}

// SetName renames the backupset.
func (b *Backupset) SetName(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return sdkerr.InvalidArgument(b.entity, "name must not be empty")
	}
	_, err := b.Apply(ctx, Patch{}.Set("commonBackupSet.newBackupSetName", name))
	return err
}

// Subclients returns the backupset's subclient registry.
func (b *Backupset) Subclients(ctx context.Context) (*Subclients, error) {
	if b.subclients == nil {
		subclients, err := NewSubclients(ctx, b)
		if err != nil {
			return nil, err
		}
		b.subclients = subclients
	}
	return b.subclients, nil
}
