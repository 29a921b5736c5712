package commcell

import (
	"context"
	"strings"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
	"github.com/commvault-ps/cvpysdk-sub001/internal/sdkerr"
)

// Entity is implemented by every object that mirrors a Commserve entity.
type Entity interface {
	Name() string
	ID() string
	// Properties returns a deep copy of the last loaded property snapshot.
	Properties() models.Document
	// Refresh reloads the property snapshot.
	Refresh(ctx context.Context) error
	// UpdateProperties submits fragment and reloads the snapshot on success.
	// On failure the snapshot is left as it was.
	UpdateProperties(ctx context.Context, fragment models.Document) error
	// Apply submits a patch and returns the reloaded snapshot.
	Apply(ctx context.Context, p Patch) (models.Document, error)
}

// resource holds the identity and property snapshot shared by all entities.
type resource struct {
	cc     *Commcell
	entity string
	name   string
	id     string

	// path and key locate the snapshot: GET path answers {key: [snapshot]},
	// or the snapshot itself when key is empty.
	path string
	key  string
	// namePath, when set, is where the snapshot carries the entity's name.
	namePath []string

	props models.Document
}

// Name returns the entity name.
func (r *resource) Name() string {
	return r.name
}

// ID returns the entity id.
func (r *resource) ID() string {
	return r.id
}

// Properties returns a deep copy of the snapshot.
func (r *resource) Properties() models.Document {
	return r.props.DeepCopy()
}

func (r *resource) load(ctx context.Context) error {
	doc, err := r.cc.get(ctx, r.entity, r.path)
	if err != nil {
		return err
	}
	props, err := firstElement(r.entity, doc, r.key)
	if err != nil {
		return r.cc.fail(r.entity, err)
	}
	r.props = props
	if len(r.namePath) > 0 {
		if name := props.String(r.namePath...); name != "" {
			r.name = strings.ToLower(name)
		}
	}
	r.cc.log.Debug().Str("entity", r.entity).Str("name", r.name).Str("id", r.id).Msg("properties loaded")
	return nil
}

// write submits body, checks the embedded status and reloads the snapshot.
func (r *resource) write(ctx context.Context, method, path string, body models.Document) error {
	doc, err := r.cc.send(ctx, r.entity, method, path, body)
	if err != nil {
		return err
	}
	if err := checkStatus(r.entity, doc); err != nil {
		return r.cc.fail(r.entity, err)
	}
	r.cc.log.Debug().Str("entity", r.entity).Str("name", r.name).Msg("properties updated")
	return r.load(ctx)
}

// Patch is an ordered list of property assignments. Paths are dot-separated
// keys into the property snapshot, e.g. "commonProperties.description".
type Patch struct {
	sets []assignment
}

type assignment struct {
	path  []string
	value interface{}
}

// Set returns a copy of p with one more assignment.
func (p Patch) Set(path string, value interface{}) Patch {
	sets := make([]assignment, len(p.sets), len(p.sets)+1)
	copy(sets, p.sets)
	return Patch{sets: append(sets, assignment{path: strings.Split(path, "."), value: value})}
}

// Empty reports whether p assigns nothing.
func (p Patch) Empty() bool {
	return len(p.sets) == 0
}

// fragment applies p to a copy of snapshot and returns every top-level
// section it touched, in full.
func (p Patch) fragment(snapshot models.Document) models.Document {
	doc := snapshot.DeepCopy()
	if doc == nil {
		doc = models.Document{}
	}
	out := models.Document{}
	for _, s := range p.sets {
		doc.Set(s.path, s.value)
		out[s.path[0]] = doc[s.path[0]]
	}
	return out
}

type updater interface {
	Properties() models.Document
	UpdateProperties(ctx context.Context, fragment models.Document) error
}

func apply(ctx context.Context, entity string, u updater, p Patch) (models.Document, error) {
	if p.Empty() {
		return nil, sdkerr.InvalidArgument(entity, "patch is empty")
	}
	if err := u.UpdateProperties(ctx, p.fragment(u.Properties())); err != nil {
		return nil, err
	}
	return u.Properties(), nil
}

// association is the {"entity": [...]} block used to route agent, backupset and
// client updates.
func association(fields models.Document) models.Document {
	return models.Document{"entity": []interface{}{fields}}
}
