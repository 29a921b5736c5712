package commcell

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
	"github.com/commvault-ps/cvpysdk-sub001/internal/sdkerr"
)

// Entry is one item of a registry listing.
type Entry struct {
	ID string
	// Name is the name as the Commserve reported it.
	Name string
	// Parent names the container the item belongs to when a listing spans
	// several containers (the backupset of a subclient, for example).
	Parent string
	// Attrs holds listing fields used for dispatch, such as the vendor type
	// of a virtual server instance.
	Attrs models.Document
}

// Listing maps lower-cased names to entries.
type Listing map[string]Entry

// Registry is the name/id index of one collection on the Commserve.
type Registry struct {
	entity  string
	fetch   func(ctx context.Context) (Listing, error)
	listing Listing
}

func newRegistry(ctx context.Context, entity string, fetch func(ctx context.Context) (Listing, error)) (*Registry, error) {
	r := &Registry{entity: entity, fetch: fetch, listing: Listing{}}
	if err := r.Refresh(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Refresh reloads the listing. The previous listing stays in place if the
// reload fails.
func (r *Registry) Refresh(ctx context.Context) error {
	listing, err := r.fetch(ctx)
	if err != nil {
		return err
	}
	r.listing = listing
	return nil
}

// Has reports whether name is listed, ignoring case.
func (r *Registry) Has(name string) bool {
	_, ok := r.listing[strings.ToLower(name)]
	return ok
}

// Len returns the number of listed items.
func (r *Registry) Len() int {
	return len(r.listing)
}

// Names returns the lower-cased names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.listing))
	for name := range r.listing {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns a copy of the name to id mapping.
func (r *Registry) All() map[string]string {
	out := make(map[string]string, len(r.listing))
	for name, e := range r.listing {
		out[name] = e.ID
	}
	return out
}

// Entry returns the listing entry for name.
func (r *Registry) Entry(name string) (Entry, error) {
	if strings.TrimSpace(name) == "" {
		return Entry{}, sdkerr.InvalidArgument(r.entity, "name must not be empty")
	}
	e, ok := r.listing[strings.ToLower(name)]
	if !ok {
		return Entry{}, sdkerr.NotFound(r.entity, name)
	}
	return e, nil
}

// Lookup resolves value as a name first and then as an id. It returns the
// lower-cased name and its entry either way; value may be a string or an
// integer.
func (r *Registry) Lookup(value interface{}) (string, Entry, error) {
	var key string
	switch v := value.(type) {
	case string:
		key = v
	case int:
		key = strconv.Itoa(v)
	case int64:
		key = strconv.FormatInt(v, 10)
	case float64:
		if v != math.Trunc(v) {
			return "", Entry{}, sdkerr.InvalidArgument(r.entity, "lookup value %v is not an id", v)
		}
		key = strconv.FormatInt(int64(v), 10)
	default:
		return "", Entry{}, sdkerr.InvalidArgument(r.entity, "lookup value must be a name or an id, got %T", value)
	}

	if e, ok := r.listing[strings.ToLower(key)]; ok {
		return strings.ToLower(key), e, nil
	}
	for _, name := range r.Names() {
		if e := r.listing[name]; e.ID == key {
			return name, e, nil
		}
	}
	return "", Entry{}, sdkerr.Index(r.entity, key)
}

// byID returns the entry whose id is id.
func (r *Registry) byID(id string) (string, Entry, bool) {
	for name, e := range r.listing {
		if e.ID == id {
			return name, e, true
		}
	}
	return "", Entry{}, false
}

// prefixCollisions renames entries to "parent\name" when the listing spans
// more than one parent container.
func prefixCollisions(entries []Entry) Listing {
	parents := map[string]bool{}
	for _, e := range entries {
		parents[strings.ToLower(e.Parent)] = true
	}
	listing := make(Listing, len(entries))
	for _, e := range entries {
		key := strings.ToLower(e.Name)
		if len(parents) > 1 {
			key = strings.ToLower(e.Parent) + `\` + key
		}
		listing[key] = e
	}
	return listing
}

// listElements returns doc[key] as a list of objects. A body carrying an
// error code reports it; otherwise a missing key is malformed unless the
// collection is allowed to be omitted when empty.
func listElements(entity string, doc models.Document, key string, omitEmpty bool) ([]models.Document, error) {
	raw, ok := doc[key]
	if !ok {
		if err := embeddedError(entity, doc); err != nil {
			return nil, err
		}
		if omitEmpty {
			return nil, nil
		}
		return nil, sdkerr.Malformed(entity, "response has no "+key)
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, sdkerr.Malformed(entity, key+" is not a list")
	}
	out := make([]models.Document, 0, len(list))
	for _, item := range list {
		if d, ok := models.AsDocument(item); ok {
			out = append(out, d)
		}
	}
	return out, nil
}
