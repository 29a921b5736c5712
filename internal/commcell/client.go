package commcell

import (
	"context"
	"net/http"
	"strings"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
)

// Clients is the registry of clients known to the Commserve.
type Clients struct {
	*Registry
	cc *Commcell
}

// NewClients loads the client registry.
func NewClients(ctx context.Context, cc *Commcell) (*Clients, error) {
	reg, err := newRegistry(ctx, "Client", func(ctx context.Context) (Listing, error) {
		doc, err := cc.get(ctx, "Client", svcClients)
		if err != nil {
			return nil, err
		}
		items, err := listElements("Client", doc, "clientProperties", true)
		if err != nil {
			return nil, cc.fail("Client", err)
		}
		listing := Listing{}
		for _, item := range items {
			ent := item.Object("client", "clientEntity")
			name := ent.String("clientName")
			listing[strings.ToLower(name)] = Entry{
				ID:    models.IDString(ent["clientId"]),
				Name:  name,
				Attrs: models.Document{"hostName": ent.String("hostName")},
			}
		}
		return listing, nil
	})
	if err != nil {
		return nil, err
	}
	return &Clients{Registry: reg, cc: cc}, nil
}

// Get returns the named client.
func (c *Clients) Get(ctx context.Context, name string) (*Client, error) {
	e, err := c.Entry(name)
	if err != nil {
		return nil, err
	}
	return NewClient(ctx, c.cc, name, e.ID)
}

// Client mirrors one client machine.
type Client struct {
	resource
	agents *Agents
}

// NewClient loads a client. An empty id is looked up by name.
func NewClient(ctx context.Context, cc *Commcell, name, id string) (*Client, error) {
	if id == "" {
		clients, err := NewClients(ctx, cc)
		if err != nil {
			return nil, err
		}
		e, err := clients.Entry(name)
		if err != nil {
			return nil, err
		}
		id = e.ID
	}
	c := &Client{resource: resource{
		cc:       cc,
		entity:   "Client",
		name:     strings.ToLower(name),
		id:       id,
		path:     endpoint(svcClient, id),
		key:      "clientProperties",
		namePath: []string{"client", "clientEntity", "clientName"},
	}}
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Refresh reloads the client and forgets its agent registry.
func (c *Client) Refresh(ctx context.Context) error {
	c.agents = nil
	return c.load(ctx)
}

// Type returns the pseudo-client type, 0 for a regular client.
func (c *Client) Type() int {
	return c.props.Int("pseudoClientInfo", "clientType")
}

// HostName returns the client's network name.
func (c *Client) HostName() string {
	return c.props.String("client", "clientEntity", "hostName")
}

// Description returns the client description.
func (c *Client) Description() string {
	return c.props.String("client", "clientDescription")
}

// UpdateProperties submits a clientProperties fragment.
func (c *Client) UpdateProperties(ctx context.Context, fragment models.Document) error {
	body := models.Document{
		"association":      association(models.Document{"clientName": c.name}),
		"clientProperties": fragment.DeepCopy(),
	}
	return c.write(ctx, http.MethodPost, c.path, body)
}

// Apply submits p against the client properties.
func (c *Client) Apply(ctx context.Context, p Patch) (models.Document, error) {
	return apply(ctx, c.entity, c, p)
}

// SetDescription changes the client description.
func (c *Client) SetDescription(ctx context.Context, description string) error {
	_, err := c.Apply(ctx, Patch{}.Set("client.clientDescription", description))
	return err
}

// Agents returns the client's agent registry, loading it on first use.
func (c *Client) Agents(ctx context.Context) (*Agents, error) {
	if c.agents == nil {
		agents, err := NewAgents(ctx, c)
		if err != nil {
			return nil, err
		}
		c.agents = agents
	}
	return c.agents, nil
}

// Agent is shorthand for Agents followed by Get.
func (c *Client) Agent(ctx context.Context, name string) (Agent, error) {
	agents, err := c.Agents(ctx)
	if err != nil {
		return nil, err
	}
	return agents.Get(ctx, name)
}
