// Package commcell is an object model over the Commserve REST API: registries
// of clients, agents, instances, backupsets, subclients, credentials and
// schedules, each entity mirroring one server-side object.
//
// Entities load their properties when constructed and reload them after every
// successful write. They are not safe for concurrent use.
package commcell

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
	"github.com/commvault-ps/cvpysdk-sub001/internal/sdkerr"
	"github.com/commvault-ps/cvpysdk-sub001/internal/telemetry"
	"github.com/commvault-ps/cvpysdk-sub001/internal/transport"
)

// DefaultTimeZone is sent with delayed activity requests unless overridden.
const DefaultTimeZone = "(UTC) Coordinated Universal Time"

// Requester sends one request to the Commserve. *transport.Client implements it.
type Requester interface {
	MakeRequest(ctx context.Context, method, path string, body interface{}) (*transport.Response, error)
}

// Commcell is the root of the object model.
type Commcell struct {
	req      Requester
	log      zerolog.Logger
	metrics  *telemetry.Metrics
	timeZone string
	location *time.Location
	now      func() time.Time

	clients     *Clients
	credentials *Credentials
}

// Option configures a Commcell.
type Option func(*Commcell)

// WithLogger sets the logger entities report to.
func WithLogger(l zerolog.Logger) Option {
	return func(cc *Commcell) { cc.log = telemetry.Component(l, "commcell") }
}

// WithMetrics counts errors and submitted operations.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(cc *Commcell) { cc.metrics = m }
}

// WithTimeZone sets the Commserve time zone name sent with delayed activity
// requests and the location caller timestamps are parsed in.
func WithTimeZone(name string, loc *time.Location) Option {
	return func(cc *Commcell) {
		cc.timeZone = name
		if loc != nil {
			cc.location = loc
		}
	}
}

// WithClock replaces the clock future-time checks compare against.
func WithClock(now func() time.Time) Option {
	return func(cc *Commcell) { cc.now = now }
}

// New creates a Commcell over req. No request is sent until a registry is asked for.
func New(req Requester, opts ...Option) *Commcell {
	cc := &Commcell{
		req:      req,
		log:      zerolog.Nop(),
		timeZone: DefaultTimeZone,
		location: time.Local,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(cc)
	}
	return cc
}

// Clients returns the client registry, loading it on first use.
func (cc *Commcell) Clients(ctx context.Context) (*Clients, error) {
	if cc.clients == nil {
		clients, err := NewClients(ctx, cc)
		if err != nil {
			return nil, err
		}
		cc.clients = clients
	}
	return cc.clients, nil
}

// Client is shorthand for Clients followed by Get.
func (cc *Commcell) Client(ctx context.Context, name string) (*Client, error) {
	clients, err := cc.Clients(ctx)
	if err != nil {
		return nil, err
	}
	return clients.Get(ctx, name)
}

// Credentials returns the credential registry, loading it on first use.
func (cc *Commcell) Credentials(ctx context.Context) (*Credentials, error) {
	if cc.credentials == nil {
		creds, err := NewCredentials(ctx, cc)
		if err != nil {
			return nil, err
		}
		cc.credentials = creds
	}
	return cc.credentials, nil
}

// Schedules loads a fresh schedule registry.
func (cc *Commcell) Schedules(ctx context.Context) (*Schedules, error) {
	return NewSchedules(ctx, cc)
}

// Reset drops the cached registries so the next access reloads them.
func (cc *Commcell) Reset() {
	cc.clients = nil
	cc.credentials = nil
}

func (cc *Commcell) get(ctx context.Context, entity, path string) (models.Document, error) {
	return cc.send(ctx, entity, http.MethodGet, path, nil)
}

// send performs one request and decodes a JSON object body. Transport
// failures, non-2xx statuses and bodies that are not JSON objects are
// reported as distinct kinds.
func (cc *Commcell) send(ctx context.Context, entity, method, path string, body interface{}) (models.Document, error) {
	resp, err := cc.req.MakeRequest(ctx, method, path, body)
	if err != nil {
		return nil, cc.fail(entity, sdkerr.Transport(entity, method+" "+path, err))
	}
	if !resp.OK() {
		return nil, cc.fail(entity, sdkerr.Transport(entity,
			method+" "+path+": HTTP "+http.StatusText(resp.StatusCode)+": "+transport.UpdateResponse(resp.Text()), nil))
	}
	doc, err := resp.JSON()
	if err != nil {
		return nil, cc.fail(entity, sdkerr.Malformed(entity, method+" "+path+": "+err.Error()))
	}
	return doc, nil
}

// fail records err against entity and returns it unchanged.
func (cc *Commcell) fail(entity string, err error) error {
	if err == nil {
		return nil
	}
	cc.metrics.RecordError(entity, string(sdkerr.KindOf(err)))
	cc.log.Debug().Err(err).Str("entity", entity).Msg("request failed")
	return err
}
