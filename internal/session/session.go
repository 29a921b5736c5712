// Package session turns a loaded configuration into logged-in Commcell
// object models with telemetry attached.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/commvault-ps/cvpysdk-sub001/internal/commcell"
	"github.com/commvault-ps/cvpysdk-sub001/internal/config"
	"github.com/commvault-ps/cvpysdk-sub001/internal/models"
	"github.com/commvault-ps/cvpysdk-sub001/internal/telemetry"
	"github.com/commvault-ps/cvpysdk-sub001/internal/transport"
)

// ServiceName tags spans and log lines.
const ServiceName = "cvsdk"

// Runtime holds what every connection shares: logger, metrics and tracer.
type Runtime struct {
	Config  *config.Config
	Log     zerolog.Logger
	Metrics *telemetry.Metrics
	Tracer  *telemetry.Tracer

	location *time.Location
	now      func() time.Time
}

// NewRuntime builds the telemetry stack described by cfg.
func NewRuntime(cfg *config.Config) (*Runtime, error) {
	log, err := telemetry.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	tracer, err := telemetry.NewTracer(cfg.Tracing, ServiceName)
	if err != nil {
		return nil, fmt.Errorf("creating tracer: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &Runtime{
		Config:   cfg,
		Log:      log,
		Metrics:  telemetry.NewMetrics(cfg.Metrics),
		Tracer:   tracer,
		location: loc,
		now:      time.Now,
	}, nil
}

// SetClock replaces the clock handed to every Commcell.
func (rt *Runtime) SetClock(now func() time.Time) {
	rt.now = now
}

// Connect logs in to conn and returns its object model.
func (rt *Runtime) Connect(ctx context.Context, conn *models.Connection) (*commcell.Commcell, error) {
	client := transport.NewClient(conn,
		transport.WithLogger(rt.Log),
		transport.WithMetrics(rt.Metrics),
		transport.WithTracer(rt.Tracer.Tracer()),
	)
	if err := client.Login(ctx); err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", conn.Name, err)
	}
	rt.Log.Debug().Str("connection", conn.Name).Str("url", conn.BaseURL()).Msg("connected")

	tz := rt.Config.CommserveTimeZone
	if tz == "" {
		tz = commcell.DefaultTimeZone
	}
	return commcell.New(client,
		commcell.WithLogger(rt.Log),
		commcell.WithMetrics(rt.Metrics),
		commcell.WithTimeZone(tz, rt.location),
		commcell.WithClock(rt.now),
	), nil
}

// ConnectNamed resolves name through the configuration and connects to it.
func (rt *Runtime) ConnectNamed(ctx context.Context, name string) (*commcell.Commcell, error) {
	conn, err := rt.Config.Connection(name)
	if err != nil {
		return nil, err
	}
	return rt.Connect(ctx, conn)
}

// Close flushes pending spans.
func (rt *Runtime) Close(ctx context.Context) error {
	return rt.Tracer.Shutdown(ctx)
}
