// Package server exposes configuration lookups over HTTP and gRPC.
package server

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/groblegark/configstore/internal/events"
	"github.com/groblegark/configstore/internal/model"
	"github.com/groblegark/configstore/internal/store"
)

// ConfigServer resolves {Type, Data} lookups against a store.
type ConfigServer struct {
	registry  *model.Registry
	store     store.Store
	publisher events.Publisher
	stream    *eventStream
	logger    *slog.Logger
}

// NewConfigServer returns a ConfigServer. A nil publisher disables events and
// a nil logger uses slog.Default().
func NewConfigServer(reg *model.Registry, s store.Store, p events.Publisher, logger *slog.Logger) *ConfigServer {
	if p == nil {
		p = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ConfigServer{
		registry:  reg,
		store:     s,
		publisher: p,
		stream:    newEventStream(),
		logger:    logger,
	}
}

// Registry returns the models served by s.
func (s *ConfigServer) Registry() *model.Registry {
	return s.registry
}

// Lookup resolves a raw request body to a record. The returned error is
// always one of model.ErrBadInput, model.ErrModelNotPresent or
// model.ErrRecordNotFound.
func (s *ConfigServer) Lookup(ctx context.Context, body []byte) (*model.Record, error) {
	start := time.Now()
	req, err := model.ParseLookup(body)
	if err == nil {
		var rec *model.Record
		rec, err = s.resolve(ctx, req)
		if err == nil {
			s.publish(ctx, events.TopicLookupServed, events.LookupServed{
				RequestID: RequestIDFromContext(ctx),
				Transport: transportFromContext(ctx),
				Type:      req.TypeName(),
				Data:      req.DataKey(),
				Duration:  time.Since(start),
			})
			return rec, nil
		}
	}
	s.publish(ctx, events.TopicLookupFailed, events.LookupFailed{
		RequestID: RequestIDFromContext(ctx),
		Transport: transportFromContext(ctx),
		Type:      req.TypeName(),
		Data:      req.DataKey(),
		Error:     err.Error(),
		Duration:  time.Since(start),
	})
	return nil, err
}

func (s *ConfigServer) resolve(ctx context.Context, req model.LookupRequest) (*model.Record, error) {
	m, ok := s.registry.Lookup(req.TypeName())
	if !ok {
		return nil, model.ErrModelNotPresent
	}
	if !req.DataValid() {
		return nil, model.ErrBadInput
	}
	data := req.DataKey()
	if data == "" {
		return nil, model.ErrRecordNotFound
	}
	rec, err := s.store.GetRecord(ctx, m, data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrRecordNotFound
	}
	if err != nil {
		s.logger.Error("record lookup failed", "model", m.Name, "data", data, "err", err)
		return nil, model.ErrRecordNotFound
	}
	return rec, nil
}

// Ping reports whether the backing store is reachable.
func (s *ConfigServer) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// publish is best-effort; failures are logged but do not affect the lookup.
func (s *ConfigServer) publish(ctx context.Context, topic string, event any) {
	s.broadcast(topic, event)
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "err", err)
	}
}

type ctxKey int

const (
	requestIDKey ctxKey = iota
	transportKey
)

// WithRequestID returns a context carrying the request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID stored in ctx, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func withTransport(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, transportKey, name)
}

func transportFromContext(ctx context.Context) string {
	t, _ := ctx.Value(transportKey).(string)
	return t
}
