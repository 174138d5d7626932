package contract

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/groblegark/configstore/internal/events"
	"github.com/groblegark/configstore/internal/idgen"
	"github.com/groblegark/configstore/internal/model"
	"github.com/groblegark/configstore/internal/store"
)

// Session owns the fixture rows provisioned for one contract run.
// Begin seeds them and End removes them.
type Session struct {
	id        string
	store     store.Store
	records   []*model.Record
	inserted  []bool
	publisher events.Publisher
	logger    *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithPublisher emits fixture events on p.
func WithPublisher(p events.Publisher) Option {
	return func(s *Session) { s.publisher = p }
}

// Attach returns a session over records without touching the store, so a
// later End can remove fixtures seeded by another process.
func Attach(st store.Store, records []*model.Record, logger *slog.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	id, err := idgen.SessionID()
	if err != nil {
		logger.Warn("failed to generate session id", "err", err)
	}
	s := &Session{
		id:        id,
		store:     st,
		records:   records,
		inserted:  make([]bool, len(records)),
		publisher: &events.NoopPublisher{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin inserts every record that is not already present, inside a single
// transaction. Existing rows are left untouched.
func Begin(ctx context.Context, st store.Store, records []*model.Record, logger *slog.Logger, opts ...Option) (*Session, error) {
	s := Attach(st, records, logger, opts...)

	for _, r := range records {
		if err := model.ValidateRecord(r); err != nil {
			return nil, fmt.Errorf("fixture: %w", err)
		}
	}

	err := st.RunInTransaction(ctx, func(tx store.Store) error {
		for i, r := range records {
			ok, err := tx.InsertRecordIfAbsent(ctx, r)
			if err != nil {
				return fmt.Errorf("seeding %s/%s: %w", r.Model.Name, r.Data, err)
			}
			s.inserted[i] = ok
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, r := range records {
		s.logger.Info("fixture seeded", "session", s.id, "model", r.Model.Name, "data", r.Data, "inserted", s.inserted[i])
		s.publish(ctx, events.TopicFixtureSeeded, events.FixtureSeeded{
			Session:  s.id,
			Type:     r.Model.Name,
			Data:     r.Data,
			Inserted: s.inserted[i],
		})
	}
	return s, nil
}

// ID identifies the session in logs and fixture events.
func (s *Session) ID() string {
	return s.id
}

// Records returns the fixtures provisioned by the session.
func (s *Session) Records() []*model.Record {
	return s.records
}

// Inserted reports, per record, whether Begin created the row.
func (s *Session) Inserted() []bool {
	return s.inserted
}

// End deletes every fixture row by exact key. Rows that are already gone are
// ignored; other failures are joined and returned after all deletes ran.
func (s *Session) End(ctx context.Context) error {
	var errs []error
	for _, r := range s.records {
		existed := true
		err := s.store.DeleteRecord(ctx, r.Model, r.Data)
		if errors.Is(err, sql.ErrNoRows) {
			existed = false
			err = nil
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("removing %s/%s: %w", r.Model.Name, r.Data, err))
			continue
		}
		s.logger.Info("fixture removed", "session", s.id, "model", r.Model.Name, "data", r.Data, "existed", existed)
		s.publish(ctx, events.TopicFixtureRemoved, events.FixtureRemoved{
			Session: s.id,
			Type:    r.Model.Name,
			Data:    r.Data,
			Existed: existed,
		})
	}
	return errors.Join(errs...)
}

func (s *Session) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		s.logger.Warn("failed to publish event", "topic", topic, "err", err)
	}
}
