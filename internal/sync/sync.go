// Package sync periodically exports every configuration record as JSONL to
// backup destinations.
package sync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/groblegark/configstore/internal/model"
	"github.com/groblegark/configstore/internal/store"
)

// Destination receives export snapshots.
type Destination interface {
	// Name identifies the destination in logs.
	Name() string
	Write(ctx context.Context, snap *Snapshot) error
}

// Scheduler exports the store on an interval and hands each snapshot to
// every destination. A snapshot whose digest matches the last one delivered
// everywhere is not written again.
type Scheduler struct {
	store        store.Store
	registry     *model.Registry
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	mu         sync.Mutex
	lastDigest string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler returns a scheduler. A nil logger uses slog.Default.
func NewScheduler(s store.Store, reg *model.Registry, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:        s,
		registry:     reg,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// Start syncs immediately, then on every tick until ctx is cancelled or
// Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.SyncOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.SyncOnce(ctx)
			}
		}
	}()
}

// Stop cancels the scheduler and waits for an in-flight sync.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// SyncOnce exports once and writes the snapshot to every destination.
// A failing destination does not stop the others, and leaves the digest
// unrecorded so the next sync retries.
func (s *Scheduler) SyncOnce(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := Export(ctx, s.store, s.registry)
	if err != nil {
		s.logger.Error("sync export failed", "err", err)
		return
	}
	if snap.Digest == s.lastDigest {
		s.logger.Debug("sync skipped, no changes", "digest", snap.ShortDigest())
		return
	}

	failed := 0
	for _, dest := range s.destinations {
		if err := dest.Write(ctx, snap); err != nil {
			failed++
			s.logger.Error("sync destination write failed", "destination", dest.Name(), "err", err)
		}
	}
	if failed == 0 {
		s.lastDigest = snap.Digest
	}

	s.logger.Info("sync completed",
		"destinations", len(s.destinations),
		"failed", failed,
		"records", snap.Records,
		"digest", snap.ShortDigest(),
		"bytes", len(snap.Data))
}
