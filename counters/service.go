package counters

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Timer is the repeating refresh the service rearms after manual runs.
type Timer interface {
	Restart() error
}

// Service owns the counter config and serializes every pass that reads or
// writes it: reconciliation, discovery and setup never overlap.
type Service struct {
	store    *Store
	platform Platform

	// pass admits one reconciliation, discovery or setup at a time.
	pass *semaphore.Weighted

	timerMu sync.Mutex
	timer   Timer
}

// NewService wires a store and a platform. Call SetTimer before Start so
// manual runs can rearm the schedule.
func NewService(store *Store, platform Platform) *Service {
	return &Service{
		store:    store,
		platform: platform,
		pass:     semaphore.NewWeighted(1),
	}
}

// SetTimer installs the repeating refresh rearmed by Start, Setup and Update.
func (s *Service) SetTimer(t Timer) {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	s.timer = t
}

// Store exposes the config store, mostly for inspection in tools and tests.
func (s *Service) Store() *Store {
	return s.store
}

func (s *Service) restartTimer() {
	s.timerMu.Lock()
	t := s.timer
	s.timerMu.Unlock()
	if t == nil {
		slog.Warn("no refresh timer installed, skipping rearm")
		return
	}
	if err := t.Restart(); err != nil {
		slog.Error("failed to rearm refresh timer", "error", err)
	}
}

// Start primes the counters once the platform is ready: recover a lost
// mapping, run one pass, then arm the repeating refresh.
func (s *Service) Start(ctx context.Context) {
	s.store.Load()
	if err := s.DetectExistingChannels(ctx); err != nil {
		slog.Error("channel discovery failed", "error", err)
	}
	if err := s.Reconcile(ctx); err != nil {
		slog.Error("initial counter update failed", "error", err)
	}
	s.restartTimer()
}

// Update runs one pass and restarts the repeating refresh so the next tick is
// a full interval away.
func (s *Service) Update(ctx context.Context) error {
	err := s.Reconcile(ctx)
	s.restartTimer()
	return err
}

// Tick is the scheduled refresh body.
func (s *Service) Tick(ctx context.Context) error {
	return s.Reconcile(ctx)
}
