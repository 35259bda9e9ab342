package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// BotScheduleI defines the interface for repeating tasks in the bot
type BotScheduleI interface {
	// GetName returns the name of the schedule
	GetName() string
	// GetInterval returns the time between two runs
	GetInterval() time.Duration
	// Execute runs the task once
	Execute(ctx context.Context) error
}

// GenericBotSchedule is a generic implementation of BotScheduleI
type GenericBotSchedule struct {
	Name     string
	Interval time.Duration
	Handler  func(ctx context.Context) error
}

// GetName returns the schedule's name
func (bs *GenericBotSchedule) GetName() string {
	return bs.Name
}

// GetInterval returns the schedule's period
func (bs *GenericBotSchedule) GetInterval() time.Duration {
	return bs.Interval
}

// Execute runs the scheduled task
func (bs *GenericBotSchedule) Execute(ctx context.Context) error {
	return bs.Handler(ctx)
}

// NewBotSchedule creates a new repeating task with the given name, period and handler
func NewBotSchedule(name string, interval time.Duration, handler func(ctx context.Context) error) BotScheduleI {
	return &GenericBotSchedule{
		Name:     name,
		Interval: interval,
		Handler:  handler,
	}
}

// Scheduler runs repeating tasks on a single cron instance. Each named
// schedule has at most one live entry.
type Scheduler struct {
	cron       *cron.Cron
	ctx        context.Context
	cancelFunc context.CancelFunc

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// NewScheduler creates a stopped scheduler.
func NewScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	logger := cronLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		ctx:        ctx,
		cancelFunc: cancel,
		entries:    make(map[string]cron.EntryID),
	}
}

// Start begins firing armed entries.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started")
}

// Stop cancels running tasks' context and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancelFunc()
	<-s.cron.Stop().Done()
	slog.Info("scheduler stopped")
}

// Handle returns the arm/cancel/restart controls of one schedule.
func (s *Scheduler) Handle(schedule BotScheduleI) *ScheduleHandle {
	return &ScheduleHandle{scheduler: s, schedule: schedule}
}

// Active reports how many entries are armed.
func (s *Scheduler) Active() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) arm(schedule BotScheduleI, replace bool) error {
	interval := schedule.GetInterval()
	if interval < time.Second {
		return fmt.Errorf("schedule %s: interval %s is below one second", schedule.GetName(), interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[schedule.GetName()]; ok {
		if !replace {
			return nil
		}
		s.cron.Remove(id)
		delete(s.entries, schedule.GetName())
	}

	id := s.cron.Schedule(cron.Every(interval), cron.FuncJob(func() {
		s.execute(schedule)
	}))
	s.entries[schedule.GetName()] = id
	slog.Info("schedule armed", "name", schedule.GetName(), "interval", interval)
	return nil
}

func (s *Scheduler) cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
		delete(s.entries, name)
		slog.Info("schedule cancelled", "name", name)
	}
}

func (s *Scheduler) execute(schedule BotScheduleI) {
	slog.Debug("executing schedule", "name", schedule.GetName())
	if err := schedule.Execute(s.ctx); err != nil {
		slog.Error("failed to execute schedule", "name", schedule.GetName(), "error", err)
	}
}

// ScheduleHandle controls one named schedule.
type ScheduleHandle struct {
	scheduler *Scheduler
	schedule  BotScheduleI
}

// Arm starts the schedule unless it is already armed.
func (h *ScheduleHandle) Arm() error {
	return h.scheduler.arm(h.schedule, false)
}

// Cancel removes the schedule's entry. A run already in progress finishes.
func (h *ScheduleHandle) Cancel() {
	h.scheduler.cancel(h.schedule.GetName())
}

// Restart replaces the armed entry with a new one, so the next run is a full
// interval from now.
func (h *ScheduleHandle) Restart() error {
	return h.scheduler.arm(h.schedule, true)
}

// cronLogger routes cron's internal logging to slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
