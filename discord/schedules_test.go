package discord

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduleHandleRestartKeepsOneEntry(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	h := s.Handle(NewBotSchedule("refresh", time.Hour, func(ctx context.Context) error { return nil }))
	for i := 0; i < 5; i++ {
		if err := h.Restart(); err != nil {
			t.Fatalf("Restart() error = %v", err)
		}
	}
	if got := s.Active(); got != 1 {
		t.Errorf("Active() = %d after restarts, want 1", got)
	}

	if err := h.Arm(); err != nil {
		t.Fatal(err)
	}
	if got := s.Active(); got != 1 {
		t.Errorf("Active() = %d after Arm, want 1", got)
	}

	h.Cancel()
	if got := s.Active(); got != 0 {
		t.Errorf("Active() = %d after Cancel, want 0", got)
	}
	h.Cancel()
}

func TestScheduleRejectsShortInterval(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	h := s.Handle(NewBotSchedule("fast", 10*time.Millisecond, func(ctx context.Context) error { return nil }))
	if err := h.Arm(); err == nil {
		t.Error("Arm() accepted a sub-second interval")
	}
	if s.Active() != 0 {
		t.Error("entry armed despite error")
	}
}

func TestScheduleRuns(t *testing.T) {
	s := NewScheduler()
	s.Start()
	defer s.Stop()

	var runs atomic.Int32
	h := s.Handle(NewBotSchedule("tick", time.Second, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}))
	if err := h.Arm(); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for runs.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if runs.Load() == 0 {
		t.Error("schedule never ran")
	}
}
