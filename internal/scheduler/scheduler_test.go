package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"TopMover/internal/domain/models"
)

type countingRunner struct {
	invs []models.Invocation
	err  error
}

func (r *countingRunner) Run(_ context.Context, inv models.Invocation) (*models.RunResult, error) {
	r.invs = append(r.invs, inv)
	if r.err != nil {
		return nil, r.err
	}
	return &models.RunResult{RunID: "r", Mode: inv.Mode}, nil
}

type countingSweeper struct {
	at []time.Time
}

func (s *countingSweeper) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	s.at = append(s.at, now)
	return 2, nil
}

func TestRegisterAll(t *testing.T) {
	s := NewScheduler(&countingRunner{}, &countingSweeper{}, nil)
	if err := s.RegisterAll("0 30 6 * * 2-6", "0 0 3 * * *"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if n := len(s.Cron.Entries()); n != 2 {
		t.Fatalf("entries = %d", n)
	}
}

func TestRegisterSkipsSweepWithoutSweeper(t *testing.T) {
	s := NewScheduler(&countingRunner{}, nil, nil)
	if err := s.RegisterAll("0 30 6 * * 2-6", "0 0 3 * * *"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if n := len(s.Cron.Entries()); n != 1 {
		t.Fatalf("entries = %d", n)
	}
}

func TestRegisterRejectsBadSpec(t *testing.T) {
	s := NewScheduler(&countingRunner{}, nil, nil)
	if err := s.RegisterAll("every tuesday", ""); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestRunNowAndSweepNow(t *testing.T) {
	runner := &countingRunner{}
	sweeper := &countingSweeper{}
	s := NewScheduler(runner, sweeper, nil)
	fixed := time.Date(2024, 1, 13, 3, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	s.RunNow()
	if len(runner.invs) != 1 || runner.invs[0].Mode != models.ModeScheduled {
		t.Fatalf("invs = %+v", runner.invs)
	}
	runner.err = errors.New("provider down")
	s.RunNow()
	if len(runner.invs) != 2 {
		t.Fatalf("failed run should still be attempted")
	}

	s.SweepNow()
	if len(sweeper.at) != 1 || !sweeper.at[0].Equal(fixed) {
		t.Fatalf("sweeps = %v", sweeper.at)
	}
}
