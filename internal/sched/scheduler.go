// Package sched runs the analysis cycles on their cadences: several
// full runs per day, a periodic breaking-news check, and a daily digest.
package sched

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/newswatch/newswatch/internal/logging"
)

// Runner is the set of cycles the scheduler can trigger. Implemented by
// pipeline.Pipeline.
type Runner interface {
	RunFull(ctx context.Context) error
	RunEmergency(ctx context.Context) error
	RunDigest(ctx context.Context) error
}

// State describes what the scheduler is doing right now.
type State int

const (
	StateIdle State = iota
	StateRunningFull
	StateRunningEmergency
	StateRunningDigest
)

func (s State) String() string {
	switch s {
	case StateRunningFull:
		return "running-full"
	case StateRunningEmergency:
		return "running-emergency"
	case StateRunningDigest:
		return "running-digest"
	default:
		return "idle"
	}
}

// clockTime is a minute-of-day wall clock entry.
type clockTime int

// ParseClockTime parses "HH:MM".
func ParseClockTime(s string) (clockTime, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return clockTime(h*60 + m), nil
}

// occurrenceOn returns the entry's wall-clock instant on the day of t.
func (c clockTime) occurrenceOn(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), int(c)/60, int(c)%60, 0, 0, t.Location())
}

// Config holds the scheduler cadences.
type Config struct {
	FullRunTimes      []string      // "HH:MM" entries, e.g. 06:00 through 21:00
	EmergencyInterval time.Duration // 0 disables the breaking-news check
	DigestTime        string        // "HH:MM", empty disables the digest
}

// Scheduler drives the cycles from a single goroutine. Jobs run
// synchronously inside the loop, so cadences never overlap.
type Scheduler struct {
	runner Runner

	fullTimes    []clockTime
	emergency    time.Duration
	digest       clockTime
	digestActive bool

	tick time.Duration
	now  func() time.Time

	lastFull      map[clockTime]time.Time
	lastEmergency time.Time
	lastDigest    time.Time

	mu    sync.Mutex
	state State
}

// New builds a scheduler. Invalid time entries are rejected up front so
// a typo in the config fails at startup, not at 06:00.
func New(runner Runner, cfg Config) (*Scheduler, error) {
	s := &Scheduler{
		runner:    runner,
		emergency: cfg.EmergencyInterval,
		tick:      time.Minute,
		now:       time.Now,
		lastFull:  make(map[clockTime]time.Time),
	}

	for _, raw := range cfg.FullRunTimes {
		ct, err := ParseClockTime(raw)
		if err != nil {
			return nil, fmt.Errorf("schedule time: %w", err)
		}
		s.fullTimes = append(s.fullTimes, ct)
	}
	sort.Slice(s.fullTimes, func(i, j int) bool { return s.fullTimes[i] < s.fullTimes[j] })

	if cfg.DigestTime != "" {
		ct, err := ParseClockTime(cfg.DigestTime)
		if err != nil {
			return nil, fmt.Errorf("digest time: %w", err)
		}
		s.digest = ct
		s.digestActive = true
	}
	return s, nil
}

// State returns the current loop state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run blocks until ctx is cancelled. An initial full cycle runs
// immediately so a restart never waits hours for the first schedule
// entry.
func (s *Scheduler) Run(ctx context.Context) error {
	logging.Info("Scheduler started",
		"full_runs", len(s.fullTimes),
		"emergency_interval", s.emergency,
		"digest", s.digestActive)

	start := s.now()
	s.lastEmergency = start
	// Entries earlier today count as already fired; the initial run
	// covers them.
	for _, ct := range s.fullTimes {
		if occ := ct.occurrenceOn(start); !occ.After(start) {
			s.lastFull[ct] = occ
		}
	}
	if s.digestActive {
		if occ := s.digest.occurrenceOn(start); !occ.After(start) {
			s.lastDigest = occ
		}
	}

	s.runJob(ctx, StateRunningFull, s.runner.RunFull)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info("Scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

// runDue fires every job whose wall-clock moment has passed since its
// last firing. A late or skipped tick still triggers the entry.
func (s *Scheduler) runDue(ctx context.Context) {
	now := s.now()

	for _, ct := range s.fullTimes {
		occ := ct.occurrenceOn(now)
		if occ.After(now) || !s.lastFull[ct].Before(occ) {
			continue
		}
		s.lastFull[ct] = occ
		s.runJob(ctx, StateRunningFull, s.runner.RunFull)
		if ctx.Err() != nil {
			return
		}
	}

	if s.emergency > 0 && now.Sub(s.lastEmergency) >= s.emergency {
		s.lastEmergency = now
		s.runJob(ctx, StateRunningEmergency, s.runner.RunEmergency)
		if ctx.Err() != nil {
			return
		}
	}

	if s.digestActive {
		occ := s.digest.occurrenceOn(now)
		if !occ.After(now) && s.lastDigest.Before(occ) {
			s.lastDigest = occ
			s.runJob(ctx, StateRunningDigest, s.runner.RunDigest)
		}
	}
}

// runJob executes one cycle with panic containment. A panicking cycle
// must not take the scheduler loop down.
func (s *Scheduler) runJob(ctx context.Context, state State, job func(context.Context) error) {
	if ctx.Err() != nil {
		return
	}

	s.setState(state)
	defer s.setState(StateIdle)
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Cycle panicked", "state", state.String(), "panic", r)
		}
	}()

	started := s.now()
	if err := job(ctx); err != nil {
		logging.Error("Cycle failed", "state", state.String(), "error", err)
		return
	}
	logging.Info("Cycle complete", "state", state.String(), "duration", s.now().Sub(started))
}

func (s *Scheduler) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
