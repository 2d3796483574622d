package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"crowdfund/internal/crowdfund"
	"crowdfund/internal/ledger"
	"crowdfund/internal/metrics"
	"crowdfund/internal/models"
)

// StateSource exposes the committed ledger and the host's notion of time
type StateSource interface {
	State() ledger.Ledger
	Now() uint64
}

// Sweep summarizes one pass over every project
type Sweep struct {
	At          uint64
	Counts      map[models.Phase]int
	Transitions []Transition
}

// Transition records a project that changed phase since the previous sweep
type Transition struct {
	ProjectID uint64
	From      models.Phase
	To        models.Phase
}

// Scheduler wraps gocron to run the periodic phase sweep
// Phases are derived, never stored; the sweep only observes them so that
// deadline crossings show up in logs and in the projects-by-phase gauge.
type Scheduler struct {
	scheduler gocron.Scheduler
	source    StateSource

	mu    sync.Mutex
	known map[uint64]models.Phase
}

// NewScheduler creates a new scheduler instance
func NewScheduler(source StateSource) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		source:    source,
		known:     make(map[uint64]models.Phase),
	}, nil
}

// SchedulePhaseSweep runs the sweep every interval and returns the job id
func (s *Scheduler) SchedulePhaseSweep(interval time.Duration) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("sweep interval must be positive, got %s", interval)
	}

	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.runSweep),
		gocron.WithName("phase-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create phase sweep job: %w", err)
	}

	return job.ID().String(), nil
}

// Start begins the scheduler
func (s *Scheduler) Start(ctx context.Context) {
	slog.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler
func (s *Scheduler) Stop(ctx context.Context) error {
	slog.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) runSweep() {
	if _, err := s.Sweep(); err != nil {
		metrics.ErrorsTotal.WithLabelValues("scheduler").Inc()
		slog.Error("Phase sweep failed", "error", err)
	}
}

// Sweep derives the phase of every project once
func (s *Scheduler) Sweep() (*Sweep, error) {
	state := s.source.State()
	now := s.source.Now()

	count, err := crowdfund.ProjectCount(state)
	if err != nil {
		return nil, fmt.Errorf("failed to read project count: %w", err)
	}

	out := &Sweep{At: now, Counts: make(map[models.Phase]int, len(models.Phases))}
	for _, p := range models.Phases {
		out.Counts[p] = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id := uint64(0); id < count; id++ {
		p, err := crowdfund.LoadProject(state, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load project %d: %w", id, err)
		}
		if p == nil {
			continue
		}

		phase := p.Phase(now)
		out.Counts[phase]++

		prev, seen := s.known[id]
		s.known[id] = phase
		if !seen || prev == phase {
			continue
		}

		out.Transitions = append(out.Transitions, Transition{ProjectID: id, From: prev, To: phase})
		slog.Info("Project changed phase",
			"project_id", id,
			"from", prev.String(),
			"to", phase.String(),
			"collected", p.Collected,
			"target", p.Target,
		)
	}

	for phase, n := range out.Counts {
		metrics.ProjectsByPhase.WithLabelValues(phase.String()).Set(float64(n))
	}
	metrics.LastPhaseSweep.Set(float64(now))

	slog.Debug("Phase sweep completed", "projects", count, "transitions", len(out.Transitions))
	return out, nil
}
