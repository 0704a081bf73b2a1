// Package schedule re-analyzes a fixed set of repositories on a cron
// cadence, so their documentation stays current without manual submits.
package schedule

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/codebase-genius/genius-cli/internal/backend"
	"github.com/codebase-genius/genius-cli/internal/notify"
	"github.com/codebase-genius/genius-cli/internal/poller"
	"github.com/codebase-genius/genius-cli/internal/session"
)

// Backend is the slice of the client a scheduled run needs
type Backend interface {
	SubmitAnalysis(ctx context.Context, repoURL string) (backend.AnalyzeResponse, error)
	PollStatus(ctx context.Context, taskID string) backend.StatusResponse
}

// maxConcurrentRuns bounds how many repos a firing analyzes at once
const maxConcurrentRuns = 2

// Scheduler fires a batch re-analysis on a cron schedule
type Scheduler struct {
	expr     string
	parser   cron.Parser
	lastRun  time.Time
	running  bool
	mu       sync.RWMutex
	stopChan chan struct{}
}

// ParseCron parses a cron expression
func ParseCron(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(expr)
}

// NewScheduler creates a scheduler for the given cron expression
func NewScheduler(expr string) (*Scheduler, error) {
	if _, err := ParseCron(expr); err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	return &Scheduler{
		expr:     expr,
		parser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		stopChan: make(chan struct{}),
	}, nil
}

// NextRun returns the next scheduled firing
func (s *Scheduler) NextRun() time.Time {
	sched, err := s.parser.Parse(s.expr)
	if err != nil {
		return time.Time{}
	}
	return sched.Next(time.Now())
}

// ShouldRun returns true if the batch should run now
func (s *Scheduler) ShouldRun() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.running {
		return false
	}

	sched, err := s.parser.Parse(s.expr)
	if err != nil {
		return false
	}

	lastRun := s.lastRun
	if lastRun.IsZero() {
		lastRun = time.Now().Add(-24 * time.Hour)
	}

	return time.Now().After(sched.Next(lastRun))
}

// MarkRunning marks the batch as currently running
func (s *Scheduler) MarkRunning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
}

// MarkComplete marks the batch as complete
func (s *Scheduler) MarkComplete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.lastRun = time.Now()
}

// Start begins the scheduler loop, invoking runFunc for each firing
func (s *Scheduler) Start(runFunc func() error) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			if s.ShouldRun() {
				s.MarkRunning()
				go func() {
					if err := runFunc(); err != nil {
						log.Printf("schedule: batch run failed: %v", err)
					}
					s.MarkComplete()
				}()
			}
		}
	}
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

// RunBatch submits every repo and waits for each to reach a terminal
// status, notifying per repo. The first submit error does not stop the
// others; failures are collected into the returned error.
func RunBatch(ctx context.Context, be Backend, repos []string, interval time.Duration, notifier notify.Notifier) error {
	if notifier == nil {
		notifier = notify.NoopNotifier{}
	}

	// A plain group: one failing repo must not cancel the others
	var g errgroup.Group
	g.SetLimit(maxConcurrentRuns)

	for _, repoURL := range repos {
		g.Go(func() error {
			resp, err := be.SubmitAnalysis(ctx, repoURL)
			if err != nil {
				return fmt.Errorf("submitting %s: %w", repoURL, err)
			}
			if resp.Error != "" {
				notifier.Send(notify.AnalysisFinished(repoURL, "", false, resp.Error))
				return fmt.Errorf("submitting %s: %s", repoURL, resp.Error)
			}

			var last poller.Update
			for update := range poller.New(be, interval).Run(ctx, resp.TaskID) {
				last = update
			}

			ok := session.ParseStatus(last.Status.Progress.Status) == session.StatusCompleted
			notifier.Send(notify.AnalysisFinished(repoURL, resp.TaskID, ok, last.Status.Error))
			if !ok {
				return fmt.Errorf("analyzing %s: %s", repoURL, last.Status.Error)
			}
			return nil
		})
	}

	return g.Wait()
}
