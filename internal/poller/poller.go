// Package poller drives status polling on a timer, decoupled from any
// rendering loop. Consumers read updates from a channel; the poller stops
// itself once a terminal status has been delivered.
package poller

import (
	"context"
	"time"

	"github.com/codebase-genius/genius-cli/internal/backend"
	"github.com/codebase-genius/genius-cli/internal/session"
)

// StatusPoller is the single backend operation the poller needs
type StatusPoller interface {
	PollStatus(ctx context.Context, taskID string) backend.StatusResponse
}

// Update is one poll result for a task
type Update struct {
	TaskID string
	Status backend.StatusResponse
}

// Terminal reports whether this update ends the poll loop
func (u Update) Terminal() bool {
	return session.IsTerminal(u.Status.Progress.Status)
}

// Poller polls a task's status at a fixed cadence. No backoff and no
// retries: a failed poll arrives as an error-status update, which is
// terminal.
type Poller struct {
	client   StatusPoller
	interval time.Duration
}

// New creates a poller. Interval must be positive; the dashboard default
// is 3 seconds.
func New(client StatusPoller, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Poller{client: client, interval: interval}
}

// Interval returns the poll cadence
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Run polls taskID until a terminal status or context cancellation. The
// first poll fires immediately; the returned channel is closed when the
// loop ends.
func (p *Poller) Run(ctx context.Context, taskID string) <-chan Update {
	updates := make(chan Update)

	go func() {
		defer close(updates)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			update := Update{TaskID: taskID, Status: p.client.PollStatus(ctx, taskID)}

			select {
			case updates <- update:
			case <-ctx.Done():
				return
			}

			if update.Terminal() {
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return updates
}
