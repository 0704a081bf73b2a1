// Package watchlist watches a markdown file of repository URLs and submits
// any newly listed repository for analysis.
package watchlist

import (
	"bufio"
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Submitter starts an analysis and returns the task id
type Submitter interface {
	Submit(ctx context.Context, repoURL string) (taskID string, err error)
}

// Submission reports one repo handed to the backend
type Submission struct {
	RepoURL string
	TaskID  string
	Err     error
}

// Watcher monitors a watchlist file for new repository URLs
type Watcher struct {
	path      string
	submitter Submitter
	watcher   *fsnotify.Watcher
	debounce  time.Duration

	// URLs already submitted; the file is a grow-only list
	seen map[string]struct{}

	submissions chan Submission
	timer       *time.Timer
	mu          sync.Mutex

	cancel context.CancelFunc
}

// New creates a watcher for the given watchlist file
func New(path string, submitter Submitter) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		path:        path,
		submitter:   submitter,
		watcher:     fsw,
		debounce:    500 * time.Millisecond, // editors fire several events per save
		seen:        make(map[string]struct{}),
		submissions: make(chan Submission, 16),
	}, nil
}

// Submissions returns the channel of reported submissions
func (w *Watcher) Submissions() <-chan Submission {
	return w.submissions
}

// SetDebounce sets the debounce duration for batching file events
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

// Start scans the file once, then begins watching its directory for
// changes. Watching the directory instead of the file survives the
// rename-on-save dance most editors do.
func (w *Watcher) Start(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	w.Scan(ctx)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				w.handleEvent(ctx, event)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("watchlist: watcher error: %v", err)
			}
		}
	}()

	return nil
}

// Stop stops watching
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.watcher.Close()
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() { w.Scan(ctx) })
}

// Scan reads the watchlist and submits entries not yet seen. Submission
// failures are reported but do not mark the URL as seen, so it is retried
// on the next change.
func (w *Watcher) Scan(ctx context.Context) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("watchlist: reading %s: %v", w.path, err)
		}
		return
	}

	for _, repoURL := range Parse(data) {
		w.mu.Lock()
		_, already := w.seen[repoURL]
		w.mu.Unlock()
		if already {
			continue
		}

		taskID, err := w.submitter.Submit(ctx, repoURL)
		if err == nil {
			w.mu.Lock()
			w.seen[repoURL] = struct{}{}
			w.mu.Unlock()
		} else {
			log.Printf("watchlist: submitting %s: %v", repoURL, err)
		}

		select {
		case w.submissions <- Submission{RepoURL: repoURL, TaskID: taskID, Err: err}:
		case <-ctx.Done():
			return
		}
	}
}

// Parse extracts repository URLs from watchlist content. Entries are list
// items or bare lines; blank lines and # comments are skipped.
func Parse(data []byte) []string {
	var repos []string

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		line = strings.TrimPrefix(line, "- ")
		line = strings.TrimPrefix(line, "* ")
		line = strings.TrimSpace(line)

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.HasPrefix(line, "http://") && !strings.HasPrefix(line, "https://") {
			continue
		}
		repos = append(repos, line)
	}

	return repos
}
