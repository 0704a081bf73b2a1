package notify

import "fmt"

// NotificationType represents the type of notification
type NotificationType int

const (
	NotifyInfo NotificationType = iota
	NotifySuccess
	NotifyWarning
	NotifyError
)

// Notification represents a notification to be sent
type Notification struct {
	Title   string
	Message string
	Type    NotificationType
	TaskID  string // Optional analysis task reference
	RepoURL string // Optional repository reference
}

// Notifier is the interface for sending notifications
type Notifier interface {
	Send(n Notification) error
}

// AnalysisFinished builds the notification for a terminal analysis status
func AnalysisFinished(repoURL, taskID string, ok bool, errMsg string) Notification {
	if ok {
		return Notification{
			Title:   "Documentation ready",
			Message: fmt.Sprintf("Analysis of %s completed", repoURL),
			Type:    NotifySuccess,
			TaskID:  taskID,
			RepoURL: repoURL,
		}
	}
	msg := fmt.Sprintf("Analysis of %s failed", repoURL)
	if errMsg != "" {
		msg += ": " + errMsg
	}
	return Notification{
		Title:   "Analysis failed",
		Message: msg,
		Type:    NotifyError,
		TaskID:  taskID,
		RepoURL: repoURL,
	}
}

// MultiNotifier sends to multiple notifiers
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier creates a notifier that sends to all provided notifiers
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Send sends the notification to all notifiers
func (m *MultiNotifier) Send(n Notification) error {
	var lastErr error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(n); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// NoopNotifier does nothing (for testing or disabled notifications)
type NoopNotifier struct{}

func (NoopNotifier) Send(n Notification) error { return nil }
