package display

import (
	"sync"
	"time"
)

// Notification is a transient message shown to the user
type Notification struct {
	Message   string    `json:"message"`
	IsError   bool      `json:"is_error"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Notifier holds the latest notification until it expires
type Notifier struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	current *Notification
}

// NewNotifier creates a notifier whose messages are dismissed after ttl
func NewNotifier(ttl time.Duration, now func() time.Time) *Notifier {
	if now == nil {
		now = time.Now
	}
	return &Notifier{ttl: ttl, now: now}
}

// Success replaces the current notification with a success message
func (n *Notifier) Success(message string) {
	n.set(message, false)
}

// Error replaces the current notification with an error message
func (n *Notifier) Error(message string) {
	n.set(message, true)
}

func (n *Notifier) set(message string, isError bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = &Notification{
		Message:   message,
		IsError:   isError,
		ExpiresAt: n.now().Add(n.ttl),
	}
}

// Current returns the live notification, or nil once it has expired
func (n *Notifier) Current() *Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.current == nil {
		return nil
	}
	if !n.now().Before(n.current.ExpiresAt) {
		n.current = nil
		return nil
	}
	out := *n.current
	return &out
}
