// Package notifications delivers the transient messages (toasts) dashboards
// show after an action succeeds or fails.
package notifications

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/angelmondragon/soundmarket/pkg/logger"
)

// Level classifies a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is one user-visible message.
type Notification struct {
	Level   Level
	Title   string
	Message string
	At      time.Time
}

// Notifier surfaces notifications to the user.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Success emits a success notification.
func Success(ctx context.Context, n Notifier, title, message string) {
	emit(ctx, n, LevelSuccess, title, message)
}

// Error emits an error notification.
func Error(ctx context.Context, n Notifier, title, message string) {
	emit(ctx, n, LevelError, title, message)
}

// Info emits an informational notification.
func Info(ctx context.Context, n Notifier, title, message string) {
	emit(ctx, n, LevelInfo, title, message)
}

func emit(ctx context.Context, n Notifier, level Level, title, message string) {
	if n == nil {
		return
	}
	n.Notify(ctx, Notification{Level: level, Title: title, Message: message, At: time.Now()})
}

// Console prints notifications for the terminal user and mirrors them to the log.
type Console struct {
	out  io.Writer
	logg *logger.Logger
	mu   sync.Mutex
}

// NewConsole writes to out.
func NewConsole(out io.Writer, logg *logger.Logger) *Console {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Console{out: out, logg: logg}
}

func (c *Console) Notify(ctx context.Context, n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx = c.logg.WithFields(ctx, map[string]any{
		"toast_level": string(n.Level),
		"toast_title": n.Title,
	})
	c.logg.Debug(ctx, n.Message)

	if c.out == nil {
		return
	}
	line := n.Title
	if n.Message != "" {
		line = fmt.Sprintf("%s: %s", n.Title, n.Message)
	}
	_, _ = fmt.Fprintf(c.out, "%s %s\n", marker(n.Level), line)
}

func marker(level Level) string {
	switch level {
	case LevelSuccess:
		return "[ok]"
	case LevelError:
		return "[erreur]"
	default:
		return "[info]"
	}
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
}

// All returns every recorded notification.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

// Reset forgets recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}
