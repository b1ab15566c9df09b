// Package notify is the user-visible status surface of a publish run:
// a sequence of human-readable notices, not structured errors.
package notify

import (
	"fmt"
	"log/slog"
)

// Notifier receives user-visible status notifications.
type Notifier interface {
	// Info reports progress or an informational no-op.
	Info(msg string)
	// Warn reports a recovered condition the run continues past.
	Warn(msg string)
	// Failed reports a failure, rendered as text appended to a generic
	// failed notice.
	Failed(what string, err error)
}

// Log is the default Notifier backed by slog.
type Log struct {
	Logger *slog.Logger
}

func (l *Log) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

func (l *Log) Info(msg string) {
	l.logger().Info(msg)
}

func (l *Log) Warn(msg string) {
	l.logger().Warn(msg)
}

func (l *Log) Failed(what string, err error) {
	l.logger().Error(fmt.Sprintf("%s failed: %v", what, err))
}
