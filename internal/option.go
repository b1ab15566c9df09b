package internal

import "github.com/snlxnet/bridge/internal/notify"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config   *Config
	notifier notify.Notifier
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithNotifier overrides the slog-backed status notifier. Useful for
// surfaces that want publish notices somewhere other than the log.
func WithNotifier(n notify.Notifier) Option {
	return func(a *application) {
		a.notifier = n
	}
}
