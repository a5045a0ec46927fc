package internal

import "net"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config   *Config
	listener net.Listener
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithListener serves HTTP on l instead of listening on the configured port.
func WithListener(l net.Listener) Option {
	return func(a *application) {
		a.listener = l
	}
}
