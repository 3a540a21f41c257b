// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package kestrel

// config holds the resolved construction options for a Runtime,
// applied in order by resolveOptions.
type config struct {
	ioEnabled bool
	fsEnabled bool
	logger    Logger
}

// Option configures a Runtime at construction time.
type Option interface {
	apply(*config) error
}

type optionFunc func(*config) error

func (f optionFunc) apply(c *config) error { return f(c) }

// WithIO enables the reactor-backed I/O surface (net, Sleep, Timeout).
// Without it, non-zero Sleep, Timeout (once it arms its timer), and
// net/fs calls that reach the reactor panic with a remediation hint.
// Spawn needs only an active BlockOn, not this option.
func WithIO() Option {
	return optionFunc(func(c *config) error {
		c.ioEnabled = true
		return nil
	})
}

// WithFS enables the filesystem surface. It implies WithIO, since
// filesystem futures are driven by the same reactor.
func WithFS() Option {
	return optionFunc(func(c *config) error {
		c.ioEnabled = true
		c.fsEnabled = true
		return nil
	})
}

// WithLogger overrides the Runtime's diagnostic logger. If omitted,
// New uses the package-level default (see logging.go).
func WithLogger(l Logger) Option {
	return optionFunc(func(c *config) error {
		c.logger = l
		return nil
	})
}

// resolveOptions applies opts to a fresh config, skipping nils so
// callers can pass conditionally-constructed option slices.
func resolveOptions(opts []Option) (*config, error) {
	cfg := &config{logger: defaultLogger()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
