package swiftbind

import (
	"io"
	"log/slog"

	"github.com/appsworld/swiftbind/pkg/diag"
)

// DefaultCacheSize is the number of loaded libraries a Session keeps.
const DefaultCacheSize = 64

// An Option configures a Session or a container read.
type Option func(*config)

type config struct {
	log       *slog.Logger
	diag      *diag.Collector
	cacheSize int
	lazy      bool
}

func newConfig(opts []Option) config {
	c := config{cacheSize: DefaultCacheSize}
	for _, o := range opts {
		o(&c)
	}
	if c.log == nil {
		c.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.diag == nil {
		c.diag = diag.New()
	}
	return c
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.log = l }
}

// WithCollector sets where per-symbol and per-declaration problems are
// recorded. By default each Session gets its own collector.
func WithCollector(d *diag.Collector) Option {
	return func(c *config) { c.diag = d }
}

// WithCacheSize bounds how many libraries Load keeps indexed. Values below
// one fall back to DefaultCacheSize.
func WithCacheSize(n int) Option {
	return func(c *config) {
		if n < 1 {
			n = DefaultCacheSize
		}
		c.cacheSize = n
	}
}

// WithLazySymbols defers symbol table decoding until the symbols are first
// requested.
func WithLazySymbols(lazy bool) Option {
	return func(c *config) { c.lazy = lazy }
}
