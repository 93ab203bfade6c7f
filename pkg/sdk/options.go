package campusnav

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "valkey", "redis", "badger" or "sqlite"
	addrs    []string
	password string
	path     string // badger directory or sqlite DSN
	inMemory bool

	keyPrefix   string
	seedWorkers int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey stores buildings in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis stores buildings in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithBadger stores buildings in an embedded Badger database under dir.
func WithBadger(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "badger"
		c.path = dir
		c.inMemory = false
	})
}

// WithInMemory keeps buildings in an in-memory Badger database.
// Everything is lost on Close.
func WithInMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "badger"
		c.path = ""
		c.inMemory = true
	})
}

// WithSQLite stores buildings in a SQLite database (file path or ":memory:").
func WithSQLite(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "sqlite"
		c.path = dsn
	})
}

// WithKeyPrefix sets the key namespace for KV stores. Default: "campusnav:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithSeedWorkers sets the seeding pool size. Default: 8.
func WithSeedWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.seedWorkers = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
