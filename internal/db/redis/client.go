package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/campusnav/internal/db"
)

var _ db.Store = (*Store)(nil)

// Server flavors accepted in Config.Flavor. Both speak RESP with the same
// GET/SET/EVAL/SCAN semantics, so the flavor only changes naming.
const (
	FlavorValkey = "valkey"
	FlavorRedis  = "redis"
)

// Defaults for Config fields left at zero.
const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
	clientName          = "campusnav"
)

// Config describes how to reach the building store server.
type Config struct {
	Flavor   string // valkey (default) or redis
	Addrs    []string
	Username string
	Password string
	DB       int

	DialTimeout time.Duration
	// PollInterval spaces readiness pings in WaitForReady.
	PollInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Flavor == "" {
		c.Flavor = FlavorValkey
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	return c
}

func (c Config) validate() error {
	switch c.Flavor {
	case FlavorValkey, FlavorRedis:
	default:
		return fmt.Errorf("unknown flavor %q", c.Flavor)
	}
	if len(c.Addrs) == 0 {
		return fmt.Errorf("%s: at least one address is required", c.Flavor)
	}
	return nil
}

func (c Config) clientOption() rueidis.ClientOption {
	return rueidis.ClientOption{
		InitAddress:  c.Addrs,
		Username:     c.Username,
		Password:     c.Password,
		SelectDB:     c.DB,
		ClientName:   clientName,
		Dialer:       net.Dialer{Timeout: c.DialTimeout},
		DisableCache: true,
	}
}

// Store keeps building records in a Valkey or Redis server through rueidis.
type Store struct {
	client rueidis.Client
	flavor string
	poll   time.Duration
}

// NewStore connects to the configured server.
func NewStore(cfg Config) (*Store, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	client, err := rueidis.NewClient(cfg.clientOption())
	if err != nil {
		return nil, fmt.Errorf("connect %s %v: %w", cfg.Flavor, cfg.Addrs, err)
	}
	return newStore(client, cfg), nil
}

func newStore(client rueidis.Client, cfg Config) *Store {
	return &Store{client: client, flavor: cfg.Flavor, poll: cfg.PollInterval}
}

// Ping issues PING.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.do(ctx, s.b().Ping().Build()).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close releases the client's connections.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady pings right away and then every poll interval until the server
// answers. On timeout the last ping failure is reported.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	var last error
	for {
		if last = s.Ping(ctx); last == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s not ready after %s: %w", s.flavor, timeout, errors.Join(ctx.Err(), last))
		case <-ticker.C:
		}
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}
