package campusnav

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/campusnav/internal/db"
	dbBadger "github.com/kailas-cloud/campusnav/internal/db/badger"
	dbRedis "github.com/kailas-cloud/campusnav/internal/db/redis"
	dombuilding "github.com/kailas-cloud/campusnav/internal/domain/building"
	"github.com/kailas-cloud/campusnav/internal/domain/search/request"
	"github.com/kailas-cloud/campusnav/internal/domain/search/result"
	buildingrepo "github.com/kailas-cloud/campusnav/internal/repository/building"
	sqliterepo "github.com/kailas-cloud/campusnav/internal/repository/building/sqlite"
	buildinguc "github.com/kailas-cloud/campusnav/internal/usecase/building"
	healthuc "github.com/kailas-cloud/campusnav/internal/usecase/health"
	searchuc "github.com/kailas-cloud/campusnav/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "campusnav:"
)

// Внутренние интерфейсы для подмены в тестах.
type buildingUseCase interface {
	Create(ctx context.Context, attrs dombuilding.Attributes) (dombuilding.Building, error)
	Get(ctx context.Context, ref string) (dombuilding.Building, error)
	List(ctx context.Context) ([]dombuilding.Building, error)
	Delete(ctx context.Context, ref string) error
}

type searchUseCase interface {
	Search(ctx context.Context, req *request.Request) ([]result.Result, error)
}

// backend is a repository plus what the client needs to check and release it.
type backend interface {
	buildinguc.Repository
	DeleteAll(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Close()
}

// Client is the campusnav SDK entry point.
type Client struct {
	backend     backend
	buildingSvc buildingUseCase
	searchSvc   searchUseCase
	healthSvc   healthUseCase
	seedWorkers int
	obs         *observer
}

// New opens the configured store and wires the services.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{keyPrefix: defaultKeyPrefix}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.driver == "" {
		return nil, errors.New("campusnav: store required (use WithValkey, WithRedis, WithBadger, WithInMemory or WithSQLite)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	be, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return wireClient(be, cfg, obs), nil
}

func openBackend(ctx context.Context, cfg *clientConfig) (backend, error) {
	if cfg.driver == "sqlite" {
		repo, err := sqliterepo.Open(ctx, cfg.path)
		if err != nil {
			return nil, fmt.Errorf("campusnav: open sqlite: %w", err)
		}
		return repo, nil
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("campusnav: database not ready: %w", err)
	}
	return &kvBackend{Repo: buildingrepo.New(store, cfg.keyPrefix), store: store}, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
		if len(cfg.addrs) == 0 || cfg.addrs[0] == "" {
			return nil, fmt.Errorf("campusnav: %s address required", cfg.driver)
		}
		s, err := dbRedis.NewStore(dbRedis.Config{
			Flavor:   cfg.driver,
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("campusnav: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	case "badger":
		s, err := dbBadger.Open(dbBadger.Config{Path: cfg.path, InMemory: cfg.inMemory}, zap.NewNop())
		if err != nil {
			return nil, fmt.Errorf("campusnav: open badger: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("campusnav: unknown driver %q", cfg.driver)
	}
}

// kvBackend joins the KV repository with the store it runs on.
type kvBackend struct {
	*buildingrepo.Repo
	store db.Store
}

func (b *kvBackend) Ping(ctx context.Context) error { return b.store.Ping(ctx) }
func (b *kvBackend) Close()                         { b.store.Close() }

func wireClient(be backend, cfg *clientConfig, obs *observer) *Client {
	buildingSvc := buildinguc.New(be, nil)
	return &Client{
		backend:     be,
		buildingSvc: buildingSvc,
		searchSvc:   searchuc.New(buildingSvc, nil, nil),
		healthSvc:   healthuc.New(be, nil),
		seedWorkers: cfg.seedWorkers,
		obs:         obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.backend != nil {
		c.backend.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.backend.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Buildings returns the building management service.
func (c *Client) Buildings() *BuildingService {
	return &BuildingService{svc: c.buildingSvc, obs: c.obs}
}

// Search starts a search query.
func (c *Client) Search() *SearchBuilder {
	return &SearchBuilder{svc: c.searchSvc, obs: c.obs}
}
