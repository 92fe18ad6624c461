package daemon

import (
	"context"
	"fmt"

	"github.com/MacklinHill1/neighborhood-help-app/internal/api"
	"github.com/MacklinHill1/neighborhood-help-app/internal/backend"
	"github.com/MacklinHill1/neighborhood-help-app/internal/bus"
	"github.com/MacklinHill1/neighborhood-help-app/internal/cache"
	"github.com/MacklinHill1/neighborhood-help-app/internal/config"
	"github.com/MacklinHill1/neighborhood-help-app/internal/gateway"
	"github.com/MacklinHill1/neighborhood-help-app/internal/identity"
	"github.com/MacklinHill1/neighborhood-help-app/internal/lock"
	"github.com/MacklinHill1/neighborhood-help-app/internal/logging"
	"github.com/MacklinHill1/neighborhood-help-app/internal/pgstore"
	"github.com/MacklinHill1/neighborhood-help-app/internal/realtime"
	"github.com/MacklinHill1/neighborhood-help-app/internal/store"
	"github.com/MacklinHill1/neighborhood-help-app/internal/workspace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved workspace passed to the fx module.
type Params struct {
	Workspace  string
	SocketPath string // optional override for testing; empty = use default
}

// Storage is what the daemon needs from either relational store.
type Storage interface {
	backend.Store
	identity.Settings
	Migrate() (*store.MigrateResult, error)
	Close() error
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideBus,
			provideHub,
			provideLock,
			provideStorage,
			provideListener,
			provideCache,
			provideIdentity,
			provideBackend,
			api.NewAuthService,
			provideMessageService,
			api.NewProfileService,
			provideGateway,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(workspace.DaemonLogPath(p.Workspace), p.Workspace, "locaidd")
}

func provideConfig(p Params, logger *zap.Logger) (*config.Config, error) {
	if err := config.LoadEnvFile(workspace.EnvPath(p.Workspace)); err != nil {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	cfg, err := config.LoadOrDefault(workspace.ConfigPath())
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	logger.Info("config loaded",
		zap.Bool("postgres", cfg.DatabaseURL != ""),
		zap.Bool("redis", cfg.RedisURL != ""),
		zap.String("http_addr", cfg.HTTPAddr),
	)
	return cfg, nil
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideHub(b *bus.Bus, logger *zap.Logger) *realtime.Hub {
	return realtime.NewHub(b, logger)
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := workspace.EnsureDir(p.Workspace); err != nil {
		return nil, err
	}
	logger.Info("acquiring workspace lock", zap.String("workspace", p.Workspace))
	l, err := lock.Acquire(workspace.Dir(p.Workspace))
	if err != nil {
		return nil, err
	}
	logger.Info("workspace lock acquired")
	return l, nil
}

// provideStorage depends on the lock so no second daemon ever opens the
// database.
func provideStorage(p Params, cfg *config.Config, logger *zap.Logger, _ *lock.Lock) (Storage, error) {
	var (
		st   Storage
		desc string
	)
	if cfg.DatabaseURL != "" {
		pg, err := pgstore.Connect(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		st, desc = pg, "postgres"
	} else {
		dbPath := workspace.DBPath(p.Workspace)
		db, err := store.Open(dbPath)
		if err != nil {
			return nil, err
		}
		st, desc = db, dbPath
	}

	result, err := st.Migrate()
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("store", desc))
	return st, nil
}

// provideListener returns nil unless the store is Postgres.
func provideListener(st Storage, hub *realtime.Hub, logger *zap.Logger) *pgstore.Listener {
	pg, ok := st.(*pgstore.Store)
	if !ok {
		return nil
	}
	return pgstore.NewListener(pg, hub, logger)
}

func provideCache(cfg *config.Config, logger *zap.Logger) (cache.ProfileCache, error) {
	ttl := cfg.ProfileCacheTTL.Duration
	if cfg.RedisURL == "" {
		return cache.NewMemory(ttl), nil
	}
	rc, err := cache.NewRedis(context.Background(), cfg.RedisURL, ttl)
	if err != nil {
		return nil, err
	}
	logger.Info("profile cache using redis", zap.Duration("ttl", ttl))
	return rc, nil
}

func provideIdentity(st Storage, b *bus.Bus, logger *zap.Logger) *identity.Provider {
	return identity.NewProvider(st, b, logger)
}

func provideBackend(st Storage, hub *realtime.Hub, pc cache.ProfileCache, logger *zap.Logger) *backend.Service {
	return backend.New(st, hub, pc, logger)
}

func provideMessageService(svc *backend.Service, logger *zap.Logger) *api.MessageService {
	return api.NewMessageService(svc, logger)
}

// provideGateway returns nil when no HTTP address is configured.
func provideGateway(cfg *config.Config, svc *backend.Service, logger *zap.Logger) *gateway.Gateway {
	if cfg.HTTPAddr == "" {
		return nil
	}
	return gateway.New(svc, cfg.HTTPAddr, cfg.AllowedOrigins, logger)
}

type lifecycleParams struct {
	fx.In

	Server   *Server
	Lock     *lock.Lock
	Storage  Storage
	Listener *pgstore.Listener
	Cache    cache.ProfileCache
	Identity *identity.Provider
	Gateway  *gateway.Gateway
	Bus      *bus.Bus
	Logger   *zap.Logger
}

func registerLifecycle(lc fx.Lifecycle, lp lifecycleParams) {
	logger := lp.Logger
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := lp.Identity.Restore(ctx); err != nil {
				return err
			}
			if u := lp.Identity.Current(); u != nil {
				logger.Info("session restored", zap.String("user_id", u.ID))
			} else {
				logger.Info("no session found, sign-in required")
			}

			if lp.Listener != nil {
				if err := lp.Listener.Start(ctx); err != nil {
					return err
				}
			}

			// Start gRPC server in background.
			go func() {
				if err := lp.Server.Start(); err != nil {
					logger.Error("gRPC server error", zap.Error(err))
				}
			}()

			if lp.Gateway != nil {
				if err := lp.Gateway.Start(); err != nil {
					return fmt.Errorf("start gateway: %w", err)
				}
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if lp.Gateway != nil {
				if err := lp.Gateway.Stop(ctx); err != nil {
					logger.Warn("error stopping gateway", zap.Error(err))
				}
			}
			lp.Server.Stop(ctx)
			if lp.Listener != nil {
				lp.Listener.Stop()
			}
			lp.Bus.Close()
			if err := lp.Cache.Close(); err != nil {
				logger.Warn("error closing profile cache", zap.Error(err))
			}
			if err := lp.Storage.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lp.Lock.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
