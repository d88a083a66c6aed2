package commands

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"

	"github.com/JUDRAGONII/AI----sub000/internal/contracts"
	"github.com/JUDRAGONII/AI----sub000/internal/engine"
	"github.com/JUDRAGONII/AI----sub000/internal/factor"
	"github.com/JUDRAGONII/AI----sub000/internal/s0_data"
	"github.com/JUDRAGONII/AI----sub000/pkg/config"
	"github.com/JUDRAGONII/AI----sub000/pkg/database"
	"github.com/JUDRAGONII/AI----sub000/pkg/logger"
	"github.com/JUDRAGONII/AI----sub000/pkg/redis"
)

// cachePrefix namespaces engine results in Redis
const cachePrefix = "quant"

// runtime holds everything a command needs to call the engine
type runtime struct {
	cfg    *config.Config
	log    *logger.Logger
	engine *engine.Engine

	db    *database.DB
	redis *redis.Client
}

// loadConfig reads the optional env file, then the environment
func loadConfig() (*config.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newRuntime wires config → store → cache → engine
func newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, log: logger.New(cfg)}

	store, err := rt.openStore(ctx)
	if err != nil {
		rt.Close()
		return nil, err
	}

	var bounds map[string]factor.UniverseBounds
	if cfg.Analytics.BoundsFile != "" {
		bounds, err = factor.LoadBoundsFile(cfg.Analytics.BoundsFile)
		if err != nil {
			rt.Close()
			return nil, err
		}
	}

	rt.engine = engine.New(store, engine.OptionsFromConfig(cfg, bounds))
	if verbose {
		rt.engine.WithObserver(rt.log)
	}

	if cfg.Redis.Enabled {
		rt.redis, err = redis.New(ctx, cfg)
		if err != nil {
			rt.log.WithError(err).Warn("Redis unavailable, running without result cache")
		} else {
			rt.engine.WithCache(redis.NewCache(rt.redis, cachePrefix))
			rt.log.Info("Result cache enabled")
		}
	}

	return rt, nil
}

func (rt *runtime) openStore(ctx context.Context) (contracts.Store, error) {
	switch rt.cfg.Store.Driver {
	case "memory":
		store, err := s0_data.LoadFixture(rt.cfg.Store.FixturePath)
		if err != nil {
			return nil, err
		}
		rt.log.WithField("fixture", rt.cfg.Store.FixturePath).Info("Using in-memory store")
		return store, nil

	default:
		db, err := database.New(ctx, rt.cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		rt.db = db
		rt.log.Info("Connected to database")
		return s0_data.NewPostgresStore(db, rt.log), nil
	}
}

// Close releases the database and Redis connections
func (rt *runtime) Close() {
	if rt.redis != nil {
		if err := rt.redis.Close(); err != nil {
			rt.log.WithError(err).Warn("Failed to close redis")
		}
	}
	if rt.db != nil {
		rt.db.Close()
	}
}
