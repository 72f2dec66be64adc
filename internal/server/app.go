package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Makepad-fr/chores/internal/cache"
	"github.com/Makepad-fr/chores/internal/config"
	"github.com/Makepad-fr/chores/internal/page"
	"github.com/Makepad-fr/chores/internal/service"
	"github.com/Makepad-fr/chores/internal/store"
	"github.com/Makepad-fr/chores/internal/store/jsonstore"
	"github.com/Makepad-fr/chores/internal/store/sqlstore"
)

type App struct {
	cfg    config.Server
	store  store.Store
	redis  *redis.Client
	router http.Handler
}

func New(ctx context.Context, cfg config.Server, l *log.Logger) (*App, error) {
	a := &App{cfg: cfg}

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	a.store = st

	var listCache service.ListCache
	if cfg.Redis.Addr != "" {
		rdb, err := newRedis(ctx, cfg.Redis)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		a.redis = rdb
		listCache = cache.NewTaskCache(rdb, cfg.Redis.DefaultTTL.Duration())
	}

	svc := service.NewTaskService(st, listCache, l)
	h := NewTaskHandler(svc, page.ParseVariant(cfg.App.Variant), l)
	a.router = NewRouter(h, cfg.App.AuthToken, l)
	return a, nil
}

func (a *App) Router() http.Handler {
	return a.router
}

func (a *App) Close() error {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "json":
		return jsonstore.Open(cfg.DSN)
	default:
		return sqlstore.Open(ctx, cfg.Driver, cfg.DSN)
	}
}

func newRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, fmt.Errorf("redis options: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
