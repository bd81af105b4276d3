package app

import (
	"context"
	"sync"
	"time"

	"github.com/xxxsen/cen64-launcher/internal/catalog"
	"github.com/xxxsen/cen64-launcher/internal/collection"
	"github.com/xxxsen/cen64-launcher/internal/config"
	appdb "github.com/xxxsen/cen64-launcher/internal/db"
	"github.com/xxxsen/cen64-launcher/internal/gamesdb"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Env carries what runners share: the loaded configuration and the lazily
// opened cache store.
type Env struct {
	Config *config.Config

	storeOnce sync.Once
	store     collection.Store
	db        *appdb.DB
}

// NewEnv wraps cfg. Nothing is opened until a runner asks for it.
func NewEnv(cfg *config.Config) *Env {
	return &Env{Config: cfg}
}

// Store opens the configured cache database. When it cannot be opened the
// collection runs uncached from memory and a single warning is logged.
func (e *Env) Store(ctx context.Context) collection.Store {
	e.storeOnce.Do(func() {
		driver, dsn := e.Config.StoreDriver(), e.Config.StoreDSN()
		d, err := appdb.Open(ctx, driver, dsn)
		if err != nil {
			logutil.GetLogger(ctx).Warn("cache store unavailable, running uncached",
				zap.String("driver", driver), zap.Error(err))
			e.store = collection.NewMemoryStore()
			return
		}
		appdb.SetDefault(d)
		e.db = d
		e.store = appdb.NewRomDAO(d)
	})
	return e.store
}

// Catalog loads the configured catalog file. A file that cannot be parsed
// is reported and treated as absent.
func (e *Env) Catalog(ctx context.Context) catalog.Catalog {
	path := e.Config.Paths.Catalog
	c, err := catalog.Load(path)
	if err != nil {
		logutil.GetLogger(ctx).Warn("load catalog failed", zap.String("path", path), zap.Error(err))
		return catalog.Empty()
	}
	return c
}

// Cache returns the local enrichment cache.
func (e *Env) Cache() *gamesdb.Cache {
	return gamesdb.NewCache(e.Config.CacheDir())
}

// GamesDB builds the remote metadata client.
func (e *Env) GamesDB() (*gamesdb.Client, error) {
	g := e.Config.GamesDB
	return gamesdb.New(g.Host, g.BannerHost, g.Platform, time.Duration(g.TimeoutSec)*time.Second)
}

// Synchronizer builds a synchronizer for the configured ROM directory that
// notifies sub. The catalog is reloaded for every pass.
func (e *Env) Synchronizer(ctx context.Context, sub collection.Subscriber) (*collection.Synchronizer, error) {
	spec, err := e.Config.SortSpec()
	if err != nil {
		return nil, err
	}
	opts := collection.Options{
		RomDir:   e.Config.Paths.Roms,
		Patterns: e.Config.ScanPatterns(),
		Sort:     spec,
		Enrich:   e.Config.Other.DownloadInfo,
	}
	deps := collection.Deps{
		Store:      e.Store(ctx),
		Catalog:    func() collection.Catalog { return e.Catalog(ctx) },
		Enricher:   e.Cache(),
		Subscriber: sub,
	}
	return collection.New(opts, deps), nil
}

// Close releases the cache store.
func (e *Env) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}
