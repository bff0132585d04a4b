package cmd

import (
	"context"
	"time"

	"github.com/gloriamundo/gloriamundo/internal/availability"
	"github.com/gloriamundo/gloriamundo/internal/conf"
	"github.com/gloriamundo/gloriamundo/internal/db"
	"github.com/gloriamundo/gloriamundo/internal/fallback"
	"github.com/gloriamundo/gloriamundo/internal/metrics"
	"github.com/gloriamundo/gloriamundo/internal/openrouter"
	"github.com/gloriamundo/gloriamundo/internal/relay"
	"github.com/gloriamundo/gloriamundo/internal/utils/log"
	"github.com/gloriamundo/gloriamundo/internal/utils/shutdown"
	"github.com/gloriamundo/gloriamundo/internal/utils/xredis"
)

// openDatabase prefers database.url (DATABASE_URL) over type and path.
func openDatabase() error {
	dbType, dsn := conf.AppConfig.Database.Type, conf.AppConfig.Database.Path
	if raw := conf.AppConfig.Database.URL; raw != "" {
		var err error
		if dbType, dsn, err = db.ParseURL(raw); err != nil {
			return err
		}
	}
	return db.InitDB(dbType, dsn, conf.IsDebug())
}

func newOpenRouter() (*openrouter.Client, error) {
	cfg := conf.AppConfig.OpenRouter
	c, err := openrouter.New(openrouter.Options{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Referer:     cfg.Referer,
		Title:       cfg.Title,
		ModelFilter: cfg.ModelFilter,
	})
	if err != nil {
		return nil, err
	}
	if !c.HasAPIKey() {
		log.Warnf("OPENROUTER_API_KEY is not set, chat requests will fail")
	}
	return c, nil
}

// activeSetCache shares the active set through Redis when redis.url is set
// and reachable, and keeps it in process otherwise.
func activeSetCache() availability.Cache {
	url := conf.AppConfig.Redis.URL
	if url == "" {
		return availability.NewMemoryCache()
	}
	client := xredis.New(url)
	if err := xredis.Ping(context.Background(), client); err != nil {
		log.Warnf("redis unavailable, using in-process cache: %v", err)
		_ = client.Close()
		return availability.NewMemoryCache()
	}
	shutdown.Register(client.Close)
	log.Infof("active model set shared through redis")
	return availability.NewRedisCache(client, conf.APP_NAME+":")
}

// buildRuntime wires the resolver, the fallback policy and the relay, and
// installs them as the package defaults used by handlers and tasks.
func buildRuntime(or *openrouter.Client) *availability.Resolver {
	cfg := conf.AppConfig
	policy := availability.NewPolicy(cfg.Fallback.Image, cfg.Fallback.PDFOrRAG, cfg.Fallback.Text)
	conf.OnFallbackChange(func(fb conf.Fallback) {
		policy.Update(fb.Image, fb.PDFOrRAG, fb.Text)
	})

	resolver := availability.NewResolver(availability.Config{
		Store:        availability.DBStore{},
		Fetcher:      or,
		Cache:        activeSetCache(),
		Policy:       policy,
		DefaultModel: cfg.Catalog.DefaultModel,
		TTL:          time.Duration(cfg.Catalog.CacheTTLMinutes) * time.Minute,
	})
	availability.SetDefault(resolver)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		metrics.SetDefault(m)
	}

	relay.SetDefault(relay.New(relay.Options{
		Resolver:     resolver,
		Gate:         fallback.NewGate(nil),
		Upstream:     or,
		Metrics:      m,
		HistoryLimit: cfg.Chat.HistoryLimit,
		Timeout:      time.Duration(cfg.OpenRouter.TimeoutSeconds) * time.Second,
	}))
	return resolver
}
