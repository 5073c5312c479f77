package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/otakulab/malcrawl/internal/checkpoint"
	"github.com/otakulab/malcrawl/internal/clock/system"
	"github.com/otakulab/malcrawl/internal/config"
	"github.com/otakulab/malcrawl/internal/crawl"
	"github.com/otakulab/malcrawl/internal/fetch"
	"github.com/otakulab/malcrawl/internal/history"
	"github.com/otakulab/malcrawl/internal/mal"
	memorypub "github.com/otakulab/malcrawl/internal/publisher/memory"
	pubsubpublisher "github.com/otakulab/malcrawl/internal/publisher/pubsub"
	gcssink "github.com/otakulab/malcrawl/internal/storage/gcs"
	localsink "github.com/otakulab/malcrawl/internal/storage/local"
	memorysink "github.com/otakulab/malcrawl/internal/storage/memory"
)

// crawlDomains names the catalogs a run can cover.
const (
	domainAnime  = "anime"
	domainPeople = "people"
)

// services holds the shared infrastructure behind the drivers, plus the
// cleanup to run once the crawl finishes.
type services struct {
	sink      crawl.RecordSink
	publisher crawl.Publisher
	recorder  crawl.PageRecorder
	cleanup   func()
}

// buildServices wires the sink, publisher, and visit recorder the config
// asks for.
func buildServices(ctx context.Context, cfg config.Config, logger *zap.Logger) (*services, error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	svc := &services{cleanup: cleanup}

	switch cfg.Output.Backend {
	case config.BackendLocal:
		sink, err := localsink.New(localsink.Config{BaseDir: cfg.Output.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("init local sink: %w", err)
		}
		svc.sink = sink
	case config.BackendGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("init gcs client: %w", err)
		}
		cleanups = append(cleanups, func() { _ = client.Close() })
		sink, err := gcssink.New(client, gcssink.Config{Bucket: cfg.Output.GCSBucket})
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("init gcs sink: %w", err)
		}
		svc.sink = sink
	case config.BackendMemory:
		svc.sink = memorysink.NewSink()
	default:
		return nil, fmt.Errorf("unknown output backend %q", cfg.Output.Backend)
	}

	if cfg.PubSub.Enabled {
		client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("init pubsub client: %w", err)
		}
		pub := pubsubpublisher.New(client)
		cleanups = append(cleanups, func() {
			pub.Close()
			_ = client.Close()
		})
		svc.publisher = pub
	} else if cfg.Output.Backend == config.BackendMemory {
		// The memory backend is the in-process dev mode, so completion
		// events stay in memory too.
		svc.publisher = memorypub.New()
	}

	if cfg.DB.Enabled {
		store, err := history.NewVisitStore(ctx, history.Config{
			DSN:   cfg.DB.DSN,
			Table: cfg.DB.Table,
		})
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("init visit store: %w", err)
		}
		cleanups = append(cleanups, store.Close)
		svc.recorder = store
		logger.Info("page visit history enabled", zap.String("table", cfg.DB.Table))
	} else {
		svc.recorder = history.NoOpRecorder{}
	}

	return svc, nil
}

// buildDrivers assembles one driver per requested domain.
func buildDrivers(cfg config.Config, svc *services, domains []string, logger *zap.Logger) ([]*crawl.Driver, error) {
	clk := system.New()
	drivers := make([]*crawl.Driver, 0, len(domains))

	for _, domain := range domains {
		fetcher := fetch.New(fetch.Config{
			Name:       domain,
			UserAgent:  cfg.Site.UserAgent,
			MinSpacing: cfg.MinSpacing(),
			Timeout:    cfg.FetchTimeout(),
			Policy:     cfg.RetryPolicy(),
		}, logger)

		cp := checkpoint.NewStore(checkpointPath(cfg, domain), logger)

		deps := crawl.DriverDeps{
			Fetcher:    fetcher,
			Checkpoint: cp,
			Recorder:   svc.recorder,
			Clock:      clk,
			Logger:     logger,
		}

		var topic string
		switch domain {
		case domainAnime:
			urls := mal.NewAnimeURLs(cfg.Site.BaseURL)
			deps.URLs = urls
			deps.Parser = mal.NewAnimeListingParser()
			deps.Pipeline = mal.NewAnimePipeline(fetcher, urls, svc.sink, cfg.Output.AnimePrefix, clk, logger)
			topic = cfg.PubSub.AnimeTopic
		case domainPeople:
			urls := mal.NewPeopleURLs(cfg.Site.BaseURL)
			deps.URLs = urls
			deps.Parser = mal.NewPeopleListingParser()
			deps.Pipeline = mal.NewPeoplePipeline(fetcher, urls, svc.sink, cfg.Output.PeoplePrefix, clk)
			topic = cfg.PubSub.PeopleTopic
		default:
			return nil, fmt.Errorf("unknown crawl domain %q", domain)
		}

		if svc.publisher != nil {
			deps.Publisher = svc.publisher
		} else {
			topic = ""
		}

		driver, err := crawl.NewDriver(crawl.DriverConfig{
			Domain:     domain,
			Partitions: mal.Letters(),
			PageSize:   cfg.Crawl.PageSize,
			SaveEvery:  cfg.Crawl.SaveEvery,
			EventTopic: topic,
		}, deps)
		if err != nil {
			return nil, fmt.Errorf("build %s driver: %w", domain, err)
		}
		drivers = append(drivers, driver)
	}

	return drivers, nil
}

func checkpointPath(cfg config.Config, domain string) string {
	return filepath.Join(cfg.Crawl.CheckpointDir, domain+".json")
}

// selectedDomains maps the --anime/--people flags to the domain list.
// Neither flag means both catalogs.
func selectedDomains(anime, people bool) []string {
	if anime == people {
		return []string{domainAnime, domainPeople}
	}
	if anime {
		return []string{domainAnime}
	}
	return []string{domainPeople}
}
