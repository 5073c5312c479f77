package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/otakulab/malcrawl/internal/api"
	"github.com/otakulab/malcrawl/internal/crawl"
	"github.com/otakulab/malcrawl/internal/metrics"
)

func newServeCmd() *cobra.Command {
	var (
		animeOnly  bool
		peopleOnly bool
		noResume   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Runs the crawl with an HTTP status and metrics endpoint",
		Long: `Starts the catalog crawl and serves /status, /metrics, and health
endpoints while it runs. The process stays up after the crawl completes
so status remains queryable; stop it with SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), animeOnly, peopleOnly, noResume)
		},
	}

	cmd.Flags().BoolVar(&animeOnly, "anime", false, "crawl only the anime catalog")
	cmd.Flags().BoolVar(&peopleOnly, "people", false, "crawl only the people catalog")
	cmd.Flags().BoolVar(&noResume, "no-resume", false, "discard existing checkpoints and start fresh")

	return cmd
}

func runServe(parent context.Context, animeOnly, peopleOnly, noResume bool) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer syncLogger(logger)

	metrics.Init()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	domains := selectedDomains(animeOnly, peopleOnly)
	if noResume {
		paths := make([]string, 0, len(domains))
		for _, domain := range domains {
			paths = append(paths, checkpointPath(cfg, domain))
		}
		if err := removeCheckpoints(paths, logger); err != nil {
			return err
		}
	}

	svc, err := buildServices(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.cleanup()

	drivers, err := buildDrivers(cfg, svc, domains, logger)
	if err != nil {
		return err
	}
	manager, err := crawl.NewManager(logger, drivers...)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewServer(manager, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		err := manager.Run(gctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("crawl: %w", err)
		}
		logger.Info("crawl finished, status endpoint remains available")
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	return g.Wait()
}
