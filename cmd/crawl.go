package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/otakulab/malcrawl/internal/crawl"
	"github.com/otakulab/malcrawl/internal/metrics"
)

func newCrawlCmd() *cobra.Command {
	var (
		animeOnly  bool
		peopleOnly bool
		noResume   bool
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Runs the catalog crawl to completion",
		Long: `Walks the selected catalogs letter by letter, fetching every listing
page and dispatching each undone item through the transform pipeline.
A checkpoint file per catalog records progress; rerunning the command
resumes from the last saved position unless --no-resume is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawl(cmd.Context(), animeOnly, peopleOnly, noResume)
		},
	}

	cmd.Flags().BoolVar(&animeOnly, "anime", false, "crawl only the anime catalog")
	cmd.Flags().BoolVar(&peopleOnly, "people", false, "crawl only the people catalog")
	cmd.Flags().BoolVar(&noResume, "no-resume", false, "discard existing checkpoints and start fresh")

	return cmd
}

func runCrawl(parent context.Context, animeOnly, peopleOnly, noResume bool) error {
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

	logger.Info("starting crawl", zap.Strings("domains", domains))
	if err := manager.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("crawl interrupted, progress saved")
			return nil
		}
		return fmt.Errorf("crawl: %w", err)
	}

	logger.Info("crawl finished")
	return nil
}

func removeCheckpoints(paths []string, logger *zap.Logger) error {
	for _, path := range paths {
		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("remove checkpoint %s: %w", path, err)
		}
		logger.Info("checkpoint discarded", zap.String("path", path))
	}
	return nil
}
