package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/otakulab/malcrawl/internal/checkpoint"
)

// checkpointStatus is the offline view of one domain's saved progress.
type checkpointStatus struct {
	Domain         string `json:"domain"`
	Path           string `json:"path"`
	CompletedCount int    `json:"completed_count"`
	Partition      string `json:"current_partition,omitempty"`
	Page           int    `json:"current_page"`
	HasCursor      bool   `json:"has_cursor"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Prints saved crawl progress from the checkpoint files",
		Long: `Reads the per-catalog checkpoint files and prints each catalog's
completed item count and pagination position as JSON. This works offline;
for a live view use the serve command's /status endpoint.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runStatus()
		},
	}
}

func runStatus() error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer syncLogger(logger)

	statuses := make([]checkpointStatus, 0, 2)
	for _, domain := range []string{domainAnime, domainPeople} {
		path := checkpointPath(cfg, domain)
		store := checkpoint.NewStore(path, zap.NewNop())
		partition, page, ok := store.Cursor()
		statuses = append(statuses, checkpointStatus{
			Domain:         domain,
			Path:           path,
			CompletedCount: store.CompletedCount(),
			Partition:      partition,
			Page:           page,
			HasCursor:      ok,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(statuses); err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	return nil
}
