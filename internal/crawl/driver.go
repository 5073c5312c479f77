package crawl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/otakulab/malcrawl/internal/clock"
	"github.com/otakulab/malcrawl/internal/metrics"
)

// DriverConfig holds the per-domain crawl parameters.
type DriverConfig struct {
	// Domain names the catalog being crawled, e.g. "anime" or "people".
	Domain string
	// Partitions is the ordered list of partition keys to walk.
	Partitions []string
	// PageSize is the number of stubs a full listing page carries. A page
	// with fewer stubs is the partition's last.
	PageSize int
	// SaveEvery persists the checkpoint after this many item completions.
	// Zero disables interval saves; pagination and exit saves still happen.
	SaveEvery int
	// EventTopic, when non-empty, is the topic completion events publish to.
	EventTopic string
}

// DriverDeps collects the driver's collaborators. Recorder and Publisher
// are optional; everything else is required.
type DriverDeps struct {
	Fetcher    Fetcher
	URLs       URLBuilder
	Parser     ListingParser
	Pipeline   ItemPipeline
	Checkpoint Checkpoint
	Recorder   PageRecorder
	Publisher  Publisher
	Clock      clock.Clock
	Logger     *zap.Logger
}

// CompletionEvent is the payload published after each item completes.
type CompletionEvent struct {
	Domain      string    `json:"domain"`
	ItemID      int64     `json:"item_id"`
	URI         string    `json:"uri"`
	CompletedAt time.Time `json:"completed_at"`
}

// Driver walks one domain's listing pages partition by partition, dispatches
// each undone item through the pipeline, and records progress in the
// checkpoint. One Driver owns one domain; Run is not reentrant.
type Driver struct {
	cfg  DriverConfig
	deps DriverDeps

	logger *zap.Logger

	mu        sync.RWMutex
	cursor    *Cursor
	sinceSave int
}

// NewDriver validates the configuration and builds a Driver.
func NewDriver(cfg DriverConfig, deps DriverDeps) (*Driver, error) {
	if cfg.Domain == "" {
		return nil, errors.New("domain is required")
	}
	if len(cfg.Partitions) == 0 {
		return nil, errors.New("at least one partition is required")
	}
	if cfg.PageSize <= 0 {
		return nil, errors.New("page size must be positive")
	}
	if deps.Fetcher == nil || deps.URLs == nil || deps.Parser == nil ||
		deps.Pipeline == nil || deps.Checkpoint == nil || deps.Clock == nil {
		return nil, errors.New("fetcher, urls, parser, pipeline, checkpoint, and clock are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("domain", cfg.Domain))

	return &Driver{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		cursor: NewCursor(cfg.Partitions),
	}, nil
}

// Run crawls the domain to completion or until the context is canceled.
// The checkpoint is saved before any return, so a subsequent run resumes
// where this one stopped.
func (d *Driver) Run(ctx context.Context) error {
	if partition, page, ok := d.deps.Checkpoint.Cursor(); ok {
		d.mu.Lock()
		d.cursor.Seek(partition, page)
		d.mu.Unlock()
		d.logger.Info("resuming from checkpoint",
			zap.String("partition", partition),
			zap.Int("page", page),
			zap.Int("completed", d.deps.Checkpoint.CompletedCount()),
		)
	}

	for {
		d.mu.RLock()
		exhausted := d.cursor.Exhausted()
		partition := d.cursor.CurrentPartition()
		page := d.cursor.CurrentPage()
		d.mu.RUnlock()

		if exhausted {
			break
		}
		if err := ctx.Err(); err != nil {
			d.saveCheckpoint()
			return err
		}

		stubs, status, err := d.fetchListing(ctx, partition, page)
		if err != nil {
			d.saveCheckpoint()
			return err
		}

		d.recordVisit(ctx, partition, page, status, len(stubs))

		if err := d.dispatchItems(ctx, stubs); err != nil {
			d.saveCheckpoint()
			return err
		}

		d.advance(len(stubs))
		d.saveCheckpoint()
	}

	d.logger.Info("crawl complete",
		zap.Int("completed", d.deps.Checkpoint.CompletedCount()),
	)
	d.saveCheckpoint()
	return nil
}

// Status reports the driver's position and completion count. It is safe to
// call while Run is in progress.
func (d *Driver) Status() DriverStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return DriverStatus{
		Domain:         d.cfg.Domain,
		CompletedCount: d.deps.Checkpoint.CompletedCount(),
		Partition:      d.cursor.CurrentPartition(),
		Page:           d.cursor.CurrentPage(),
	}
}

// Domain returns the driver's domain name.
func (d *Driver) Domain() string { return d.cfg.Domain }

func (d *Driver) fetchListing(ctx context.Context, partition string, pageIdx int) ([]ItemStub, int, error) {
	url := d.deps.URLs.ListingURL(partition, pageIdx)
	page, err := d.deps.Fetcher.Fetch(ctx, url)
	if err != nil {
		metrics.ObservePageFetch(d.cfg.Domain, "error")
		return nil, 0, fmt.Errorf("listing %s page %d: %w", partition, pageIdx, err)
	}
	metrics.ObservePageFetch(d.cfg.Domain, "ok")

	stubs, err := d.deps.Parser.Parse(page.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("parse listing %s page %d: %w", partition, pageIdx, err)
	}

	d.logger.Debug("listing page fetched",
		zap.String("partition", partition),
		zap.Int("page", pageIdx),
		zap.Int("stubs", len(stubs)),
	)
	return stubs, page.StatusCode, nil
}

func (d *Driver) dispatchItems(ctx context.Context, stubs []ItemStub) error {
	for _, stub := range stubs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.deps.Checkpoint.IsCompleted(stub.ID) {
			continue
		}

		uri, err := d.deps.Pipeline.Process(ctx, stub)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// One broken item never stops the crawl. It stays unmarked
			// and will be retried on the next run.
			metrics.ObserveItemError(d.cfg.Domain)
			d.logger.Warn("item failed, skipping",
				zap.Int64("id", stub.ID),
				zap.Error(err),
			)
			continue
		}

		d.deps.Checkpoint.MarkCompleted(stub.ID)
		metrics.ObserveItemCompleted(d.cfg.Domain)
		d.publishCompletion(ctx, stub.ID, uri)

		d.mu.Lock()
		d.sinceSave++
		save := d.cfg.SaveEvery > 0 && d.sinceSave >= d.cfg.SaveEvery
		if save {
			d.sinceSave = 0
		}
		d.mu.Unlock()
		if save {
			d.saveCheckpoint()
		}
	}
	return nil
}

// advance applies the pagination rule: a short or empty page ends the
// partition, a full page means there may be more.
func (d *Driver) advance(stubCount int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if stubCount < d.cfg.PageSize {
		d.cursor.AdvancePartition()
	} else {
		d.cursor.AdvancePage()
	}
	if !d.cursor.Exhausted() {
		d.deps.Checkpoint.SetCursor(d.cursor.CurrentPartition(), d.cursor.CurrentPage())
	}
}

func (d *Driver) saveCheckpoint() {
	err := d.deps.Checkpoint.Save()
	metrics.ObserveCheckpointSave(d.cfg.Domain, err)
	if err != nil {
		d.logger.Error("checkpoint save failed", zap.Error(err))
	}
}

func (d *Driver) recordVisit(ctx context.Context, partition string, page, status, stubCount int) {
	if d.deps.Recorder == nil {
		return
	}
	visit := PageVisit{
		Domain:     d.cfg.Domain,
		Partition:  partition,
		Page:       page,
		StatusCode: status,
		StubCount:  stubCount,
		FetchedAt:  d.deps.Clock.Now(),
	}
	if err := d.deps.Recorder.RecordPage(ctx, visit); err != nil {
		d.logger.Warn("page visit not recorded", zap.Error(err))
	}
}

func (d *Driver) publishCompletion(ctx context.Context, id int64, uri string) {
	if d.deps.Publisher == nil || d.cfg.EventTopic == "" {
		return
	}
	event := CompletionEvent{
		Domain:      d.cfg.Domain,
		ItemID:      id,
		URI:         uri,
		CompletedAt: d.deps.Clock.Now(),
	}
	if _, err := d.deps.Publisher.Publish(ctx, d.cfg.EventTopic, event); err != nil {
		d.logger.Warn("completion event not published",
			zap.Int64("id", id),
			zap.Error(err),
		)
	}
}
