package mal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/otakulab/malcrawl/internal/clock"
	"github.com/otakulab/malcrawl/internal/crawl"
)

// AnimePipeline fetches one anime detail page (plus its Characters & Staff
// page), transforms it, and stores the record. It implements
// crawl.ItemPipeline; failures come back as *crawl.ItemError so the driver
// can isolate them.
type AnimePipeline struct {
	fetcher     crawl.Fetcher
	urls        AnimeURLs
	transformer AnimeTransformer
	sink        crawl.RecordSink
	prefix      string
	clock       clock.Clock
	logger      *zap.Logger
}

// NewAnimePipeline constructs an AnimePipeline writing under prefix.
func NewAnimePipeline(
	fetcher crawl.Fetcher,
	urls AnimeURLs,
	sink crawl.RecordSink,
	prefix string,
	clk clock.Clock,
	logger *zap.Logger,
) *AnimePipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnimePipeline{
		fetcher: fetcher,
		urls:    urls,
		sink:    sink,
		prefix:  prefix,
		clock:   clk,
		logger:  logger,
	}
}

// Process implements crawl.ItemPipeline.
func (p *AnimePipeline) Process(ctx context.Context, stub crawl.ItemStub) (string, error) {
	detailURL := p.urls.ItemURL(stub.ID)
	page, err := p.fetcher.Fetch(ctx, detailURL)
	if err != nil {
		return "", &crawl.ItemError{ID: stub.ID, Err: fmt.Errorf("fetch detail: %w", err)}
	}

	data, err := p.transformer.Transform(page.Body, stub.ID, detailURL)
	if err != nil {
		return "", &crawl.ItemError{ID: stub.ID, Err: fmt.Errorf("transform: %w", err)}
	}

	// The cast lives on a separate page. Missing or unfetchable cast data
	// degrades to an empty list rather than failing the item, matching how
	// much of the catalog simply has no such page.
	if charsURL := p.transformer.CharactersURL(page.Body); charsURL != "" {
		charsPage, err := p.fetcher.Fetch(ctx, charsURL)
		if err != nil {
			if ctx.Err() != nil {
				return "", &crawl.ItemError{ID: stub.ID, Err: ctx.Err()}
			}
			p.logger.Warn("characters page fetch failed",
				zap.Int64("id", stub.ID),
				zap.String("url", charsURL),
				zap.Error(err),
			)
		} else if cast, err := p.transformer.TransformCharacters(charsPage.Body); err == nil {
			data.Characters = cast
		}
	}

	uri, err := p.store(ctx, stub.ID, data)
	if err != nil {
		return "", &crawl.ItemError{ID: stub.ID, Err: err}
	}
	return uri, nil
}

func (p *AnimePipeline) store(ctx context.Context, id int64, data AnimeData) (string, error) {
	record := crawl.Record{
		RecordID:  uuid.NewString(),
		EmittedAt: p.clock.Now().UnixMilli(),
		Data:      data,
	}
	uri, err := p.sink.Store(ctx, fmt.Sprintf("%s/%d.json", p.prefix, id), record)
	if err != nil {
		return "", fmt.Errorf("store record: %w", err)
	}
	return uri, nil
}

// PeoplePipeline fetches one person profile, transforms it, and stores the
// record. It implements crawl.ItemPipeline.
type PeoplePipeline struct {
	fetcher     crawl.Fetcher
	urls        PeopleURLs
	transformer PersonTransformer
	sink        crawl.RecordSink
	prefix      string
	clock       clock.Clock
}

// NewPeoplePipeline constructs a PeoplePipeline writing under prefix.
func NewPeoplePipeline(
	fetcher crawl.Fetcher,
	urls PeopleURLs,
	sink crawl.RecordSink,
	prefix string,
	clk clock.Clock,
) *PeoplePipeline {
	return &PeoplePipeline{
		fetcher: fetcher,
		urls:    urls,
		sink:    sink,
		prefix:  prefix,
		clock:   clk,
	}
}

// Process implements crawl.ItemPipeline.
func (p *PeoplePipeline) Process(ctx context.Context, stub crawl.ItemStub) (string, error) {
	profileURL := p.urls.ItemURL(stub.ID)
	page, err := p.fetcher.Fetch(ctx, profileURL)
	if err != nil {
		return "", &crawl.ItemError{ID: stub.ID, Err: fmt.Errorf("fetch profile: %w", err)}
	}

	data, err := p.transformer.Transform(page.Body, stub.ID, profileURL)
	if err != nil {
		return "", &crawl.ItemError{ID: stub.ID, Err: fmt.Errorf("transform: %w", err)}
	}

	record := crawl.Record{
		RecordID:  uuid.NewString(),
		EmittedAt: p.clock.Now().UnixMilli(),
		Data:      data,
	}
	uri, err := p.sink.Store(ctx, fmt.Sprintf("%s/%d.json", p.prefix, stub.ID), record)
	if err != nil {
		return "", &crawl.ItemError{ID: stub.ID, Err: fmt.Errorf("store record: %w", err)}
	}
	return uri, nil
}
