package crawl

import "context"

// Fetcher retrieves a single URL. Implementations own pacing and retries;
// a returned error is final for this run (see FatalError).
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// URLBuilder produces the listing-page URL for a partition and page offset.
type URLBuilder interface {
	ListingURL(partition string, page int) string
}

// ListingParser extracts item stubs from a listing page body.
type ListingParser interface {
	Parse(body []byte) ([]ItemStub, error)
}

// ItemPipeline fetches, transforms, and stores one item. It returns the URI
// of the stored artifact. Failures come back as *ItemError.
type ItemPipeline interface {
	Process(ctx context.Context, stub ItemStub) (string, error)
}

// RecordSink stores one record at a deterministic path and returns a URI.
type RecordSink interface {
	Store(ctx context.Context, path string, record Record) (string, error)
}

// Publisher pushes completion events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// PageRecorder persists listing-page visits for auditing. Recording is
// best-effort: the driver logs failures and keeps going.
type PageRecorder interface {
	RecordPage(ctx context.Context, visit PageVisit) error
}

// Checkpoint is the durable crawl position plus the completed-item set.
// Implementations must be safe for concurrent status reads while the owning
// driver mutates them.
type Checkpoint interface {
	MarkCompleted(id int64)
	IsCompleted(id int64) bool
	CompletedCount() int
	SetCursor(partition string, page int)
	Cursor() (partition string, page int, ok bool)
	Save() error
}
