// Package crawl defines the core types and interfaces for the catalog
// crawl engine. It includes the partition cursor, the per-domain crawl
// driver, and the manager that runs drivers concurrently.
package crawl

import "time"

// ItemStub is one catalog entry discovered on a listing page. Identity is
// the numeric ID; the title and source URL are informational.
type ItemStub struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	SourceURL string `json:"source_url"`
}

// Page is the body of one successfully fetched page.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
}

// Record is the ingestion envelope written for each transformed item.
type Record struct {
	RecordID  string `json:"record_id"`
	EmittedAt int64  `json:"emitted_at"`
	Data      any    `json:"data"`
}

// PageVisit describes one listing-page fetch for the audit history.
type PageVisit struct {
	Domain     string    `json:"domain"`
	Partition  string    `json:"partition"`
	Page       int       `json:"page"`
	StatusCode int       `json:"status_code"`
	StubCount  int       `json:"stub_count"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// DriverStatus is the aggregate status reported for one driver.
type DriverStatus struct {
	Domain         string `json:"domain"`
	CompletedCount int    `json:"completed_count"`
	Partition      string `json:"current_partition"`
	Page           int    `json:"current_page"`
}
