// Package metrics exposes Prometheus collectors for the crawl engine.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pagesFetchedTotal         *prometheus.CounterVec
	itemsCompletedTotal       *prometheus.CounterVec
	itemErrorsTotal           *prometheus.CounterVec
	fetchRetriesTotal         *prometheus.CounterVec
	rateLimitDelaySeconds     *prometheus.HistogramVec
	checkpointSavesTotal      *prometheus.CounterVec
	checkpointSaveErrorsTotal *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		pagesFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "malcrawl_pages_fetched_total",
				Help: "Total listing pages fetched, labeled by domain and status.",
			},
			[]string{"domain", "status"},
		)

		itemsCompletedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "malcrawl_items_completed_total",
				Help: "Total items fetched, transformed, and stored, labeled by domain.",
			},
			[]string{"domain"},
		)

		itemErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "malcrawl_item_errors_total",
				Help: "Total per-item failures that were isolated and skipped, labeled by domain.",
			},
			[]string{"domain"},
		)

		fetchRetriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "malcrawl_fetch_retries_total",
				Help: "Total fetch retries, labeled by fetcher name and reason.",
			},
			[]string{"fetcher", "reason"},
		)

		rateLimitDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "malcrawl_rate_limit_delay_seconds",
				Help:    "Histogram of delays introduced by pacing and server rate limits.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 15, 60},
			},
			[]string{"fetcher"},
		)

		checkpointSavesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "malcrawl_checkpoint_saves_total",
				Help: "Total checkpoint saves, labeled by domain.",
			},
			[]string{"domain"},
		)

		checkpointSaveErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "malcrawl_checkpoint_save_errors_total",
				Help: "Total failed checkpoint saves, labeled by domain.",
			},
			[]string{"domain"},
		)
	})
}

// ObservePageFetch increments the listing-page counter.
func ObservePageFetch(domain, status string) {
	if pagesFetchedTotal == nil {
		return
	}
	pagesFetchedTotal.WithLabelValues(domain, status).Inc()
}

// ObserveItemCompleted increments the completed-item counter.
func ObserveItemCompleted(domain string) {
	if itemsCompletedTotal == nil {
		return
	}
	itemsCompletedTotal.WithLabelValues(domain).Inc()
}

// ObserveItemError increments the isolated-item-failure counter.
func ObserveItemError(domain string) {
	if itemErrorsTotal == nil {
		return
	}
	itemErrorsTotal.WithLabelValues(domain).Inc()
}

// ObserveRetry increments the retry counter. reason is "transient" or
// "rate_limited".
func ObserveRetry(fetcher, reason string) {
	if fetchRetriesTotal == nil {
		return
	}
	fetchRetriesTotal.WithLabelValues(fetcher, reason).Inc()
}

// ObserveRateLimitDelay records time spent waiting on pacing or a 429.
func ObserveRateLimitDelay(fetcher string, d time.Duration) {
	if rateLimitDelaySeconds == nil {
		return
	}
	rateLimitDelaySeconds.WithLabelValues(fetcher).Observe(d.Seconds())
}

// ObserveCheckpointSave records one checkpoint save attempt.
func ObserveCheckpointSave(domain string, err error) {
	if checkpointSavesTotal == nil {
		return
	}
	if err != nil {
		checkpointSaveErrorsTotal.WithLabelValues(domain).Inc()
		return
	}
	checkpointSavesTotal.WithLabelValues(domain).Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
