package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/otakulab/malcrawl/internal/crawl"
	"github.com/otakulab/malcrawl/internal/metrics"
)

// outcomeKind classifies one fetch attempt.
type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeRateLimited
	outcomeTransient
	outcomeFatal
)

// outcome is the tagged result of a single HTTP attempt.
type outcome struct {
	kind       outcomeKind
	page       crawl.Page
	retryAfter time.Duration
	err        error
}

// Config controls Fetcher behavior.
type Config struct {
	// Name labels metrics and log lines for this fetcher instance.
	Name string
	// UserAgent is sent on every request.
	UserAgent string
	// MinSpacing is the minimum gap between consecutive outgoing requests
	// on this instance. Zero disables pacing.
	MinSpacing time.Duration
	// Timeout bounds one HTTP attempt, not the whole retry loop.
	Timeout time.Duration
	// Policy selects bounded or unbounded retry of transient failures.
	Policy RetryPolicy
}

// Fetcher issues paced, retrying HTTP GETs. Each instance paces itself
// independently; nothing is shared process-wide.
type Fetcher struct {
	name          string
	baseCollector *colly.Collector
	pacer         *rate.Limiter
	policy        RetryPolicy
	logger        *zap.Logger

	// sleep is replaceable in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// New constructs a configured Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := colly.NewCollector()
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.AllowURLRevisit = true
	c.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ForceAttemptHTTP2:     true,
	})
	c.SetRequestTimeout(timeout)

	limit := rate.Inf
	if cfg.MinSpacing > 0 {
		limit = rate.Every(cfg.MinSpacing)
	}

	return &Fetcher{
		name:          cfg.Name,
		baseCollector: c,
		pacer:         rate.NewLimiter(limit, 1),
		policy:        cfg.Policy,
		logger:        logger,
		sleep:         sleepCtx,
	}
}

// Fetch retrieves url, blocking through pacing, backoff, and rate-limit
// waits until the attempt resolves. It returns the page on success, a
// *crawl.FatalError for permanent failures or an exhausted retry budget,
// and the context error if the caller cancels.
func (f *Fetcher) Fetch(ctx context.Context, url string) (crawl.Page, error) {
	attempt := 0
	for {
		if err := f.pace(ctx); err != nil {
			return crawl.Page{}, err
		}

		out := f.attempt(ctx, url)
		switch out.kind {
		case outcomeSuccess:
			return out.page, nil

		case outcomeFatal:
			return crawl.Page{}, &crawl.FatalError{URL: url, Err: out.err}

		case outcomeRateLimited:
			wait := out.retryAfter
			if wait <= 0 {
				wait = f.policy.BaseDelay()
			}
			metrics.ObserveRetry(f.name, "rate_limited")
			metrics.ObserveRateLimitDelay(f.name, wait)
			f.logger.Warn("rate limited, honoring server wait",
				zap.String("url", url),
				zap.Duration("wait", wait),
			)
			if err := f.sleep(ctx, wait); err != nil {
				return crawl.Page{}, err
			}
			// Rate limiting never consumes the attempt budget.

		case outcomeTransient:
			if f.policy.Exhausted(attempt + 1) {
				return crawl.Page{}, &crawl.FatalError{
					URL: url,
					Err: fmt.Errorf("retry budget exhausted after %d attempts: %w", attempt+1, out.err),
				}
			}
			delay := f.policy.Backoff(attempt)
			metrics.ObserveRetry(f.name, "transient")
			f.logger.Warn("transient fetch failure, backing off",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(out.err),
			)
			if err := f.sleep(ctx, delay); err != nil {
				return crawl.Page{}, err
			}
			attempt++
		}
	}
}

// pace blocks until the inter-request spacing allows the next attempt.
func (f *Fetcher) pace(ctx context.Context) error {
	start := time.Now()
	if err := f.pacer.Wait(ctx); err != nil {
		return fmt.Errorf("pacing wait: %w", err)
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObserveRateLimitDelay(f.name, waited)
	}
	return nil
}

// attempt performs exactly one HTTP GET and classifies the result.
func (f *Fetcher) attempt(ctx context.Context, url string) outcome {
	if err := ctx.Err(); err != nil {
		return outcome{kind: outcomeFatal, err: err}
	}

	collector := f.baseCollector.Clone()
	resultCh := make(chan outcome, 1)
	var once sync.Once
	send := func(out outcome) {
		once.Do(func() { resultCh <- out })
	}

	collector.OnResponse(func(r *colly.Response) {
		send(outcome{
			kind: outcomeSuccess,
			page: crawl.Page{
				URL:        r.Request.URL.String(),
				StatusCode: r.StatusCode,
				Body:       append([]byte(nil), r.Body...),
			},
		})
	})

	collector.OnError(func(r *colly.Response, err error) {
		status := 0
		var headers http.Header
		if r != nil {
			status = r.StatusCode
			if r.Headers != nil {
				headers = *r.Headers
			}
		}
		send(classifyError(url, status, headers, err))
	})

	f.logger.Debug("loading url", zap.String("url", url))
	if err := collector.Visit(url); err != nil {
		send(outcome{kind: outcomeFatal, err: fmt.Errorf("visit %s: %w", url, err)})
	}
	collector.Wait()

	select {
	case out := <-resultCh:
		if out.kind != outcomeFatal {
			if err := ctx.Err(); err != nil {
				return outcome{kind: outcomeFatal, err: err}
			}
		}
		return out
	default:
		return outcome{kind: outcomeTransient, err: errors.New("fetch produced no result")}
	}
}

// classifyError maps a failed attempt into the outcome taxonomy: 429 is
// rate-limited, 5xx and network errors are transient, anything else is
// permanent.
func classifyError(url string, status int, headers http.Header, err error) outcome {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return outcome{kind: outcomeFatal, err: err}
	}
	switch {
	case status == http.StatusTooManyRequests:
		return outcome{
			kind:       outcomeRateLimited,
			retryAfter: parseRetryAfter(headers),
			err:        fmt.Errorf("fetch %s: status %d", url, status),
		}
	case status >= 500 || status == 0:
		if err == nil {
			err = fmt.Errorf("status %d", status)
		}
		return outcome{kind: outcomeTransient, err: fmt.Errorf("fetch %s: %w", url, err)}
	default:
		if err == nil {
			err = fmt.Errorf("status %d", status)
		}
		return outcome{kind: outcomeFatal, err: fmt.Errorf("fetch %s: %w", url, err)}
	}
}

// parseRetryAfter reads the delay-seconds form of the Retry-After header.
// Zero means no usable hint.
func parseRetryAfter(headers http.Header) time.Duration {
	if headers == nil {
		return 0
	}
	raw := headers.Get("Retry-After")
	if raw == "" {
		return 0
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
