package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/arcanaland/scrymancer/internal/catalogerr"
)

// DefaultPageInterval is the minimum spacing the catalog service asks for
// between consecutive requests.
const DefaultPageInterval = 50 * time.Millisecond

// pageSource is the part of the Fetcher the paginator drives.
type pageSource interface {
	FetchPage(ctx context.Context, url string) (Page, error)
}

// Paginator follows continuation links and merges the records of every page
// in arrival order.
type Paginator struct {
	source   pageSource
	interval time.Duration
	maxPages int
	wait     func(ctx context.Context, d time.Duration) error
	onWait   func()
}

// NewPaginator returns a Paginator pausing interval between pages. Intervals
// below DefaultPageInterval are raised to it. maxPages <= 0 means unlimited.
func NewPaginator(source pageSource, interval time.Duration, maxPages int) *Paginator {
	if interval < DefaultPageInterval {
		interval = DefaultPageInterval
	}
	return &Paginator{
		source:   source,
		interval: interval,
		maxPages: maxPages,
		wait:     sleep,
	}
}

// Interval returns the pause taken before each continuation fetch.
func (p *Paginator) Interval() time.Duration {
	return p.interval
}

// Collect fetches firstURL and every continuation page after it. The merged
// records are returned first-page-first. Any failing page fails the whole
// operation; there is no partial result.
func (p *Paginator) Collect(ctx context.Context, firstURL string) ([]map[string]any, error) {
	var records []map[string]any
	next := firstURL

	for pages := 1; ; pages++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("paginate: %w", err)
		}

		page, err := p.source.FetchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		records = append(records, page.Data...)

		if !page.HasMore {
			return records, nil
		}
		if p.maxPages > 0 && pages >= p.maxPages {
			return nil, &catalogerr.Error{
				Kind:    catalogerr.KindMalformedResponse,
				Op:      "paginate",
				URL:     page.NextPage,
				Message: fmt.Sprintf("continuation chain exceeds %d pages", p.maxPages),
			}
		}

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("paginate: %w", err)
		}
		if err := p.wait(ctx, p.interval); err != nil {
			return nil, fmt.Errorf("paginate: %w", err)
		}
		if p.onWait != nil {
			p.onWait()
		}
		next = page.NextPage
	}
}

// sleep blocks for d or until ctx is done. The full interval always elapses
// before it returns nil.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
