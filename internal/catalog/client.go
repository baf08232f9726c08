// Package catalog retrieves card and set records from the remote catalog
// service: it builds request URLs, fetches and paginates JSON documents and
// maps every record into the typed values of package card.
package catalog

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"time"

	"github.com/arcanaland/scrymancer/internal/card"
	"github.com/arcanaland/scrymancer/internal/catalogerr"
)

// Client is the library surface over the catalog service. Each call owns its
// own result accumulation; a Client can be shared between goroutines.
type Client struct {
	query     QueryBuilder
	fetcher   *Fetcher
	paginator *Paginator
	logger    *slog.Logger
	metrics   *Metrics
}

type options struct {
	doer         Doer
	baseURL      string
	userAgent    string
	pageInterval time.Duration
	maxPages     int
	logger       *slog.Logger
	metrics      *Metrics
}

// Option configures a Client.
type Option func(*options)

// WithDoer sets the HTTP collaborator. Defaults to an *http.Client with a
// 30 second timeout.
func WithDoer(d Doer) Option {
	return func(o *options) { o.doer = d }
}

// WithBaseURL points the client at another endpoint.
func WithBaseURL(base string) Option {
	return func(o *options) { o.baseURL = base }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithPageInterval sets the pause between page fetches. It cannot go below
// DefaultPageInterval.
func WithPageInterval(d time.Duration) Option {
	return func(o *options) { o.pageInterval = d }
}

// WithMaxPages caps the number of pages a single listing may span.
func WithMaxPages(n int) Option {
	return func(o *options) { o.maxPages = n }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics sets the collectors traffic is recorded on.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// NewClient builds a Client. It fails only when the base URL is unusable.
func NewClient(opts ...Option) (*Client, error) {
	o := options{
		baseURL:      DefaultBaseURL,
		pageInterval: DefaultPageInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.doer == nil {
		o.doer = &http.Client{Timeout: 30 * time.Second}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.metrics == nil {
		o.metrics = NewMetrics(nil)
	}

	query, err := NewQueryBuilder(o.baseURL)
	if err != nil {
		return nil, err
	}

	fetcher := NewFetcher(o.doer, o.userAgent, o.logger, o.metrics)
	paginator := NewPaginator(fetcher, o.pageInterval, o.maxPages)
	paginator.onWait = o.metrics.incrementPageWaits

	return &Client{
		query:     query,
		fetcher:   fetcher,
		paginator: paginator,
		logger:    o.logger,
		metrics:   o.metrics,
	}, nil
}

// Query returns the URL builder the client uses.
func (c *Client) Query() QueryBuilder {
	return c.query
}

// Search runs a full-text query and returns every matching card across all
// result pages, in service order.
func (c *Client) Search(ctx context.Context, text string, opts SearchOptions) ([]card.Card, error) {
	url, err := c.query.Search(text, opts)
	if err != nil {
		return nil, err
	}
	records, err := c.paginator.Collect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", text, err)
	}

	cards := make([]card.Card, 0, len(records))
	for _, rec := range records {
		cards = append(cards, c.mapCard(rec))
	}
	c.logger.Debug("search complete", "query", text, "cards", len(cards))
	return cards, nil
}

// FetchByMultiverseID looks up a single printing by multiverse id.
func (c *Client) FetchByMultiverseID(ctx context.Context, id int) (card.Card, error) {
	url, err := c.query.Multiverse(id)
	if err != nil {
		return card.Card{}, err
	}
	return c.fetchCard(ctx, url)
}

// FetchBySetAndNumber looks up a single printing by set code and collector number.
func (c *Client) FetchBySetAndNumber(ctx context.Context, setCode string, number int) (card.Card, error) {
	url, err := c.query.SetNumber(setCode, number)
	if err != nil {
		return card.Card{}, err
	}
	return c.fetchCard(ctx, url)
}

// FetchByID looks up a single printing by catalog identifier.
func (c *Client) FetchByID(ctx context.Context, id string) (card.Card, error) {
	url, err := c.query.ByID(id)
	if err != nil {
		return card.Card{}, err
	}
	return c.fetchCard(ctx, url)
}

// Resolve dereferences a part reference into the full card. This is always
// an explicit fetch; mapping never follows references on its own.
func (c *Client) Resolve(ctx context.Context, ref card.CardReference) (card.Card, error) {
	if ref.URI == nil || *ref.URI == "" {
		return card.Card{}, catalogerr.InvalidQuery("resolve", "reference %q has no URI", card.Deref(ref.Name))
	}
	return c.fetchCard(ctx, *ref.URI)
}

// ListSets returns every set the service knows about.
func (c *Client) ListSets(ctx context.Context) ([]card.Set, error) {
	records, err := c.paginator.Collect(ctx, c.query.Sets())
	if err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}

	out := make([]card.Set, 0, len(records))
	for _, rec := range records {
		s := card.MapSet(rec)
		c.report("set", s.String(), s.Issues())
		out = append(out, s)
	}
	return out, nil
}

// FetchImage retrieves the artwork for a single-card lookup URL and decodes it.
func (c *Client) FetchImage(ctx context.Context, cardURL, version string) (image.Image, error) {
	url, err := c.query.Image(cardURL, version)
	if err != nil {
		return nil, err
	}
	body, err := c.fetcher.FetchBytes(ctx, url)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, &catalogerr.Error{Kind: catalogerr.KindMalformedResponse, Op: "image", URL: url, Message: "cannot decode image", Err: err}
	}
	return img, nil
}

func (c *Client) fetchCard(ctx context.Context, url string) (card.Card, error) {
	doc, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		if !isCanceled(err) {
			c.logger.Debug("card lookup failed", "url", url, "error", err)
		}
		return card.Card{}, err
	}
	if obj, ok := doc["object"].(string); ok && obj != "card" {
		return card.Card{}, &catalogerr.Error{
			Kind:    catalogerr.KindMalformedResponse,
			Op:      "fetch card",
			URL:     url,
			Message: fmt.Sprintf("expected a card object, got %q", obj),
		}
	}
	return c.mapCard(doc), nil
}

func (c *Client) mapCard(rec map[string]any) card.Card {
	mapped := card.MapCard(rec)
	c.report("card", mapped.String(), mapped.Issues())
	return mapped
}

func (c *Client) report(what, name string, issues []error) {
	if len(issues) == 0 {
		return
	}
	c.metrics.recordIssues(issues)
	for _, err := range issues {
		c.logger.Warn("record issue", what, name, "error", err)
	}
}
