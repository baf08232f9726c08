package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/arcanaland/scrymancer/internal/catalogerr"
)

// DefaultUserAgent identifies the client to the catalog service.
const DefaultUserAgent = "scrymancer/1.0"

// Document is the root object of one decoded response.
type Document map[string]any

// Page is one bounded slice of a paginated listing.
type Page struct {
	Data     []map[string]any
	HasMore  bool
	NextPage string
}

// Fetcher performs exactly one GET per call and decodes the body. It has no
// retry or pagination logic.
type Fetcher struct {
	doer      Doer
	userAgent string
	logger    *slog.Logger
	metrics   *Metrics
}

// NewFetcher returns a Fetcher issuing requests through doer.
func NewFetcher(doer Doer, userAgent string, logger *slog.Logger, metrics *Metrics) *Fetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Fetcher{doer: doer, userAgent: userAgent, logger: logger, metrics: metrics}
}

// Fetch retrieves url and returns its root JSON object.
func (f *Fetcher) Fetch(ctx context.Context, url string) (doc Document, err error) {
	start := time.Now()
	defer func() { f.metrics.observeFetch(start, err) }()

	body, err := f.get(ctx, url, "application/json")
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(body) {
		return nil, &catalogerr.Error{Kind: catalogerr.KindMalformedResponse, Op: "fetch", URL: url, Message: "body is not valid UTF-8"}
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &catalogerr.Error{Kind: catalogerr.KindMalformedResponse, Op: "fetch", URL: url, Message: "body is not a JSON object", Err: err}
	}
	if doc == nil {
		return nil, &catalogerr.Error{Kind: catalogerr.KindMalformedResponse, Op: "fetch", URL: url, Message: "body is JSON null"}
	}
	return doc, nil
}

// FetchPage retrieves one page of a listing. The document must carry a data
// array of objects; a set has_more flag must come with a next_page URL.
func (f *Fetcher) FetchPage(ctx context.Context, url string) (Page, error) {
	doc, err := f.Fetch(ctx, url)
	if err != nil {
		return Page{}, err
	}
	return parsePage(url, doc)
}

func parsePage(url string, doc Document) (Page, error) {
	malformed := func(format string, args ...any) error {
		return &catalogerr.Error{Kind: catalogerr.KindMalformedResponse, Op: "fetch page", URL: url, Message: fmt.Sprintf(format, args...)}
	}

	raw, ok := doc["data"].([]any)
	if !ok {
		return Page{}, malformed("missing top-level data array")
	}
	page := Page{Data: make([]map[string]any, 0, len(raw))}
	for i, item := range raw {
		rec, ok := item.(map[string]any)
		if !ok {
			return Page{}, malformed("data[%d] is %T, not an object", i, item)
		}
		page.Data = append(page.Data, rec)
	}

	if v, ok := doc["has_more"]; ok && v != nil {
		more, ok := v.(bool)
		if !ok {
			return Page{}, malformed("has_more is %T, not a boolean", v)
		}
		page.HasMore = more
	}
	if page.HasMore {
		next, ok := doc["next_page"].(string)
		if !ok || next == "" {
			return Page{}, malformed("has_more is set without a next_page URL")
		}
		page.NextPage = next
	}
	return page, nil
}

// FetchBytes retrieves url and returns the raw body. It serves the image path.
func (f *Fetcher) FetchBytes(ctx context.Context, url string) (body []byte, err error) {
	start := time.Now()
	defer func() { f.metrics.observeFetch(start, err) }()

	return f.get(ctx, url, "*/*")
}

func (f *Fetcher) get(ctx context.Context, url, accept string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &catalogerr.Error{Kind: catalogerr.KindInvalidQuery, Op: "fetch", URL: url, Message: "cannot build request", Err: err}
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", f.userAgent)
	f.logger.Debug(fmt.Sprintf("GET %s", url))

	resp, err := f.doer.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("fetch %s: %w", url, ctxErr)
		}
		return nil, &catalogerr.Error{Kind: catalogerr.KindTransport, Op: "fetch", URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &catalogerr.Error{Kind: catalogerr.KindTransport, Op: "fetch", URL: url, Status: resp.StatusCode, Message: "reading body", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &catalogerr.Error{
			Kind:    catalogerr.KindTransport,
			Op:      "fetch",
			URL:     url,
			Status:  resp.StatusCode,
			Message: statusDetails(resp.StatusCode, body),
		}
		if resp.StatusCode == http.StatusNotFound {
			statusErr.Err = catalogerr.ErrNotFound
		}
		f.logger.Error(fmt.Sprintf("%d %s", resp.StatusCode, statusErr.Message), "url", url)
		return nil, statusErr
	}
	return body, nil
}

var statusText = map[int]string{
	http.StatusBadRequest:          "Bad Request. The query could not be understood",
	http.StatusNotFound:            "Not Found. No record matches the lookup",
	http.StatusTooManyRequests:     "Rate limit exceeded. Requests are arriving too quickly",
	http.StatusInternalServerError: "Internal Server Error",
	http.StatusServiceUnavailable:  "Service Unavailable",
}

// statusDetails prefers the service's own error details and falls back to a
// description of the status code.
func statusDetails(status int, body []byte) string {
	var apiErr struct {
		Object  string `json:"object"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Object == "error" && apiErr.Details != "" {
		return apiErr.Details
	}
	if text, ok := statusText[status]; ok {
		return text
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "unexpected status"
}

// isCanceled reports whether err stems from the caller abandoning the operation.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
