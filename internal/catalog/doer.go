package catalog

//go:generate mockgen -destination=mocks/mock_doer.go -package=mocks . Doer

import (
	"net/http"

	"golang.org/x/time/rate"
)

// Doer is the HTTP collaborator. It owns connections, timeouts and any retry
// policy; *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// LimitedDoer spaces requests issued through one shared Doer so that several
// concurrent lookups together stay within the service's request budget.
type LimitedDoer struct {
	next    Doer
	limiter *rate.Limiter
}

// NewLimitedDoer allows perSecond requests per second through next.
// A non-positive rate disables limiting.
func NewLimitedDoer(next Doer, perSecond float64) *LimitedDoer {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &LimitedDoer{
		next:    next,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Do waits for a request slot and forwards the request.
func (d *LimitedDoer) Do(req *http.Request) (*http.Response, error) {
	if err := d.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return d.next.Do(req)
}
