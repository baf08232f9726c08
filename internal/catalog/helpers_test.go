package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// route is a canned response for one request URI.
type route struct {
	status  int
	fixture string // file under testdata/, {{base}} is replaced by the server URL
	body    string // used when fixture is empty
}

// catalogServer replays testdata fixtures keyed by request URI and records
// every request it receives.
type catalogServer struct {
	*httptest.Server

	mu     sync.Mutex
	routes map[string]route
	hits   []string
	agents []string
}

func newCatalogServer(t *testing.T, routes map[string]route) *catalogServer {
	t.Helper()
	cs := &catalogServer{routes: routes}
	cs.Server = httptest.NewServer(http.HandlerFunc(cs.handle(t)))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *catalogServer) handle(t *testing.T) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		cs.mu.Lock()
		cs.hits = append(cs.hits, r.URL.RequestURI())
		cs.agents = append(cs.agents, r.Header.Get("User-Agent"))
		rt, ok := cs.routes[r.URL.RequestURI()]
		cs.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write(readFixture(t, "not-found.json", cs.URL))
			return
		}

		body := []byte(rt.body)
		if rt.fixture != "" {
			body = readFixture(t, rt.fixture, cs.URL)
		}
		status := rt.status
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}
}

func (cs *catalogServer) requests() []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]string(nil), cs.hits...)
}

func readFixture(t *testing.T, name, base string) []byte {
	t.Helper()
	content, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return []byte(strings.ReplaceAll(string(content), "{{base}}", base))
}

// waitRecorder replaces the paginator's blocking wait and counts calls.
type waitRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (w *waitRecorder) wait(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.waits = append(w.waits, d)
	return nil
}

func (w *waitRecorder) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.waits)
}

func newTestClient(t *testing.T, base string, opts ...Option) (*Client, *waitRecorder) {
	t.Helper()
	opts = append([]Option{WithBaseURL(base)}, opts...)
	c, err := NewClient(opts...)
	require.NoError(t, err)

	rec := &waitRecorder{}
	c.paginator.wait = rec.wait
	return c, rec
}
