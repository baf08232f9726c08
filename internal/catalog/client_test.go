package catalog

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/arcanaland/scrymancer/internal/card"
	"github.com/arcanaland/scrymancer/internal/catalog/mocks"
	"github.com/arcanaland/scrymancer/internal/catalogerr"
)

func boltServer(t *testing.T) *catalogServer {
	return newCatalogServer(t, map[string]route{
		"/cards/search?q=Lightning+Bolt":        {fixture: "search-bolt-1.json"},
		"/cards/search?page=2&q=Lightning+Bolt": {fixture: "search-bolt-2.json"},
	})
}

func TestClientSearch(t *testing.T) {
	cs := boltServer(t)
	reg := prometheus.NewRegistry()
	c, rec := newTestClient(t, cs.URL, WithMetrics(NewMetrics(reg)))

	cards, err := c.Search(context.Background(), "Lightning Bolt", SearchOptions{})
	require.NoError(t, err)
	require.Len(t, cards, 3)

	sets := make([]string, 0, len(cards))
	for _, crd := range cards {
		assert.Equal(t, "Lightning Bolt", card.Deref(crd.Name))
		sets = append(sets, card.Deref(crd.SetCode))
	}
	assert.Equal(t, []string{"lea", "m10", "2xm"}, sets)
	assert.Equal(t, 1, rec.count())
	assert.Len(t, cs.requests(), 2)

	first := cards[0]
	require.NotNil(t, first.CMC)
	assert.Equal(t, 1.0, *first.CMC)
	require.NotNil(t, first.PriceUSD)
	assert.Equal(t, "412.5", first.PriceUSD.String())
	assert.True(t, first.IsLegal("Modern"))
	assert.False(t, first.IsLegal("standard"))
	assert.Empty(t, first.Issues())

	last := cards[2]
	assert.Nil(t, last.CMC)
	require.Len(t, last.Issues(), 1)
	assert.True(t, catalogerr.HasKind(last.Issues()[0], catalogerr.KindMalformedField))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.PageWaits))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.metrics.PagesFetched))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.RecordIssues.WithLabelValues(string(catalogerr.KindMalformedField))))
}

func TestClientSearchFailures(t *testing.T) {
	t.Run("invalid query performs no request", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		c, _ := newTestClient(t, "https://api.example.test", WithDoer(mocks.NewMockDoer(ctrl)))

		cards, err := c.Search(context.Background(), "  ", SearchOptions{})
		assert.Nil(t, cards)
		assert.True(t, catalogerr.HasKind(err, catalogerr.KindInvalidQuery))
	})

	t.Run("second page transport failure yields no cards", func(t *testing.T) {
		cs := boltServer(t)
		first := readFixture(t, "search-bolt-1.json", cs.URL)

		ctrl := gomock.NewController(t)
		doer := mocks.NewMockDoer(ctrl)
		gomock.InOrder(
			doer.EXPECT().Do(gomock.Any()).Return(&http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewReader(first)),
			}, nil),
			doer.EXPECT().Do(gomock.Any()).DoAndReturn(func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, "2", req.URL.Query().Get("page"))
				return nil, errors.New("connection reset by peer")
			}),
		)

		c, rec := newTestClient(t, cs.URL, WithDoer(doer))
		cards, err := c.Search(context.Background(), "Lightning Bolt", SearchOptions{})
		assert.Nil(t, cards)
		assert.True(t, catalogerr.HasKind(err, catalogerr.KindTransport))
		assert.True(t, catalogerr.IsFatal(err))
		assert.Contains(t, err.Error(), `search "Lightning Bolt"`)
		assert.Equal(t, 1, rec.count())
	})

	t.Run("no matches is a not found transport error", func(t *testing.T) {
		cs := newCatalogServer(t, nil)
		c, _ := newTestClient(t, cs.URL)

		cards, err := c.Search(context.Background(), "zzzzzz", SearchOptions{})
		assert.Nil(t, cards)
		assert.ErrorIs(t, err, catalogerr.ErrNotFound)
	})

	t.Run("canceled search returns the context error", func(t *testing.T) {
		cs := boltServer(t)
		c, _ := newTestClient(t, cs.URL)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		cards, err := c.Search(ctx, "Lightning Bolt", SearchOptions{})
		assert.Nil(t, cards)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, cs.requests())
	})
}

func TestClientSearchWaitsBetweenPages(t *testing.T) {
	cs := boltServer(t)
	c, err := NewClient(WithBaseURL(cs.URL), WithPageInterval(60*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	cards, err := c.Search(context.Background(), "Lightning Bolt", SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, cards, 3)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestClientFetchCard(t *testing.T) {
	cs := newCatalogServer(t, map[string]route{
		"/cards/multiverse/414304":                    {fixture: "card-bruna.json"},
		"/cards/emn/15":                               {fixture: "card-bruna.json"},
		"/cards/27907985-b5f6-4098-ab43-15a0c2bf94d5": {fixture: "card-bruna.json"},
		"/cards/emn/28":                               {body: `{"object": "card", "name": "Gisela, the Broken Blade", "set": "emn", "layout": "meld"}`},
		"/cards/lea/1":                                {fixture: "sets.json"},
	})
	c, _ := newTestClient(t, cs.URL)
	ctx := context.Background()

	t.Run("by multiverse id", func(t *testing.T) {
		bruna, err := c.FetchByMultiverseID(ctx, 414304)
		require.NoError(t, err)
		assert.Equal(t, "Bruna, the Fading Light", card.Deref(bruna.Name))
		require.NotNil(t, bruna.MultiverseID)
		assert.Equal(t, 414304, *bruna.MultiverseID)
		assert.True(t, bruna.IsMultiPart())
		require.Len(t, bruna.Parts(), 3)

		// the third part has no uri
		assert.Len(t, bruna.Issues(), 1)
		assert.True(t, catalogerr.HasKind(bruna.Issues()[0], catalogerr.KindReferenceIncomplete))
	})

	t.Run("by set and number", func(t *testing.T) {
		bruna, err := c.FetchBySetAndNumber(ctx, "EMN", 15)
		require.NoError(t, err)
		assert.Equal(t, card.CardKey{Name: "Bruna, the Fading Light", SetCode: "emn"}, bruna.Key())
	})

	t.Run("by catalog id", func(t *testing.T) {
		bruna, err := c.FetchByID(ctx, "27907985-b5f6-4098-ab43-15a0c2bf94d5")
		require.NoError(t, err)
		assert.Equal(t, "27907985-b5f6-4098-ab43-15a0c2bf94d5", card.Deref(bruna.ID))
	})

	t.Run("resolve follows a reference", func(t *testing.T) {
		bruna, err := c.FetchByMultiverseID(ctx, 414304)
		require.NoError(t, err)
		parts := bruna.Parts()

		gisela, err := c.Resolve(ctx, parts[1])
		require.NoError(t, err)
		assert.Equal(t, "Gisela, the Broken Blade", card.Deref(gisela.Name))

		_, err = c.Resolve(ctx, parts[2])
		assert.True(t, catalogerr.HasKind(err, catalogerr.KindInvalidQuery))
	})

	t.Run("unknown printing", func(t *testing.T) {
		_, err := c.FetchBySetAndNumber(ctx, "emn", 999)
		assert.ErrorIs(t, err, catalogerr.ErrNotFound)
		assert.Contains(t, err.Error(), "No card found")
	})

	t.Run("non-card document is malformed", func(t *testing.T) {
		_, err := c.FetchBySetAndNumber(ctx, "lea", 1)
		assert.True(t, catalogerr.HasKind(err, catalogerr.KindMalformedResponse))
	})

	t.Run("invalid lookups never reach the network", func(t *testing.T) {
		before := len(cs.requests())
		_, err := c.FetchByMultiverseID(ctx, 0)
		assert.True(t, catalogerr.HasKind(err, catalogerr.KindInvalidQuery))
		_, err = c.FetchBySetAndNumber(ctx, "", 1)
		assert.True(t, catalogerr.HasKind(err, catalogerr.KindInvalidQuery))
		_, err = c.FetchByID(ctx, "not-a-uuid")
		assert.True(t, catalogerr.HasKind(err, catalogerr.KindInvalidQuery))
		assert.Len(t, cs.requests(), before)
	})
}

func TestClientListSets(t *testing.T) {
	cs := newCatalogServer(t, map[string]route{
		"/sets": {fixture: "sets.json"},
	})
	c, _ := newTestClient(t, cs.URL)

	sets, err := c.ListSets(context.Background())
	require.NoError(t, err)
	require.Len(t, sets, 3)

	assert.Equal(t, "core", card.Deref(sets[0].Type))
	require.NotNil(t, sets[0].Released)
	assert.Equal(t, 1993, sets[0].Released.Year())
	assert.Equal(t, "expansion", card.Deref(sets[1].Type))

	assert.Nil(t, sets[2].Released)
	require.Len(t, sets[2].Issues(), 1)
	assert.True(t, catalogerr.HasKind(sets[2].Issues()[0], catalogerr.KindMalformedField))
}

func TestClientFetchImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	cs := newCatalogServer(t, map[string]route{
		"/cards/emn/15?format=image&version=normal": {body: buf.String()},
		"/cards/emn/15?format=image&version=small":  {body: "not an image"},
	})
	c, _ := newTestClient(t, cs.URL)

	decoded, err := c.FetchImage(context.Background(), cs.URL+"/cards/emn/15", "")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 2), decoded.Bounds())

	_, err = c.FetchImage(context.Background(), cs.URL+"/cards/emn/15", "small")
	assert.True(t, catalogerr.HasKind(err, catalogerr.KindMalformedResponse))
}

func TestClientSharedBetweenGoroutines(t *testing.T) {
	cs := boltServer(t)
	c, _ := newTestClient(t, cs.URL)

	var wg sync.WaitGroup
	results := make([]int, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cards, err := c.Search(context.Background(), "Lightning Bolt", SearchOptions{})
			if assert.NoError(t, err) {
				results[i] = len(cards)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, []int{3, 3, 3, 3}, results)
}

func TestLimitedDoer(t *testing.T) {
	cs := newCatalogServer(t, map[string]route{
		"/sets": {body: `{"data": []}`},
	})

	t.Run("spaces requests", func(t *testing.T) {
		d := NewLimitedDoer(http.DefaultClient, 20)
		start := time.Now()
		for n := 0; n < 3; n++ {
			req, err := http.NewRequest(http.MethodGet, cs.URL+"/sets", nil)
			require.NoError(t, err)
			resp, err := d.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
		}
		// burst of one, then two waits of 50ms
		assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	})

	t.Run("canceled wait does not forward", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		d := NewLimitedDoer(mocks.NewMockDoer(ctrl), 0.001)
		d.limiter.Allow() // spend the burst

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.example.test/sets", nil)
		require.NoError(t, err)
		_, err = d.Do(req)
		assert.Error(t, err)
	})

	t.Run("non-positive rate is unlimited", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		doer := mocks.NewMockDoer(ctrl)
		doer.EXPECT().Do(gomock.Any()).Times(5).DoAndReturn(func(*http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(""))}, nil
		})

		d := NewLimitedDoer(doer, 0)
		for n := 0; n < 5; n++ {
			req, err := http.NewRequest(http.MethodGet, "https://api.example.test/sets", nil)
			require.NoError(t, err)
			_, err = d.Do(req)
			require.NoError(t, err)
		}
	})
}
