package deck

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/scrymancer/internal/card"
	"github.com/arcanaland/scrymancer/internal/catalogerr"
)

const burnList = `
[deck]
name = "Burn"
format = "Modern"

[[cards]]
set = "M10"
number = 146
count = 4

[[cards]]
set = "lea"
number = 161

[[cards]]
set = "emn"
number = 15
count = 2
`

func writeDeck(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDeck(t *testing.T) {
	d, err := LoadDeck(writeDeck(t, burnList))
	require.NoError(t, err)

	assert.Equal(t, "Burn", d.Name)
	assert.Equal(t, "modern", d.Format)
	require.Len(t, d.Entries, 3)
	assert.Equal(t, Entry{Set: "m10", Number: 146, Count: 4}, d.Entries[0])
	assert.Equal(t, 1, d.Entries[1].Count)
	assert.Equal(t, 7, d.Size())
}

func TestLoadDeckRejects(t *testing.T) {
	for name, content := range map[string]string{
		"no cards":       "[deck]\nname = \"Empty\"\n",
		"missing set":    "[[cards]]\nnumber = 1\n",
		"zero number":    "[[cards]]\nset = \"lea\"\n",
		"negative count": "[[cards]]\nset = \"lea\"\nnumber = 1\ncount = -1\n",
		"unknown key":    "[[cards]]\nset = \"lea\"\nnumber = 1\nfoil = true\n",
		"not toml":       "[[cards]\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadDeck(writeDeck(t, content))
			assert.Error(t, err)
		})
	}

	_, err := LoadDeck(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "not found")
}

type fakeFetcher struct {
	cards map[string]map[string]any
	err   error
	calls []string
}

func (f *fakeFetcher) FetchBySetAndNumber(_ context.Context, set string, number int) (card.Card, error) {
	key := fmt.Sprintf("%s/%d", set, number)
	f.calls = append(f.calls, key)
	if f.err != nil {
		return card.Card{}, f.err
	}
	raw, ok := f.cards[key]
	if !ok {
		return card.Card{}, &catalogerr.Error{Kind: catalogerr.KindTransport, Status: 404, Err: catalogerr.ErrNotFound}
	}
	return card.MapCard(raw), nil
}

func catalogFixture() *fakeFetcher {
	return &fakeFetcher{cards: map[string]map[string]any{
		"m10/146": {"name": "Lightning Bolt", "set": "m10", "usd": "1.99", "legalities": map[string]any{"modern": "legal"}},
		"lea/161": {"name": "Lightning Bolt", "set": "lea", "usd": "412.50", "legalities": map[string]any{"modern": "legal"}},
		"emn/15":  {"name": "Bruna, the Fading Light", "set": "emn", "legalities": map[string]any{"modern": "legal", "standard": "not_legal"}},
	}}
}

func TestCheck(t *testing.T) {
	d, err := LoadDeck(writeDeck(t, burnList))
	require.NoError(t, err)

	t.Run("totals and legality", func(t *testing.T) {
		f := catalogFixture()
		report, err := Check(context.Background(), f, d, "")
		require.NoError(t, err)

		assert.Equal(t, []string{"m10/146", "lea/161", "emn/15"}, f.calls)
		assert.Equal(t, "modern", report.Format)
		assert.True(t, report.Legal())
		assert.Empty(t, report.Illegal())

		require.Len(t, report.Lines, 3)
		assert.Equal(t, "7.96", report.Lines[0].Subtotal.String())
		assert.Nil(t, report.Lines[2].Subtotal)

		// Bruna has no price, so the total is a lower bound
		assert.Equal(t, "420.46", report.Total.StringFixed(2))
		assert.False(t, report.Complete)
	})

	t.Run("format override", func(t *testing.T) {
		report, err := Check(context.Background(), catalogFixture(), d, "Standard")
		require.NoError(t, err)
		assert.False(t, report.Legal())

		illegal := report.Illegal()
		require.Len(t, illegal, 3)
		assert.Equal(t, "", illegal[0].Status)
		assert.Equal(t, "not_legal", illegal[2].Status)
	})

	t.Run("unknown printing is recorded", func(t *testing.T) {
		f := catalogFixture()
		delete(f.cards, "lea/161")
		report, err := Check(context.Background(), f, d, "")
		require.NoError(t, err)
		assert.Equal(t, []Entry{{Set: "lea", Number: 161, Count: 1}}, report.NotFound)
		assert.False(t, report.Legal())
		assert.Len(t, report.Lines, 2)
	})

	t.Run("fatal failure aborts", func(t *testing.T) {
		boom := &catalogerr.Error{Kind: catalogerr.KindTransport, Err: errors.New("connection refused")}
		f := &fakeFetcher{err: boom}
		report, err := Check(context.Background(), f, d, "")
		assert.Nil(t, report)
		assert.ErrorIs(t, err, boom)
		assert.Len(t, f.calls, 1)
	})

	t.Run("no format", func(t *testing.T) {
		_, err := Check(context.Background(), catalogFixture(), &Deck{Entries: d.Entries}, "")
		assert.Error(t, err)
	})
}

func TestReportCopies(t *testing.T) {
	list := burnList + "\n[[cards]]\nset = \"m10\"\nnumber = 146\ncount = 2\n"
	d, err := LoadDeck(writeDeck(t, list))
	require.NoError(t, err)

	report, err := Check(context.Background(), catalogFixture(), d, "")
	require.NoError(t, err)

	copies := report.Copies()
	assert.Equal(t, 6, copies[card.CardKey{Name: "Lightning Bolt", SetCode: "m10"}])
	assert.Equal(t, 1, copies[card.CardKey{Name: "Lightning Bolt", SetCode: "lea"}])
	assert.Len(t, copies, 3)
}
