// Package deck loads TOML deck lists and checks them against the catalog.
package deck

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/arcanaland/scrymancer/internal/card"
	"github.com/arcanaland/scrymancer/internal/catalogerr"
)

// DeckConfig is the on-disk layout of a deck list.
type DeckConfig struct {
	Deck struct {
		Name        string `toml:"name"`
		Format      string `toml:"format"`
		Author      string `toml:"author"`
		Description string `toml:"description"`
	} `toml:"deck"`
	Cards []Entry `toml:"cards"`
}

// Entry is one printing in a deck list.
type Entry struct {
	Set    string `toml:"set"`
	Number int    `toml:"number"`
	Count  int    `toml:"count"`
}

func (e Entry) String() string {
	return fmt.Sprintf("%dx %s/%d", e.Count, e.Set, e.Number)
}

// Deck represents a deck list
type Deck struct {
	Name        string
	Format      string
	Author      string
	Description string
	Path        string
	Entries     []Entry
}

// LoadDeck loads a deck list from a TOML file.
func LoadDeck(path string) (*Deck, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("deck list not found: %s", path)
	}

	var config DeckConfig
	meta, err := toml.DecodeFile(path, &config)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q in %s", undecoded[0].String(), path)
	}

	d := &Deck{
		Name:        config.Deck.Name,
		Format:      strings.ToLower(strings.TrimSpace(config.Deck.Format)),
		Author:      config.Deck.Author,
		Description: config.Deck.Description,
		Path:        path,
	}
	for i, e := range config.Cards {
		e.Set = strings.ToLower(strings.TrimSpace(e.Set))
		if e.Count == 0 {
			e.Count = 1
		}
		switch {
		case e.Set == "":
			return nil, fmt.Errorf("cards[%d]: missing set", i)
		case e.Number <= 0:
			return nil, fmt.Errorf("cards[%d]: collector number must be positive, got %d", i, e.Number)
		case e.Count < 0:
			return nil, fmt.Errorf("cards[%d]: count must be positive, got %d", i, e.Count)
		}
		d.Entries = append(d.Entries, e)
	}
	if len(d.Entries) == 0 {
		return nil, fmt.Errorf("deck list %s has no cards", path)
	}
	return d, nil
}

// Size returns the total number of cards, counting copies.
func (d *Deck) Size() int {
	var n int
	for _, e := range d.Entries {
		n += e.Count
	}
	return n
}

// Fetcher looks up a single printing. *catalog.Client satisfies it.
type Fetcher interface {
	FetchBySetAndNumber(ctx context.Context, setCode string, number int) (card.Card, error)
}

// Line is the checked state of one deck entry.
type Line struct {
	Entry    Entry
	Card     card.Card
	Status   string // legality status in the report format, "" when unlisted
	Legal    bool
	Subtotal *decimal.Decimal // nil when the printing has no USD price
}

// Report is the outcome of checking a deck against the catalog.
type Report struct {
	Deck     string
	Format   string
	Lines    []Line
	NotFound []Entry

	// Total sums the priced lines. Complete is false when any line is
	// unpriced or missing, in which case Total is a lower bound.
	Total    decimal.Decimal
	Complete bool
}

// Legal reports whether every entry was found and is legal in the format.
func (r *Report) Legal() bool {
	if len(r.NotFound) > 0 {
		return false
	}
	for _, l := range r.Lines {
		if !l.Legal {
			return false
		}
	}
	return true
}

// Illegal returns the lines that are not legal in the report format.
func (r *Report) Illegal() []Line {
	var out []Line
	for _, l := range r.Lines {
		if !l.Legal {
			out = append(out, l)
		}
	}
	return out
}

// Copies sums entry counts per card identity, so reprints of one card in the
// same set collapse into one key.
func (r *Report) Copies() map[card.CardKey]int {
	out := make(map[card.CardKey]int, len(r.Lines))
	for _, l := range r.Lines {
		out[l.Card.Key()] += l.Entry.Count
	}
	return out
}

// Check fetches every entry in order and reports legality in format and the
// USD total. An entry the catalog does not know is recorded in NotFound; any
// other catalog failure aborts the check.
func Check(ctx context.Context, f Fetcher, d *Deck, format string) (*Report, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = d.Format
	}
	if format == "" {
		return nil, errors.New("no format to check against")
	}

	report := &Report{Deck: d.Name, Format: format, Complete: true}
	for _, e := range d.Entries {
		c, err := f.FetchBySetAndNumber(ctx, e.Set, e.Number)
		if err != nil {
			if errors.Is(err, catalogerr.ErrNotFound) {
				report.NotFound = append(report.NotFound, e)
				report.Complete = false
				continue
			}
			return nil, fmt.Errorf("check %s: %w", e, err)
		}

		status, _ := c.Legality(format)
		line := Line{Entry: e, Card: c, Status: status, Legal: c.IsLegal(format)}
		if c.PriceUSD != nil {
			sub := c.PriceUSD.Mul(decimal.NewFromInt(int64(e.Count)))
			line.Subtotal = &sub
			report.Total = report.Total.Add(sub)
		} else {
			report.Complete = false
		}
		report.Lines = append(report.Lines, line)
	}
	return report, nil
}
