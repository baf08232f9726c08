// Package card holds the typed catalog records and the mapping from raw JSON
// records into them.
package card

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Card represents one printing of one card face. Transforming and meld cards
// have one Card per face, cross-referenced through Parts.
//
// Nullable scalars are pointers: a nil field means the record did not carry
// the key (or carried null), which is distinct from a zero value.
type Card struct {
	Name            *string
	ManaCost        *string
	CMC             *float64
	TypeLine        *string
	OracleText      *string
	Colors          []string
	ColorIdentity   []string
	Layout          *string
	Reserved        bool
	ID              *string // catalog identifier
	MultiverseID    *int
	MTGOID          *int
	SetCode         *string
	SetName         *string
	CollectorNumber *string
	Rarity          *string
	Digital         bool
	FlavorText      *string
	Artist          *string
	Frame           *string
	BorderColor     *string
	TimeShifted     bool
	ColorShifted    bool
	FutureShifted   bool
	PriceUSD        *decimal.Decimal
	PriceTix        *decimal.Decimal
	URI             *string // canonical detail URL
	ImageURI        *string

	legalities Legalities
	parts      []CardReference
	issues     []error
}

// CardKey is the identity of a Card: two cards with the same name and set code
// are the same entity. It is comparable and can be used as a map key.
type CardKey struct {
	Name    string
	SetCode string
}

// CardReference points at a sibling printing of a multi-part card. It never
// owns the sibling; dereferencing it is a separate fetch.
type CardReference struct {
	Name *string
	URI  *string
	ID   *string
}

// Key returns the identity of the card.
func (c Card) Key() CardKey {
	return CardKey{Name: Deref(c.Name), SetCode: Deref(c.SetCode)}
}

// Equal reports whether both cards have the same name and set code.
func (c Card) Equal(other Card) bool {
	return c.Key() == other.Key()
}

// Legality returns the status string for format. The lookup is case
// insensitive; ok is false when the record carried no entry for the format.
func (c Card) Legality(format string) (status string, ok bool) {
	return c.legalities.Lookup(format)
}

// IsLegal reports whether the card is strictly legal in format. Restricted,
// banned, not_legal and missing entries all report false.
func (c Card) IsLegal(format string) bool {
	return c.legalities.IsLegal(format)
}

// Legalities returns the card's legality table.
func (c Card) Legalities() Legalities {
	return c.legalities
}

// IsMultiPart reports whether the card references sibling parts.
func (c Card) IsMultiPart() bool {
	return len(c.parts) > 0
}

// Parts returns the references to every part of a multi-part card, in the
// order the record listed them. It is nil when IsMultiPart is false.
func (c Card) Parts() []CardReference {
	if len(c.parts) == 0 {
		return nil
	}
	return slices.Clone(c.parts)
}

// Issues returns the non-fatal problems recorded while mapping the record.
func (c Card) Issues() []error {
	return slices.Clone(c.issues)
}

func (c Card) String() string {
	return fmt.Sprintf("%s (%s)", Deref(c.Name), strings.ToUpper(Deref(c.SetCode)))
}

// Set is a release grouping of cards.
type Set struct {
	Code     *string
	Name     *string
	Type     *string
	Released *time.Time

	issues []error
}

// Issues returns the non-fatal problems recorded while mapping the record.
func (s Set) Issues() []error {
	return slices.Clone(s.issues)
}

func (s Set) String() string {
	return fmt.Sprintf("%s (%s)", Deref(s.Name), strings.ToUpper(Deref(s.Code)))
}

// Legalities maps format names to legality status strings. Keys are stored
// lowercased so that lookups are case insensitive.
type Legalities struct {
	m map[string]string
}

// NewLegalities builds a table from format -> status pairs.
func NewLegalities(entries map[string]string) Legalities {
	if len(entries) == 0 {
		return Legalities{}
	}
	m := make(map[string]string, len(entries))
	for format, status := range entries {
		m[strings.ToLower(format)] = status
	}
	return Legalities{m: m}
}

// Lookup returns the status for format, if the table has one.
func (l Legalities) Lookup(format string) (string, bool) {
	status, ok := l.m[strings.ToLower(format)]
	return status, ok
}

// IsLegal reports whether format has the exact status "legal".
func (l Legalities) IsLegal(format string) bool {
	status, ok := l.Lookup(format)
	return ok && status == "legal"
}

// Formats returns the known format names in sorted order.
func (l Legalities) Formats() []string {
	formats := make([]string, 0, len(l.m))
	for f := range l.m {
		formats = append(formats, f)
	}
	slices.Sort(formats)
	return formats
}

// Len returns the number of formats in the table.
func (l Legalities) Len() int {
	return len(l.m)
}

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
