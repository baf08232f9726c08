package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/arcanaland/scrymancer/internal/catalogerr"
)

// DefaultBaseURL is the catalog service endpoint.
const DefaultBaseURL = "https://api.scryfall.com"

var (
	uniqueModes   = sets.New("cards", "art", "prints")
	sortOrders    = sets.New("name", "set", "released", "rarity", "color", "usd", "tix", "eur", "cmc", "power", "toughness", "edhrec", "artist")
	sortDirs      = sets.New("auto", "asc", "desc")
	imageVersions = sets.New("small", "normal", "large", "png", "art_crop", "border_crop")
)

// SearchOptions narrows a full-text search. Zero values leave the service
// defaults in place.
type SearchOptions struct {
	Unique        string // cards | art | prints
	Order         string
	Dir           string // auto | asc | desc
	IncludeExtras bool
}

func (o SearchOptions) validate() error {
	switch {
	case o.Unique != "" && !uniqueModes.Has(o.Unique):
		return catalogerr.InvalidQuery("search", "unknown unique mode %q (valid: %s)", o.Unique, strings.Join(sets.List(uniqueModes), ", "))
	case o.Order != "" && !sortOrders.Has(o.Order):
		return catalogerr.InvalidQuery("search", "unknown order %q (valid: %s)", o.Order, strings.Join(sets.List(sortOrders), ", "))
	case o.Dir != "" && !sortDirs.Has(o.Dir):
		return catalogerr.InvalidQuery("search", "unknown direction %q (valid: %s)", o.Dir, strings.Join(sets.List(sortDirs), ", "))
	}
	return nil
}

// QueryBuilder produces fully qualified request URLs against one base endpoint.
// Every method validates its input before anything touches the network.
type QueryBuilder struct {
	base string
}

// NewQueryBuilder validates base and returns a builder for it.
func NewQueryBuilder(base string) (QueryBuilder, error) {
	u, err := url.Parse(base)
	if err != nil {
		return QueryBuilder{}, catalogerr.Wrap(catalogerr.KindInvalidQuery, "base url", base, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return QueryBuilder{}, catalogerr.InvalidQuery("base url", "%q is not an absolute http(s) URL", base)
	}
	return QueryBuilder{base: strings.TrimRight(base, "/")}, nil
}

// Base returns the endpoint the builder targets.
func (q QueryBuilder) Base() string {
	return q.base
}

// Search builds a full-text search URL. The query text is percent-encoded.
func (q QueryBuilder) Search(text string, opts SearchOptions) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", catalogerr.InvalidQuery("search", "query text is empty")
	}
	if err := opts.validate(); err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("q", text)
	if opts.Unique != "" {
		params.Set("unique", opts.Unique)
	}
	if opts.Order != "" {
		params.Set("order", opts.Order)
	}
	if opts.Dir != "" {
		params.Set("dir", opts.Dir)
	}
	if opts.IncludeExtras {
		params.Set("include_extras", "true")
	}
	return q.base + "/cards/search?" + params.Encode(), nil
}

// Multiverse builds the lookup URL for a multiverse id.
func (q QueryBuilder) Multiverse(id int) (string, error) {
	if id <= 0 {
		return "", catalogerr.InvalidQuery("multiverse lookup", "id must be positive, got %d", id)
	}
	return q.base + "/cards/multiverse/" + strconv.Itoa(id), nil
}

// SetNumber builds the lookup URL for a set code and collector number.
func (q QueryBuilder) SetNumber(setCode string, number int) (string, error) {
	setCode = strings.TrimSpace(setCode)
	if setCode == "" {
		return "", catalogerr.InvalidQuery("set lookup", "set code is empty")
	}
	if number <= 0 {
		return "", catalogerr.InvalidQuery("set lookup", "collector number must be positive, got %d", number)
	}
	return fmt.Sprintf("%s/cards/%s/%d", q.base, url.PathEscape(strings.ToLower(setCode)), number), nil
}

// ByID builds the lookup URL for a catalog identifier.
func (q QueryBuilder) ByID(id string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", catalogerr.Wrap(catalogerr.KindInvalidQuery, "id lookup", fmt.Sprintf("%q is not a catalog id", id), err)
	}
	return q.base + "/cards/" + parsed.String(), nil
}

// Sets builds the set listing URL.
func (q QueryBuilder) Sets() string {
	return q.base + "/sets"
}

// Image turns a single-card lookup URL into a direct image URL.
func (q QueryBuilder) Image(cardURL, version string) (string, error) {
	if version == "" {
		version = "normal"
	}
	if !imageVersions.Has(version) {
		return "", catalogerr.InvalidQuery("image", "unknown image version %q (valid: %s)", version, strings.Join(sets.List(imageVersions), ", "))
	}
	u, err := url.Parse(cardURL)
	if err != nil || u.Host == "" {
		return "", catalogerr.InvalidQuery("image", "%q is not a card URL", cardURL)
	}
	params := u.Query()
	params.Set("format", "image")
	params.Set("version", version)
	u.RawQuery = params.Encode()
	return u.String(), nil
}
