package card

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/arcanaland/scrymancer/internal/catalogerr"
)

// MapCard converts one raw JSON record into a Card. It never fails: missing or
// null keys leave the field nil, and fields that are present but cannot be
// parsed are left nil and reported through Card.Issues.
//
// The record layout of the original catalog API is read first; the keys the
// service uses today are used as fallbacks when the original key is absent.
func MapCard(raw map[string]any) Card {
	r := record(raw)
	var is issues

	c := Card{
		Name:            r.str("name", &is),
		ManaCost:        r.str("mana_cost", &is),
		TypeLine:        r.str("type_line", &is),
		OracleText:      r.str("oracle_text", &is),
		Colors:          r.strings("colors", &is),
		ColorIdentity:   r.strings("color_identity", &is),
		Layout:          r.str("layout", &is),
		Reserved:        r.flag("reserved", &is),
		ID:              r.str("id", &is),
		MTGOID:          number[int](r, "mtgo_id", &is),
		SetCode:         r.str("set", &is),
		SetName:         r.str("set_name", &is),
		CollectorNumber: r.str("collector_number", &is),
		Rarity:          r.str("rarity", &is),
		Digital:         r.flag("digital", &is),
		FlavorText:      r.str("flavor_text", &is),
		Artist:          r.str("artist", &is),
		Frame:           r.str("frame", &is),
		BorderColor:     r.str("border_color", &is),
		TimeShifted:     r.flag("timeshifted", &is),
		ColorShifted:    r.flag("colorshifted", &is),
		FutureShifted:   r.flag("futureshifted", &is),
		URI:             r.str("uri", &is),
	}

	if r.has("converted_mana_cost") {
		c.CMC = number[float64](r, "converted_mana_cost", &is)
	} else {
		c.CMC = number[float64](r, "cmc", &is)
	}

	c.MultiverseID = multiverseID(r, &is)
	c.PriceUSD, c.PriceTix = prices(r, &is)
	c.ImageURI = imageURI(r, &is)
	c.legalities = legalities(r, &is)
	c.parts = parts(r, &is)

	c.issues = is
	return c
}

// MapSet converts one raw set record into a Set.
func MapSet(raw map[string]any) Set {
	r := record(raw)
	var is issues

	s := Set{
		Code: r.str("code", &is),
		Name: r.str("name", &is),
	}
	if r.has("set") {
		s.Type = r.str("set", &is)
	} else {
		s.Type = r.str("set_type", &is)
	}

	if released := r.str("released_at", &is); released != nil {
		t, err := time.Parse(time.DateOnly, *released)
		if err != nil {
			is.add(catalogerr.MalformedField("released_at", "%q is not a yyyy-MM-dd date", *released))
		} else {
			s.Released = &t
		}
	}

	s.issues = is
	return s
}

func multiverseID(r record, is *issues) *int {
	if r.has("multiverse_id") {
		return number[int](r, "multiverse_id", is)
	}
	ids, ok := r["multiverse_ids"].([]any)
	if !ok || len(ids) == 0 {
		return nil
	}
	return numberValue[int]("multiverse_ids[0]", ids[0], is)
}

func prices(r record, is *issues) (usd, tix *decimal.Decimal) {
	nested, hasNested := r.object("prices")

	if v, ok := r.value("usd"); ok {
		usd = price("usd", v, is)
	} else if hasNested {
		usd = price("prices.usd", nested["usd"], is)
	}

	if v, ok := r.value("tix"); ok {
		tix = price("tix", v, is)
	} else if hasNested {
		tix = price("prices.tix", nested["tix"], is)
	}
	return usd, tix
}

func imageURI(r record, is *issues) *string {
	if r.has("image_uri") {
		return r.str("image_uri", is)
	}
	uris, ok := r.object("image_uris")
	if !ok {
		return nil
	}
	return stringValue("image_uris.normal", uris["normal"], is)
}

func legalities(r record, is *issues) Legalities {
	v, ok := r.value("legalities")
	if !ok {
		return Legalities{}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		is.add(catalogerr.MalformedField("legalities", "expected object, got %T", v))
		return Legalities{}
	}

	entries := make(map[string]string, len(obj))
	for format, status := range obj {
		s, ok := status.(string)
		if !ok {
			is.add(catalogerr.MalformedField("legalities."+format, "expected string, got %T", status))
			continue
		}
		entries[format] = s
	}
	return NewLegalities(entries)
}

// parts hands a non-empty related-parts array to the resolver. An absent or
// empty array leaves the card single-part with a nil reference list.
func parts(r record, is *issues) []CardReference {
	v, ok := r.value("all_parts")
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		is.add(catalogerr.MalformedField("all_parts", "expected array, got %T", v))
		return nil
	}
	if len(arr) == 0 {
		return nil
	}

	refs, refIssues := ResolveParts(arr)
	for _, err := range refIssues {
		is.add(err)
	}
	return refs
}
