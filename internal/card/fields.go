package card

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/constraints"

	"github.com/arcanaland/scrymancer/internal/catalogerr"
)

// record is one raw JSON object as decoded into map[string]any.
type record map[string]any

// issues collects non-fatal mapping problems for one record.
type issues []error

func (is *issues) add(err error) {
	*is = append(*is, err)
}

// value returns the value under key; ok is false for absent keys and nulls.
func (r record) value(key string) (any, bool) {
	v, ok := r[key]
	return v, ok && v != nil
}

func (r record) has(key string) bool {
	_, ok := r.value(key)
	return ok
}

func (r record) object(key string) (record, bool) {
	obj, ok := r[key].(map[string]any)
	return record(obj), ok
}

func (r record) str(key string, is *issues) *string {
	return stringValue(key, r[key], is)
}

func stringValue(field string, v any, is *issues) *string {
	if v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		is.add(catalogerr.MalformedField(field, "expected string, got %T", v))
		return nil
	}
	return &s
}

// flag reads a boolean; absent keys read as false.
func (r record) flag(key string, is *issues) bool {
	v, ok := r.value(key)
	if !ok {
		return false
	}
	b, ok := v.(bool)
	if !ok {
		is.add(catalogerr.MalformedField(key, "expected boolean, got %T", v))
	}
	return b
}

// strings reads an array of strings. Absent keys read as nil, an empty array
// as an empty slice. Non-string entries are dropped and reported.
func (r record) strings(key string, is *issues) []string {
	v, ok := r.value(key)
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		is.add(catalogerr.MalformedField(key, "expected array, got %T", v))
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, it := range arr {
		s, ok := it.(string)
		if !ok {
			is.add(catalogerr.MalformedField(key, "expected string entry, got %T", it))
			continue
		}
		out = append(out, s)
	}
	return out
}

// number reads a numeric field transmitted either as a JSON number or as a
// numeric string.
func number[T constraints.Integer | constraints.Float](r record, key string, is *issues) *T {
	return numberValue[T](key, r[key], is)
}

func numberValue[T constraints.Integer | constraints.Float](field string, v any, is *issues) *T {
	var f float64
	switch n := v.(type) {
	case nil:
		return nil
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			is.add(catalogerr.MalformedField(field, "%q is not a number", n.String()))
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			is.add(catalogerr.MalformedField(field, "%q is not a number", n))
			return nil
		}
		f = parsed
	default:
		is.add(catalogerr.MalformedField(field, "expected number, got %T", v))
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		is.add(catalogerr.MalformedField(field, "%v is not a finite number", f))
		return nil
	}
	out := T(f)
	if float64(out) != f {
		is.add(catalogerr.MalformedField(field, "%v is out of range", f))
		return nil
	}
	return &out
}

// price reads a monetary amount. Amounts arrive as strings ("0.25"); native
// numbers are accepted too.
func price(field string, v any, is *issues) *decimal.Decimal {
	var (
		d   decimal.Decimal
		err error
	)
	switch p := v.(type) {
	case nil:
		return nil
	case string:
		d, err = decimal.NewFromString(strings.TrimSpace(p))
		if err != nil {
			is.add(catalogerr.MalformedField(field, "%q is not a price", p))
			return nil
		}
	case float64:
		d = decimal.NewFromFloat(p)
	case json.Number:
		d, err = decimal.NewFromString(p.String())
		if err != nil {
			is.add(catalogerr.MalformedField(field, "%q is not a price", p.String()))
			return nil
		}
	default:
		is.add(catalogerr.MalformedField(field, "expected price string, got %T", v))
		return nil
	}
	return &d
}
