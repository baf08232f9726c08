package card

import (
	"github.com/arcanaland/scrymancer/internal/catalogerr"
)

var referenceFields = [...]string{"name", "uri", "id"}

// ResolveParts builds one CardReference per entry of a record's related-parts
// array, preserving order. Entries missing a field produce a reference with
// that field nil plus a ReferenceIncomplete issue; the rest of the list is
// still built. No network access happens here.
func ResolveParts(entries []any) ([]CardReference, []error) {
	if len(entries) == 0 {
		return nil, nil
	}

	refs := make([]CardReference, 0, len(entries))
	var is issues
	for i, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			is.add(catalogerr.MalformedField("all_parts", "entry %d: expected object, got %T", i, entry))
			for _, f := range referenceFields {
				is.add(catalogerr.ReferenceIncomplete(i, f))
			}
			refs = append(refs, CardReference{})
			continue
		}
		refs = append(refs, resolveReference(i, record(obj), &is))
	}
	return refs, is
}

func resolveReference(i int, r record, is *issues) CardReference {
	ref := CardReference{
		Name: stringValue("all_parts.name", r["name"], is),
		URI:  stringValue("all_parts.uri", r["uri"], is),
		ID:   stringValue("all_parts.id", r["id"], is),
	}
	if ref.Name == nil {
		is.add(catalogerr.ReferenceIncomplete(i, "name"))
	}
	if ref.URI == nil {
		is.add(catalogerr.ReferenceIncomplete(i, "uri"))
	}
	if ref.ID == nil {
		is.add(catalogerr.ReferenceIncomplete(i, "id"))
	}
	return ref
}
