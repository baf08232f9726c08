// Package validator checks saved catalog responses and deck lists offline.
package validator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/arcanaland/scrymancer/internal/card"
	"github.com/arcanaland/scrymancer/internal/deck"
)

type ValidationResults struct {
	Errors   []string
	Warnings []string

	Cards int
	Sets  int
}

type Validator struct {
	Path    string
	Results ValidationResults
}

func NewValidator(path string) *Validator {
	return &Validator{
		Path:    path,
		Results: ValidationResults{},
	}
}

// Validate checks the file at Path. Deck lists (.toml) are loaded as decks;
// anything else is treated as a saved JSON response, either one record or a
// list page. The error is non-nil only when the file cannot be read.
func (v *Validator) Validate() (ValidationResults, error) {
	content, err := os.ReadFile(v.Path)
	if err != nil {
		return v.Results, fmt.Errorf("error reading %s: %v", v.Path, err)
	}

	if strings.EqualFold(filepath.Ext(v.Path), ".toml") {
		v.validateDeckList()
		return v.Results, nil
	}

	v.validateDocument(content)
	return v.Results, nil
}

func (v *Validator) errorf(format string, args ...any) {
	v.Results.Errors = append(v.Results.Errors, fmt.Sprintf(format, args...))
}

func (v *Validator) warnf(format string, args ...any) {
	v.Results.Warnings = append(v.Results.Warnings, fmt.Sprintf(format, args...))
}

func (v *Validator) validateDeckList() {
	d, err := deck.LoadDeck(v.Path)
	if err != nil {
		v.errorf("%v", err)
		return
	}
	if d.Name == "" {
		v.warnf("deck.name is not set")
	}
	if d.Format == "" {
		v.warnf("deck.format is not set; the configured format will be used")
	}
	seen := make(map[string]bool, len(d.Entries))
	for _, e := range d.Entries {
		key := fmt.Sprintf("%s/%d", e.Set, e.Number)
		if seen[key] {
			v.warnf("%s is listed more than once", key)
		}
		seen[key] = true
	}
	v.Results.Cards = d.Size()
}

func (v *Validator) validateDocument(content []byte) {
	if !utf8.Valid(content) {
		v.errorf("file is not valid UTF-8")
		return
	}

	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()
	var root any
	if err := dec.Decode(&root); err != nil {
		v.errorf("file is not valid JSON: %v", err)
		return
	}
	if dec.More() {
		v.errorf("file has trailing data after the JSON document")
		return
	}

	doc, ok := root.(map[string]any)
	if !ok {
		v.errorf("root is %T, not a JSON object", root)
		return
	}

	switch object, _ := doc["object"].(string); object {
	case "error":
		details, _ := doc["details"].(string)
		v.errorf("document is an error response: %s", details)
	case "list":
		v.validateList(doc)
	case "card":
		v.validateCard("card", doc)
	case "set":
		v.validateSet("set", doc)
	default:
		if _, ok := doc["data"]; ok {
			v.validateList(doc)
			return
		}
		if object == "" {
			v.warnf("document has no object type; checking it as a card")
		} else {
			v.warnf("unknown object type %q; checking it as a card", object)
		}
		v.validateCard("card", doc)
	}
}

func (v *Validator) validateList(doc map[string]any) {
	data, ok := doc["data"].([]any)
	if !ok {
		v.errorf("list has no data array")
		return
	}

	if more, present := doc["has_more"]; present && more != nil {
		hasMore, ok := more.(bool)
		switch {
		case !ok:
			v.errorf("has_more is %T, not a boolean", more)
		case hasMore:
			if next, _ := doc["next_page"].(string); next == "" {
				v.errorf("has_more is set without a next_page URL")
			} else {
				v.warnf("listing continues at %s; only the first page was saved", next)
			}
		}
	}

	seen := make(map[card.CardKey]int)
	for i, item := range data {
		rec, ok := item.(map[string]any)
		if !ok {
			v.errorf("data[%d] is %T, not an object", i, item)
			continue
		}
		label := fmt.Sprintf("data[%d]", i)
		if object, _ := rec["object"].(string); object == "set" {
			v.validateSet(label, rec)
			continue
		}

		c := v.validateCard(label, rec)
		if first, dup := seen[c.Key()]; dup {
			v.warnf("%s duplicates data[%d] (%s)", label, first, c)
		} else {
			seen[c.Key()] = i
		}
	}
}

func (v *Validator) validateCard(label string, rec map[string]any) card.Card {
	c := card.MapCard(rec)
	v.Results.Cards++
	if c.Name == nil {
		v.warnf("%s: card has no name", label)
	}
	if c.SetCode == nil {
		v.warnf("%s: card has no set code", label)
	}
	for _, issue := range c.Issues() {
		v.warnf("%s (%s): %v", label, c, issue)
	}
	return c
}

func (v *Validator) validateSet(label string, rec map[string]any) {
	s := card.MapSet(rec)
	v.Results.Sets++
	if s.Code == nil {
		v.warnf("%s: set has no code", label)
	}
	for _, issue := range s.Issues() {
		v.warnf("%s (%s): %v", label, s, issue)
	}
}
