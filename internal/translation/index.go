// Package translation holds the stat translation table used to turn internal
// quality stat keys into display strings.
package translation

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

// DefaultLanguage is the variant list read from each translation element.
const DefaultLanguage = "English"

// ErrInvalidDocument is returned when the translation document is not a JSON array.
var ErrInvalidDocument = errors.New("translation document is not a JSON array")

// Condition gates a Variant. Only Min takes part in variant selection; Max and
// Negated are kept so the table can be inspected as published.
type Condition struct {
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Negated bool     `json:"negated,omitempty"`
}

// Empty reports whether the condition carries no constraint at all.
func (c Condition) Empty() bool {
	return c.Min == nil && c.Max == nil && !c.Negated
}

// Variant is one candidate display string of an Entry.
type Variant struct {
	Conditions    []Condition `json:"condition"`
	String        string      `json:"string"`
	IndexHandlers []string    `json:"index_handlers"`
}

// Unconditional reports whether the variant applies regardless of value.
// A variant with only empty conditions counts as unconditional.
func (v Variant) Unconditional() bool {
	for _, c := range v.Conditions {
		if !c.Empty() {
			return false
		}
	}
	return true
}

// Entry maps one or more stat keys to their display variants.
type Entry struct {
	IDs      []string  `json:"ids"`
	Variants []Variant `json:"variants"`
}

// Index is an immutable lookup structure over translation entries.
// The zero value and a nil *Index are both valid and empty.
type Index struct {
	entries []Entry
	byID    map[string][]int
}

// New builds an Index from entries, preserving their order. Every variant
// gets at least one index handler slot per id, empty when none was published.
func New(entries []Entry) *Index {
	idx := &Index{
		entries: make([]Entry, len(entries)),
		byID:    make(map[string][]int),
	}
	for i, e := range entries {
		idx.entries[i] = normalize(e)
	}
	for i, e := range idx.entries {
		seen := make(map[string]bool, len(e.IDs))
		for _, id := range e.IDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			idx.byID[id] = append(idx.byID[id], i)
		}
	}
	return idx
}

func normalize(e Entry) Entry {
	out := Entry{
		IDs:      append([]string(nil), e.IDs...),
		Variants: make([]Variant, len(e.Variants)),
	}
	for i, v := range e.Variants {
		handlers := append([]string(nil), v.IndexHandlers...)
		for len(handlers) < len(out.IDs) {
			handlers = append(handlers, "")
		}
		out.Variants[i] = Variant{
			Conditions:    append([]Condition(nil), v.Conditions...),
			String:        v.String,
			IndexHandlers: handlers,
		}
	}
	return out
}

// Load reads a translation document from r.
func Load(r io.Reader) (*Index, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read translations: %w", err)
	}
	return Parse(data)
}

// Parse decodes a translation document using the DefaultLanguage variants.
func Parse(data []byte) (*Index, error) {
	return ParseLanguage(data, DefaultLanguage)
}

// ParseLanguage decodes a translation document, reading the variant list
// stored under lang in every element.
func ParseLanguage(data []byte, lang string) (*Index, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidDocument
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return nil, ErrInvalidDocument
	}

	var entries []Entry
	doc.ForEach(func(_, elem gjson.Result) bool {
		entry := Entry{}
		for _, id := range elem.Get("ids").Array() {
			entry.IDs = append(entry.IDs, id.String())
		}
		for _, v := range elem.Get(gjson.Escape(lang)).Array() {
			entry.Variants = append(entry.Variants, parseVariant(v))
		}
		entries = append(entries, entry)
		return true
	})

	return New(entries), nil
}

func parseVariant(v gjson.Result) Variant {
	variant := Variant{
		String: v.Get("string").String(),
	}
	for _, c := range v.Get("condition").Array() {
		variant.Conditions = append(variant.Conditions, parseCondition(c))
	}
	variant.IndexHandlers = parseHandlers(v.Get("index_handlers"))
	return variant
}

func parseCondition(c gjson.Result) Condition {
	var cond Condition
	if m := c.Get("min"); m.Type == gjson.Number {
		f := m.Float()
		cond.Min = &f
	}
	if m := c.Get("max"); m.Type == gjson.Number {
		f := m.Float()
		cond.Max = &f
	}
	cond.Negated = c.Get("negated").Bool()
	return cond
}

// parseHandlers reads index handlers published either as a flat list or as
// one list per stat id. Per-id lists collapse into one comma-joined slot each.
func parseHandlers(r gjson.Result) []string {
	var out []string
	for _, el := range r.Array() {
		switch {
		case el.IsArray():
			var names []string
			for _, h := range el.Array() {
				names = append(names, h.String())
			}
			out = append(out, strings.Join(names, ","))
		case el.Type == gjson.String:
			out = append(out, el.String())
		}
	}
	return out
}

// FindEntriesForKey returns every entry whose ids contain key, in document
// order. An empty result means no description is available. Callers must not
// modify the returned entries.
func (ix *Index) FindEntriesForKey(key string) []Entry {
	if ix == nil {
		return nil
	}
	positions := ix.byID[key]
	if len(positions) == 0 {
		return nil
	}
	out := make([]Entry, len(positions))
	for i, p := range positions {
		out[i] = ix.entries[p]
	}
	return out
}

// Len returns the number of entries in the index.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.entries)
}
