// Package entity holds the dictionary of known entity names used for query extraction.
package entity

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Entry is one known entity: its display name and the folded forms it is matched by.
type Entry struct {
	DisplayName string
	// Forms holds the folded display name first, then folded aliases, longest first.
	Forms []string
}

// MultiWord reports whether the display name has more than one word.
func (e Entry) MultiWord() bool {
	return len(strings.Fields(e.DisplayName)) > 1
}

// Dictionary is an immutable, length-descending list of entries.
// Longer names come first so compound names are consumed before their parts.
type Dictionary struct {
	entries []Entry
}

// New builds a dictionary from display names. Blank and duplicate names are dropped.
func New(names []string) *Dictionary {
	aliases := make(map[string][]string, len(names))
	for _, n := range names {
		if _, ok := aliases[n]; !ok {
			aliases[n] = nil
		}
	}
	return NewWithAliases(aliases)
}

// NewWithAliases builds a dictionary from display names mapped to alternative spellings.
func NewWithAliases(names map[string][]string) *Dictionary {
	byForm := make(map[string]int, len(names))
	entries := make([]Entry, 0, len(names))

	// Deterministic order before dedup so the same input always yields the same winner.
	keys := make([]string, 0, len(names))
	for k := range names {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, name := range keys {
		display := strings.Join(strings.Fields(name), " ")
		primary := Fold(display)
		if primary == "" {
			continue
		}

		idx, seen := byForm[primary]
		if !seen {
			idx = len(entries)
			byForm[primary] = idx
			entries = append(entries, Entry{DisplayName: display, Forms: []string{primary}})
		}
		for _, alias := range names[name] {
			if f := Fold(alias); f != "" && !slices.Contains(entries[idx].Forms, f) {
				entries[idx].Forms = append(entries[idx].Forms, f)
			}
		}
	}

	for i := range entries {
		aliases := entries[i].Forms[1:]
		slices.SortStableFunc(aliases, func(a, b string) int {
			return cmp.Compare(utf8.RuneCountInString(b), utf8.RuneCountInString(a))
		})
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		la, lb := utf8.RuneCountInString(a.DisplayName), utf8.RuneCountInString(b.DisplayName)
		if la != lb {
			return cmp.Compare(lb, la)
		}
		return cmp.Compare(a.DisplayName, b.DisplayName)
	})

	return &Dictionary{entries: entries}
}

// Entries returns the sorted entries. Callers must not modify the slice.
func (d *Dictionary) Entries() []Entry {
	if d == nil {
		return nil
	}
	return d.entries
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// DisplayNames returns display names in dictionary order.
func (d *Dictionary) DisplayNames() []string {
	out := make([]string, 0, d.Len())
	for _, e := range d.Entries() {
		out = append(out, e.DisplayName)
	}
	return out
}

// Fold normalizes text for matching: NFKC compatibility mapping, Unicode case folding
// and whitespace collapsing. Full-width Latin and half-width kana fold to their
// canonical forms.
func Fold(s string) string {
	folded := cases.Fold().String(norm.NFKC.String(s))
	return strings.Join(strings.Fields(folded), " ")
}

// LoadError reports an unreadable dictionary or profile source.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
