// Package cards provides the read-only card attribute lookup injected into
// reconstruction. The static card database itself lives outside this module;
// callers hand in whatever mapping they have.
package cards

import "sort"

// Card holds the attributes reconstruction cares about.
type Card struct {
	Name          string
	ColorIdentity []string // WUBRG letters, sorted
}

// Lookup resolves a printed card id (grpId) to its attributes.
type Lookup interface {
	Get(cardID int) (Card, bool)
}

// MapLookup is an in-memory Lookup backed by a plain map.
type MapLookup map[int]Card

// Get implements Lookup.
func (m MapLookup) Get(cardID int) (Card, bool) {
	c, ok := m[cardID]
	return c, ok
}

// wubrg orders color letters canonically.
var wubrg = map[string]int{"W": 0, "U": 1, "B": 2, "R": 3, "G": 4}

// ColorString renders a color set as a canonical WUBRG-ordered string.
// An empty set renders as "C" (colorless).
func ColorString(colors map[string]bool) string {
	if len(colors) == 0 {
		return "C"
	}
	letters := make([]string, 0, len(colors))
	for c := range colors {
		letters = append(letters, c)
	}
	sort.Slice(letters, func(i, j int) bool { return wubrg[letters[i]] < wubrg[letters[j]] })
	out := ""
	for _, l := range letters {
		out += l
	}
	return out
}
