package cards

import (
	"os"
	"path/filepath"
	"testing"
)

func TestColorString(t *testing.T) {
	tests := []struct {
		name   string
		colors map[string]bool
		want   string
	}{
		{"empty set is colorless", nil, "C"},
		{"single color", map[string]bool{"G": true}, "G"},
		{"canonical order", map[string]bool{"G": true, "U": true, "W": true}, "WUG"},
		{"all five", map[string]bool{"B": true, "G": true, "R": true, "U": true, "W": true}, "WUBRG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ColorString(tt.colors); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestMapLookup(t *testing.T) {
	lookup := MapLookup{7: {Name: "Llanowar Elves", ColorIdentity: []string{"G"}}}

	card, ok := lookup.Get(7)
	if !ok || card.Name != "Llanowar Elves" {
		t.Errorf("expected hit for 7, got %v %v", card, ok)
	}
	if _, ok := lookup.Get(8); ok {
		t.Error("expected miss for 8")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.json")
	content := `{"7":{"name":"Llanowar Elves","color_identity":["G"]},"42":{"name":"Counterspell","color_identity":["U"]}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write card db: %v", err)
	}

	lookup, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if len(lookup) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(lookup))
	}
	card, ok := lookup.Get(42)
	if !ok || card.Name != "Counterspell" || card.ColorIdentity[0] != "U" {
		t.Errorf("unexpected card: %v %v", card, ok)
	}
}

func TestLoadFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
			t.Error("expected an error")
		}
	})
	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cards.json")
		os.WriteFile(path, []byte("{"), 0o644)
		if _, err := LoadFile(path); err == nil {
			t.Error("expected an error")
		}
	})
	t.Run("non-numeric key", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cards.json")
		os.WriteFile(path, []byte(`{"abc":{"name":"x"}}`), 0o644)
		if _, err := LoadFile(path); err == nil {
			t.Error("expected an error")
		}
	})
}
