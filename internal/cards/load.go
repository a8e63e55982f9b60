package cards

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// cardJSON is the on-disk shape of one card attribute entry.
type cardJSON struct {
	Name          string   `json:"name"`
	ColorIdentity []string `json:"color_identity"`
}

// LoadFile reads a JSON card-attribute dump of the form
// {"<card id>": {"name": …, "color_identity": […]}, …} into a MapLookup.
func LoadFile(path string) (MapLookup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read card db: %w", err)
	}
	var raw map[string]cardJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode card db: %w", err)
	}
	lookup := make(MapLookup, len(raw))
	for key, entry := range raw {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("card db key %q: %w", key, err)
		}
		lookup[id] = Card{Name: entry.Name, ColorIdentity: entry.ColorIdentity}
	}
	return lookup, nil
}
