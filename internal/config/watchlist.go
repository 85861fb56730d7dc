package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Channel is one tracked entry in the watchlist file.
type Channel struct {
	// ID is the YouTube channel ID (UC...).
	ID string `yaml:"id"`

	// Name is an optional display label for reports.
	Name string `yaml:"name,omitempty"`
}

// Watchlist is the YAML document listing channels to scan.
type Watchlist struct {
	Channels []Channel `yaml:"channels"`
}

// LoadWatchlist reads and validates a watchlist file.
func LoadWatchlist(path string) (*Watchlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}

	var list Watchlist
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse watchlist: %w", err)
	}

	for i, ch := range list.Channels {
		if ch.ID == "" {
			return nil, fmt.Errorf("watchlist entry %d: missing channel id", i)
		}
	}

	return &list, nil
}

// IDs returns the channel IDs in file order.
func (w *Watchlist) IDs() []string {
	ids := make([]string, len(w.Channels))
	for i, ch := range w.Channels {
		ids[i] = ch.ID
	}
	return ids
}

// NameOf returns the display label for a channel ID, falling back to the
// ID itself.
func (w *Watchlist) NameOf(id string) string {
	for _, ch := range w.Channels {
		if ch.ID == id && ch.Name != "" {
			return ch.Name
		}
	}
	return id
}
