package kit

import (
	"maps"
	"slices"
)

// Item is one built inventory entry.
type Item struct {
	Material   Material            `json:"type"`
	Count      int                 `json:"count"`
	Durability int                 `json:"durability,omitempty"`
	Enchants   map[Enchantment]int `json:"enchants,omitempty"`
	Color      *Color              `json:"color,omitempty"`
	Name       string              `json:"name,omitempty"`
	Lore       []string            `json:"lore,omitempty"`
}

// Clone returns a deep copy of it.
func (it Item) Clone() Item {
	out := it
	if it.Enchants != nil {
		out.Enchants = maps.Clone(it.Enchants)
	}
	if it.Color != nil {
		c := *it.Color
		out.Color = &c
	}
	out.Lore = slices.Clone(it.Lore)
	return out
}

// Kit is a named loadout handed to a player.
type Kit struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// Clone returns a deep copy of k.
func (k Kit) Clone() Kit {
	out := Kit{Name: k.Name, Items: make([]Item, len(k.Items))}
	for i, it := range k.Items {
		out.Items[i] = it.Clone()
	}
	return out
}
