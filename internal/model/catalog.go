// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Catalog is the set of model identifiers discovered from the host, in the
// order the host reported them. A refresh replaces the catalog wholesale;
// stale entries never survive a failed listing.
type Catalog struct {
	ids []string
}

// NewCatalog creates a catalog from discovered identifiers.
func NewCatalog(ids []string) *Catalog {
	out := make([]string, len(ids))
	copy(out, ids)
	return &Catalog{ids: out}
}

// IDs returns the catalog entries in discovery order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.ids)
}

// IsEmpty reports whether the catalog holds no entries.
func (c *Catalog) IsEmpty() bool {
	return len(c.ids) == 0
}

// Contains reports whether the catalog holds the given identifier.
func (c *Catalog) Contains(id string) bool {
	for _, have := range c.ids {
		if have == id {
			return true
		}
	}
	return false
}

// Preselect picks the initial selection: the preferred identifier when the
// catalog contains it, otherwise the first entry, otherwise "".
func (c *Catalog) Preselect(preferred string) string {
	if preferred != "" && c.Contains(preferred) {
		return preferred
	}
	if len(c.ids) > 0 {
		return c.ids[0]
	}
	return ""
}

// Next returns the entry after current, wrapping around. With an empty
// catalog it returns ""; with an unknown current it returns the first entry.
func (c *Catalog) Next(current string) string {
	if len(c.ids) == 0 {
		return ""
	}
	for i, have := range c.ids {
		if have == current {
			return c.ids[(i+1)%len(c.ids)]
		}
	}
	return c.ids[0]
}
