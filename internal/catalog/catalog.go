// Package catalog holds the built-in personas shipped with the server.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"mochi-server/internal/model"
)

//go:embed personas.yaml
var builtinYAML []byte

// Catalog is an immutable set of built-in personas keyed by id.
type Catalog struct {
	order []string
	items map[string]model.Persona
}

// Default returns the embedded catalog. It panics only if the embedded file is
// malformed, which the tests guard against.
func Default() *Catalog {
	c, err := Parse(builtinYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded personas: %v", err))
	}
	return c
}

// Parse decodes a YAML list of personas.
func Parse(raw []byte) (*Catalog, error) {
	var entries []model.Persona
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode persona catalog failed: %w", err)
	}

	c := &Catalog{items: make(map[string]model.Persona, len(entries))}
	for _, entry := range entries {
		entry.ID = strings.TrimSpace(entry.ID)
		switch {
		case entry.ID == "":
			return nil, fmt.Errorf("persona %q has no id", entry.Name)
		case model.IsValidID(entry.ID):
			return nil, fmt.Errorf("persona id %q collides with store identifiers", entry.ID)
		}
		if _, dup := c.items[entry.ID]; dup {
			return nil, fmt.Errorf("duplicate persona id %q", entry.ID)
		}
		entry.BuiltIn = true
		entry.IsPublic = true
		entry.OwnerID = ""
		c.items[entry.ID] = entry
		c.order = append(c.order, entry.ID)
	}
	return c, nil
}

// Get returns a copy of the persona with the given key.
func (c *Catalog) Get(id string) (*model.Persona, bool) {
	p, ok := c.items[id]
	if !ok {
		return nil, false
	}
	return clonePersona(p), true
}

// List returns the personas in catalog order.
func (c *Catalog) List() []model.Persona {
	out := make([]model.Persona, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *clonePersona(c.items[id]))
	}
	return out
}

func clonePersona(p model.Persona) *model.Persona {
	p.ForbiddenTopics = append([]string(nil), p.ForbiddenTopics...)
	return &p
}
