// Package resources maps free-form resource and creature names to canonical
// namespaced identifiers.
package resources

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultNamespace = "minecraft"

// Aliases is the on-disk shape of a resource alias file. Keys are lowercase
// free-form names, values are ids with or without a namespace.
type Aliases struct {
	Namespace string            `yaml:"namespace"`
	Items     map[string]string `yaml:"items"`
	Blocks    map[string]string `yaml:"blocks"`
	Mobs      map[string]string `yaml:"mobs"`
	Craft     map[string]string `yaml:"craft"`
}

// Resolver is immutable once built and safe for concurrent use.
type Resolver struct {
	ns     string
	items  map[string]string
	blocks map[string]string
	mobs   map[string]string
	craft  map[string]string
}

// Default returns a resolver holding only the built-in tables.
func Default() *Resolver {
	r, _ := New(Aliases{})
	return r
}

// New layers the given aliases over the built-in tables.
func New(over Aliases) (*Resolver, error) {
	ns := strings.TrimSuffix(strings.TrimSpace(over.Namespace), ":")
	if ns == "" {
		ns = DefaultNamespace
	}
	if strings.ContainsAny(ns, " :|") {
		return nil, fmt.Errorf("resources: bad namespace %q", over.Namespace)
	}
	r := &Resolver{ns: ns}
	r.items = r.merge(defaultItems, over.Items)
	r.blocks = r.merge(defaultBlocks, over.Blocks)
	r.mobs = r.merge(defaultMobs, over.Mobs)
	r.craft = r.merge(defaultCraft, over.Craft)
	return r, nil
}

// LoadOverrides reads an alias file and builds a resolver from it. An empty
// path yields the defaults.
func LoadOverrides(path string) (*Resolver, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("resources: %w", err)
	}
	var a Aliases
	if err := yaml.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("resources: %s: %w", path, err)
	}
	return New(a)
}

func (r *Resolver) merge(base, over map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		out[k] = r.qualify(v)
	}
	for k, v := range over {
		k = normalize(k)
		if k == "" || strings.TrimSpace(v) == "" {
			continue
		}
		out[k] = r.qualify(strings.ToLower(strings.TrimSpace(v)))
	}
	return out
}

func (r *Resolver) Namespace() string { return r.ns }

func (r *Resolver) qualify(id string) string {
	if strings.Contains(id, ":") {
		return id
	}
	return r.ns + ":" + id
}

// normalize lowercases a name and joins words with underscores.
func normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

func (r *Resolver) lookup(table map[string]string, name string) (string, bool) {
	n := normalize(name)
	if n == "" {
		return "", false
	}
	if v, ok := table[n]; ok {
		return v, true
	}
	if strings.Contains(n, ":") {
		return n, true
	}
	return "", false
}

// Qualify prefixes a bare name with the namespace.
func (r *Resolver) Qualify(name string) string {
	n := normalize(name)
	if n == "" {
		return ""
	}
	return r.qualify(n)
}

// Item resolves an inventory item name, falling back to the namespaced name.
func (r *Resolver) Item(name string) string {
	if v, ok := r.lookup(r.items, name); ok {
		return v
	}
	return r.Qualify(name)
}

func (r *Resolver) Block(name string) string {
	if v, ok := r.lookup(r.blocks, name); ok {
		return v
	}
	return r.Qualify(name)
}

func (r *Resolver) Mob(name string) string {
	if v, ok := r.lookup(r.mobs, name); ok {
		return v
	}
	return r.Qualify(name)
}

// CraftItem has no pass-through fallback: unknown bare names are not craftable.
func (r *Resolver) CraftItem(name string) (string, bool) {
	return r.lookup(r.craft, name)
}
