// Package catalog tracks the mapping from table/index names to their
// B-tree root pages. A real schema layer (column definitions, SQL text)
// is out of scope for this engine — see spec.md's Non-goals — but every
// forest still needs a directory from name to root page, and that
// directory benefits from prefix lookups (listing every index on a table,
// say "orders_*"), which is what a radix tree is for.
package catalog

import (
	"sync"

	"github.com/armon/go-radix"

	"github.com/furrow-db/furrowdb/internal/dberr"
)

// Kind distinguishes a table root from an index root.
type Kind int

const (
	Table Kind = iota
	Index
)

// Entry is one catalog record: a name bound to a root page and its kind.
type Entry struct {
	Name     string
	RootPage uint32
	Kind     Kind
}

// Catalog is a concurrency-safe name → Entry directory backed by a radix
// tree, which makes prefix scans (WalkPrefix) cheap without a full
// iteration.
type Catalog struct {
	mu   sync.RWMutex
	tree *radix.Tree
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{tree: radix.New()}
}

// Register binds name to rootPage. It overwrites any existing entry for
// the same name.
func (c *Catalog) Register(name string, rootPage uint32, kind Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tree.Insert(name, Entry{Name: name, RootPage: rootPage, Kind: kind})
}

// Lookup returns the entry registered for name.
func (c *Catalog) Lookup(name string) (Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.tree.Get(name)
	if !ok {
		return Entry{}, dberr.New("catalog.Lookup", dberr.NotFound)
	}
	return v.(Entry), nil
}

// Remove deletes the entry registered for name, if any.
func (c *Catalog) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tree.Delete(name)
}

// WalkPrefix calls fn for every entry whose name starts with prefix, in
// lexical order. Returning a non-nil error from fn stops the walk early
// and WalkPrefix returns that error.
func (c *Catalog) WalkPrefix(prefix string, fn func(Entry) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var walkErr error
	c.tree.WalkPrefix(prefix, func(_ string, v interface{}) bool {
		if err := fn(v.(Entry)); err != nil {
			walkErr = err
			return true
		}
		return false
	})
	return walkErr
}

// Len returns the number of registered entries.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tree.Len()
}
