// Package presence maps each connected identity to its current connection.
package presence

import (
	"sync"

	"github.com/mossy-p/callrelay/internal/models"
)

// Directory holds at most one endpoint per identity. The newest connection for
// an identity wins.
type Directory struct {
	mu      sync.RWMutex
	entries map[string]models.Endpoint
}

func NewDirectory() *Directory {
	return &Directory{entries: make(map[string]models.Endpoint)}
}

// Lookup returns the live endpoint for id.
func (d *Directory) Lookup(id models.Identity) (models.Endpoint, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ep, ok := d.entries[id.Key()]
	return ep, ok
}

// Set points id at ep and returns the endpoint it replaced, if any.
func (d *Directory) Set(id models.Identity, ep models.Endpoint) (models.Endpoint, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev, ok := d.entries[id.Key()]
	d.entries[id.Key()] = ep
	return prev, ok
}

// Delete removes the entry for id only while it still points at ep, so a late
// disconnect from a replaced connection cannot evict its successor.
func (d *Directory) Delete(id models.Identity, ep models.Endpoint) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	cur, ok := d.entries[id.Key()]
	if !ok || cur.ID() != ep.ID() {
		return false
	}
	delete(d.entries, id.Key())
	return true
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}
