// seehuhn.de/go/pdfview - a PDF viewer with freehand annotations
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package bitmapcache keeps a bounded number of rasterised pages.
//
// Entries are keyed by document, page and quantised scale (see
// [seehuhn.de/go/pdfview/layout.Bucket]), so that a continuous zoom gesture
// only creates a few distinct entries.  When the cache is full, the entry
// which was touched least recently is evicted.
package bitmapcache

import (
	"fmt"
	"image"
	"sync"
)

// DefaultCapacity is the number of bitmaps kept by default.
const DefaultCapacity = 12

// Key identifies a cached bitmap.
type Key struct {
	Document string
	Page     int // 1-based
	Bucket   int // quantised rasterisation scale
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%d|%d", k.Document, k.Page, k.Bucket)
}

// Entry is a rasterised page.
type Entry struct {
	Bitmap *image.RGBA

	// DisplayWidth and DisplayHeight give the size, in display pixels, the
	// page had when the bitmap was requested.
	DisplayWidth, DisplayHeight float64

	// QualityScale is the rasterisation scale actually used, after the
	// device pixel ratio and the megapixel budget were applied.
	QualityScale float64
}

// Stats summarises the cache activity.
type Stats struct {
	Len       int
	Capacity  int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// Cache is an LRU cache of rasterised pages.
// It is safe for concurrent use.
type Cache struct {
	mu          sync.Mutex
	capacity    int
	entries     map[Key]*cacheEntry
	first, last *cacheEntry
	onEvict     func(Key, *Entry)

	hits, misses, evictions uint64
}

type cacheEntry struct {
	prev, next *cacheEntry
	key        Key
	val        *Entry
}

// Option configures a Cache.
type Option func(*Cache)

// WithEvict registers a function which is called for every entry leaving
// the cache, either because of capacity pressure or because it was
// replaced.  The function is called without the cache lock held.
func WithEvict(fn func(Key, *Entry)) Option {
	return func(c *Cache) {
		c.onEvict = fn
	}
}

// New returns a cache holding at most capacity entries.
// If capacity is not positive, [DefaultCapacity] is used.
func New(capacity int, opts ...Option) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c := &Cache{
		capacity: capacity,
		entries:  make(map[Key]*cacheEntry, capacity+1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the entry for key and marks it as recently used.
func (c *Cache) Get(key Key) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.moveToFront(ent)
	return ent.val, true
}

// Set stores an entry.  If the cache grows beyond its capacity, the least
// recently used entries are removed.
func (c *Cache) Set(key Key, val *Entry) {
	var dropped []*cacheEntry

	c.mu.Lock()
	if ent, ok := c.entries[key]; ok {
		if ent.val != val {
			dropped = append(dropped, &cacheEntry{key: key, val: ent.val})
		}
		ent.val = val
		c.moveToFront(ent)
	} else {
		ent := &cacheEntry{key: key, val: val}
		c.entries[key] = ent
		c.moveToFront(ent)
		for len(c.entries) > c.capacity {
			dropped = append(dropped, c.removeLast())
			c.evictions++
		}
	}
	onEvict := c.onEvict
	c.mu.Unlock()

	if onEvict != nil {
		for _, ent := range dropped {
			onEvict(ent.key, ent.val)
		}
	}
}

// BestAvailable returns the entry with the highest quality scale among all
// cached bitmaps for the given page.  The entry found is marked as recently
// used.  This takes time proportional to the number of cached entries.
func (c *Cache) BestAvailable(doc string, page int) (Key, *Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var best *cacheEntry
	for ent := c.first; ent != nil; ent = ent.next {
		if ent.key.Document != doc || ent.key.Page != page {
			continue
		}
		if best == nil || ent.val.QualityScale > best.val.QualityScale {
			best = ent
		}
	}
	if best == nil {
		return Key{}, nil, false
	}
	c.moveToFront(best)
	return best.key, best.val, true
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns the keys of all entries, most recently used first.
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]Key, 0, len(c.entries))
	for ent := c.first; ent != nil; ent = ent.next {
		keys = append(keys, ent.key)
	}
	return keys
}

// Stats returns the current cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Len:       len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

func (c *Cache) moveToFront(ent *cacheEntry) {
	if ent == c.first {
		return
	}

	if ent.prev != nil {
		ent.prev.next = ent.next
	}
	if ent.next != nil {
		ent.next.prev = ent.prev
	}
	if ent == c.last {
		c.last = ent.prev
	}

	ent.prev = nil
	ent.next = c.first
	if c.first != nil {
		c.first.prev = ent
	}
	c.first = ent
	if c.last == nil {
		c.last = ent
	}
}

func (c *Cache) removeLast() *cacheEntry {
	ent := c.last
	delete(c.entries, ent.key)
	if ent.prev != nil {
		ent.prev.next = nil
	} else {
		c.first = nil
	}
	c.last = ent.prev
	ent.prev = nil
	return ent
}
