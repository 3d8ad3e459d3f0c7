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

package annotation

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"sync"
)

// Storage is a durable key-value store for the annotations of documents.
type Storage interface {
	// Load returns the data saved for doc.  If nothing was saved, Load
	// returns nil and no error.
	Load(doc string) ([]byte, error)

	// Save replaces the data for doc.
	Save(doc string, data []byte) error
}

// MemStorage keeps data in memory.  The zero value is ready to use.
type MemStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

// Load implements [Storage].
func (m *MemStorage) Load(doc string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.data[doc]; ok {
		return append([]byte(nil), d...), nil
	}
	return nil, nil
}

// Save implements [Storage].
func (m *MemStorage) Save(doc string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[doc] = append([]byte(nil), data...)
	return nil
}

// DirStorage keeps one JSON file per document in a directory.
// Files are replaced atomically.
type DirStorage struct {
	Dir string
}

func (d DirStorage) path(doc string) string {
	return filepath.Join(d.Dir, url.PathEscape(doc)+".json")
}

// Load implements [Storage].
func (d DirStorage) Load(doc string) ([]byte, error) {
	data, err := os.ReadFile(d.path(doc))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

// Save implements [Storage].
func (d DirStorage) Save(doc string, data []byte) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return err
	}

	fd, err := os.CreateTemp(d.Dir, ".annot-*.tmp")
	if err != nil {
		return err
	}
	tmp := fd.Name()
	_, err = fd.Write(data)
	if closeErr := fd.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, d.path(doc))
}

// Registry hands out one [Store] per document.  Stores are loaded from
// storage on first access.  A Registry is safe for concurrent use.
type Registry struct {
	storage Storage
	opts    []Option

	mu     sync.Mutex
	stores map[string]*Store
}

// NewRegistry returns a registry backed by storage.  The options are
// applied to every store.
func NewRegistry(storage Storage, opts ...Option) *Registry {
	return &Registry{
		storage: storage,
		opts:    opts,
		stores:  make(map[string]*Store),
	}
}

// Store returns the store for doc.
func (r *Registry) Store(doc string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stores[doc]
	if !ok {
		s = Open(r.storage, doc, r.opts...)
		r.stores[doc] = s
	}
	return s
}
