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

// Package annotation stores freehand strokes drawn on top of document
// pages.
//
// A [Store] holds the strokes of one document, the current selection and a
// linear undo/redo history.  Every mutating operation replaces the current
// [State] by a new immutable value; the undo and redo stacks keep
// references to earlier states.  Each call is one undo step, so a drag
// which updates the selection on every pointer move leaves one step per
// move.
//
// After every change, the strokes and the selection are written to a
// [Storage] as JSON.
package annotation

import (
	"encoding/json"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Store is the annotation state of one document.
// It is safe for concurrent use; every operation is atomic.
type Store struct {
	doc     string
	storage Storage
	now     func() time.Time
	newID   func() string
	logger  *slog.Logger

	mu      sync.Mutex
	cur     *State
	undo    []*State
	redo    []*State
	tools   Tools
	version uint64 // incremented for every snapshot

	saveMu sync.Mutex
	saved  uint64 // version of the last snapshot written

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int
}

// Open returns the store for doc, loading saved annotations from storage.
// Missing or malformed data gives an empty store.
func Open(storage Storage, doc string, opts ...Option) *Store {
	opt := defaultOptions()
	for _, o := range opts {
		o(&opt)
	}
	opt.fill()

	s := &Store{
		doc:     doc,
		storage: storage,
		now:     opt.now,
		newID:   opt.newID,
		logger:  opt.logger,
		cur:     emptyState,
		tools:   DefaultTools(),
		subs:    make(map[int]func()),
	}
	s.load()
	return s
}

// payload is the persisted form of a State.
type payload struct {
	Annotations map[string][]Stroke `json:"annotations"`
	SelectedIDs []string            `json:"selectedIds"`
}

func (s *Store) pageKey(page int) string {
	return s.doc + "|" + strconv.Itoa(page)
}

func (s *Store) load() {
	if s.storage == nil {
		return
	}
	data, err := s.storage.Load(s.doc)
	if err != nil {
		s.logger.Warn("cannot load annotations", "document", s.doc, "error", err)
		return
	}
	if data == nil {
		return
	}

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Warn("discarding corrupt annotations", "document", s.doc, "error", err)
		return
	}

	pages := make(map[int][]Stroke)
	for key, list := range p.Annotations {
		i := strings.LastIndexByte(key, '|')
		if i < 0 || len(list) == 0 {
			continue
		}
		page, err := strconv.Atoi(key[i+1:])
		if err != nil {
			continue
		}
		for j := range list {
			list[j].Page = page
		}
		pages[page] = append(pages[page], list...)
	}
	s.cur = &State{pages: pages, selected: uniqueIDs(p.SelectedIDs)}
}

// snapshot is the persisted form of one version of the state.
type snapshot struct {
	data    []byte
	version uint64
}

// snapshotLocked encodes the current state for storage.  The caller must
// hold s.mu and pass the result to [Store.save] after unlocking.
func (s *Store) snapshotLocked() snapshot {
	if s.storage == nil {
		return snapshot{}
	}
	p := payload{
		Annotations: make(map[string][]Stroke, len(s.cur.pages)),
		SelectedIDs: s.cur.Selection(),
	}
	for page, list := range s.cur.pages {
		p.Annotations[s.pageKey(page)] = list
	}
	if p.SelectedIDs == nil {
		p.SelectedIDs = []string{}
	}

	data, err := json.Marshal(p)
	if err != nil {
		s.logger.Warn("cannot encode annotations", "document", s.doc, "error", err)
		return snapshot{}
	}
	s.version++
	return snapshot{data: data, version: s.version}
}

// save writes snap to storage, unless a newer snapshot has already been
// written.  It must be called without holding s.mu.
func (s *Store) save(snap snapshot) {
	if snap.data == nil {
		return
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	if snap.version <= s.saved {
		return
	}
	s.saved = snap.version
	if err := s.storage.Save(s.doc, snap.data); err != nil {
		s.logger.Warn("cannot save annotations", "document", s.doc, "error", err)
	}
}

// update applies fn to the current state under the lock and commits the
// result with history.
func (s *Store) update(fn func(cur *State) *State) {
	s.mu.Lock()
	next := fn(s.cur)
	s.undo = append(s.undo, s.cur)
	s.redo = nil
	s.cur = next
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.save(snap)
	s.notify()
}

// Document returns the document key of the store.
func (s *Store) Document() string {
	return s.doc
}

// State returns the current state.
func (s *Store) State() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// Strokes returns the strokes of a page in drawing order.
// The returned slice must not be modified.
func (s *Store) Strokes(page int) []Stroke {
	return s.State().Strokes(page)
}

// Selection returns the selected stroke ids.
func (s *Store) Selection() []string {
	return s.State().Selection()
}

// AddStroke appends a stroke to a page.  The stroke gets a new id, the page
// number and the current time; all other fields are taken from draft.
// The committed stroke is returned.
func (s *Store) AddStroke(page int, draft Stroke) Stroke {
	now := s.now()
	st := draft
	st.ID = s.newID()
	st.Page = page
	st.CreatedAt = now
	st.UpdatedAt = now
	st.Points = slices.Clone(draft.Points)

	s.update(func(cur *State) *State {
		list := cur.Strokes(page)
		next := append(slices.Clip(list), st)
		return cur.withPage(page, next).filterSelection(page)
	})
	return st
}

// RemoveStrokes removes the strokes with the given ids from a page and
// clears the selection.
func (s *Store) RemoveStrokes(page int, ids []string) {
	s.update(func(cur *State) *State {
		list := cur.Strokes(page)
		next := make([]Stroke, 0, len(list))
		for _, st := range list {
			if !slices.Contains(ids, st.ID) {
				next = append(next, st)
			}
		}
		return cur.withPage(page, next).withSelection(nil)
	})
}

// UpdateStrokes replaces every stroke of the page whose id is listed by
// fn(stroke).  Id, page and creation time are preserved and the
// modification time is set.
func (s *Store) UpdateStrokes(page int, ids []string, fn func(Stroke) Stroke) {
	now := s.now()
	s.update(func(cur *State) *State {
		list := cur.Strokes(page)
		next := make([]Stroke, len(list))
		for i, st := range list {
			if slices.Contains(ids, st.ID) {
				id, created := st.ID, st.CreatedAt
				st = fn(st)
				st.ID, st.Page, st.CreatedAt = id, page, created
				st.UpdatedAt = now
			}
			next[i] = st
		}
		return cur.withPage(page, next).filterSelection(page)
	})
}

// SetSelected replaces the selection.  Selection changes are saved, but
// they do not enter the undo history.
func (s *Store) SetSelected(ids []string) {
	s.mu.Lock()
	s.cur = s.cur.withSelection(ids)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.save(snap)
	s.notify()
}

// Undo restores the state before the most recent mutation.
// It reports whether there was anything to undo.
func (s *Store) Undo() bool {
	s.mu.Lock()
	if len(s.undo) == 0 {
		s.mu.Unlock()
		return false
	}
	prev := s.undo[len(s.undo)-1]
	s.undo = s.undo[:len(s.undo)-1]
	s.redo = append(s.redo, s.cur)
	s.cur = prev
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.save(snap)
	s.notify()
	return true
}

// Redo reapplies the most recently undone mutation.
// It reports whether there was anything to redo.
func (s *Store) Redo() bool {
	s.mu.Lock()
	if len(s.redo) == 0 {
		s.mu.Unlock()
		return false
	}
	next := s.redo[len(s.redo)-1]
	s.redo = s.redo[:len(s.redo)-1]
	s.undo = append(s.undo, s.cur)
	s.cur = next
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.save(snap)
	s.notify()
	return true
}

// History returns the depths of the undo and redo stacks.
func (s *Store) History() (undo, redo int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undo), len(s.redo)
}

// CanUndo reports whether Undo would change the state.
func (s *Store) CanUndo() bool {
	n, _ := s.History()
	return n > 0
}

// CanRedo reports whether Redo would change the state.
func (s *Store) CanRedo() bool {
	_, n := s.History()
	return n > 0
}

// Tools returns the current tool configuration.
func (s *Store) Tools() Tools {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tools
}

func (s *Store) setTools(fn func(t *Tools)) {
	s.mu.Lock()
	fn(&s.tools)
	s.mu.Unlock()
	s.notify()
}

// SetTool selects the active tool.
func (s *Store) SetTool(tool Tool) {
	s.setTools(func(t *Tools) { t.Tool = tool })
}

// SetPenColor sets the colour of new pen strokes.
func (s *Store) SetPenColor(c Color) {
	s.setTools(func(t *Tools) { t.PenColor = c })
}

// SetPenWidth sets the width of new pen strokes, clamped to
// [MinPenWidth, MaxPenWidth].
func (s *Store) SetPenWidth(w float64) {
	s.setTools(func(t *Tools) { t.PenWidth = min(max(w, MinPenWidth), MaxPenWidth) })
}

// SetHighlighterColor sets the colour of new highlighter strokes.
func (s *Store) SetHighlighterColor(c Color) {
	s.setTools(func(t *Tools) { t.HighlighterColor = c })
}

// SetHighlighterWidth sets the width of new highlighter strokes, clamped
// to [MinHighlighterWidth, MaxHighlighterWidth].
func (s *Store) SetHighlighterWidth(w float64) {
	s.setTools(func(t *Tools) {
		t.HighlighterWidth = min(max(w, MinHighlighterWidth), MaxHighlighterWidth)
	})
}

// SetHighlighterOpacity sets the opacity of new highlighter strokes,
// clamped to [MinHighlighterOpacity, MaxHighlighterOpacity].
func (s *Store) SetHighlighterOpacity(o float64) {
	s.setTools(func(t *Tools) {
		t.HighlighterOpacity = min(max(o, MinHighlighterOpacity), MaxHighlighterOpacity)
	})
}

// Subscribe registers fn to be called after every change of the state or
// the tool configuration.  fn is called on the goroutine which made the
// change, without any lock held.  The returned function unsubscribes.
func (s *Store) Subscribe(fn func()) (cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
