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
	"maps"
	"slices"
)

// State is an immutable snapshot of the strokes of one document together
// with the selection.  Operations which change the state return a new
// value and share unchanged pages with the old one.
type State struct {
	pages    map[int][]Stroke
	selected []string // ordered set of stroke ids
}

var emptyState = &State{}

// Strokes returns the strokes of a page in drawing order.
// The returned slice must not be modified.
func (s *State) Strokes(page int) []Stroke {
	return s.pages[page]
}

// Pages returns the pages which have at least one stroke, in increasing
// order.
func (s *State) Pages() []int {
	var res []int
	for p, list := range s.pages {
		if len(list) > 0 {
			res = append(res, p)
		}
	}
	slices.Sort(res)
	return res
}

// Selection returns the selected stroke ids.
func (s *State) Selection() []string {
	return slices.Clone(s.selected)
}

// IsSelected reports whether the stroke with the given id is selected.
func (s *State) IsSelected(id string) bool {
	return slices.Contains(s.selected, id)
}

// SelectedStrokes returns the selected strokes of a page.  Ids which do not
// belong to the page are ignored.
func (s *State) SelectedStrokes(page int) []Stroke {
	var res []Stroke
	for _, st := range s.pages[page] {
		if s.IsSelected(st.ID) {
			res = append(res, st)
		}
	}
	return res
}

// withPage returns a copy of s where the stroke list of page is replaced.
func (s *State) withPage(page int, list []Stroke) *State {
	pages := maps.Clone(s.pages)
	if pages == nil {
		pages = make(map[int][]Stroke)
	}
	if len(list) == 0 {
		delete(pages, page)
	} else {
		pages[page] = list
	}
	return &State{pages: pages, selected: s.selected}
}

// withSelection returns a copy of s with a new selection.
func (s *State) withSelection(ids []string) *State {
	return &State{pages: s.pages, selected: uniqueIDs(ids)}
}

// filterSelection drops selected ids which are not on the given page.
func (s *State) filterSelection(page int) *State {
	if len(s.selected) == 0 {
		return s
	}
	var keep []string
	for _, id := range s.selected {
		if slices.ContainsFunc(s.pages[page], func(st Stroke) bool { return st.ID == id }) {
			keep = append(keep, id)
		}
	}
	return &State{pages: s.pages, selected: keep}
}

// uniqueIDs returns ids with duplicates removed, keeping the first
// occurrence.
func uniqueIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	res := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			res = append(res, id)
		}
	}
	return res
}
