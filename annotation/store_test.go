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
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// testStore returns a store with deterministic ids and time stamps.
func testStore(t *testing.T, storage Storage) *Store {
	t.Helper()

	n := 0
	clock := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return Open(storage, "doc.pdf",
		WithIDs(func() string {
			n++
			return fmt.Sprintf("s%d", n)
		}),
		WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
	)
}

func draft(pts ...float64) Stroke {
	s := Stroke{Kind: Pen, Color: MustParseColor("#1f2937"), Width: 3, Opacity: 1}
	for i := 0; i+1 < len(pts); i += 2 {
		s.Points = append(s.Points, Point{X: pts[i], Y: pts[i+1], Pressure: DefaultPressure})
	}
	return s
}

var stateOpts = cmp.AllowUnexported(State{})

func ids(strokes []Stroke) []string {
	var res []string
	for _, s := range strokes {
		res = append(res, s.ID)
	}
	return res
}

func TestAddUndoRedo(t *testing.T) {
	s := testStore(t, nil)

	st := s.AddStroke(1, draft(0, 0, 1, 1, 2, 2, 3, 3, 4, 4))
	if got := len(s.Strokes(1)); got != 1 {
		t.Fatalf("page 1 has %d strokes, want 1", got)
	}
	if u, r := s.History(); u != 1 || r != 0 {
		t.Errorf("history (%d, %d), want (1, 0)", u, r)
	}
	if st.ID == "" || st.Page != 1 || st.CreatedAt.IsZero() || !st.CreatedAt.Equal(st.UpdatedAt) {
		t.Errorf("stroke not initialised: %+v", st)
	}

	if !s.Undo() {
		t.Fatal("Undo failed")
	}
	if got := len(s.Strokes(1)); got != 0 {
		t.Errorf("after undo: %d strokes, want 0", got)
	}

	if !s.Redo() {
		t.Fatal("Redo failed")
	}
	list := s.Strokes(1)
	if len(list) != 1 || list[0].ID != st.ID {
		t.Errorf("after redo: %v, want [%s]", ids(list), st.ID)
	}

	if s.Redo() {
		t.Error("Redo with empty stack reported success")
	}
}

func TestUndoAll(t *testing.T) {
	s := testStore(t, nil)
	before := s.State()

	s.AddStroke(2, draft(5, 5, 6, 6))

	a := s.AddStroke(1, draft(0, 0, 10, 0))
	b := s.AddStroke(1, draft(0, 5, 10, 5))
	s.SetSelected([]string{a.ID, b.ID})
	s.UpdateStrokes(1, []string{a.ID, b.ID}, Translate(3, 4))
	c := s.AddStroke(1, draft(1, 1, 2, 2))
	s.RemoveStrokes(1, []string{a.ID})
	s.UpdateStrokes(1, []string{c.ID}, Translate(-1, 0))
	after := s.State()

	for s.Undo() {
	}
	if d := cmp.Diff(before, s.State(), stateOpts); d != "" {
		t.Errorf("undo did not restore the initial state (-want +got):\n%s", d)
	}

	for s.Redo() {
	}
	if d := cmp.Diff(after, s.State(), stateOpts); d != "" {
		t.Errorf("redo did not restore the final state (-want +got):\n%s", d)
	}
}

func TestSelectionNotInHistory(t *testing.T) {
	s := testStore(t, nil)

	a := s.AddStroke(1, draft(0, 0, 1, 1))
	s.SetSelected([]string{a.ID})
	s.AddStroke(1, draft(2, 2, 3, 3))

	if u, _ := s.History(); u != 2 {
		t.Errorf("undo depth %d, want 2", u)
	}

	// a single undo removes stroke b; the selection made before b stays
	s.Undo()
	if got := ids(s.Strokes(1)); !cmp.Equal(got, []string{a.ID}) {
		t.Errorf("strokes %v, want [%s]", got, a.ID)
	}
	if got := s.Selection(); !cmp.Equal(got, []string{a.ID}) {
		t.Errorf("selection %v, want [%s]", got, a.ID)
	}
}

func TestRedoClearedByMutation(t *testing.T) {
	s := testStore(t, nil)

	s.AddStroke(1, draft(0, 0, 1, 1))
	s.Undo()
	if !s.CanRedo() {
		t.Fatal("nothing to redo")
	}
	s.AddStroke(1, draft(2, 2, 3, 3))
	if s.CanRedo() {
		t.Error("mutation did not clear the redo stack")
	}
}

func TestRemoveClearsSelection(t *testing.T) {
	s := testStore(t, nil)

	a := s.AddStroke(1, draft(0, 0, 1, 1))
	b := s.AddStroke(1, draft(2, 2, 3, 3))
	s.SetSelected([]string{a.ID, b.ID})
	s.RemoveStrokes(1, []string{b.ID})

	if got := ids(s.Strokes(1)); !cmp.Equal(got, []string{a.ID}) {
		t.Errorf("strokes %v, want [%s]", got, a.ID)
	}
	if sel := s.Selection(); len(sel) != 0 {
		t.Errorf("selection %v, want empty", sel)
	}
}

func TestUpdateStrokes(t *testing.T) {
	s := testStore(t, nil)

	a := s.AddStroke(1, draft(0, 0, 10, 0))
	b := s.AddStroke(1, draft(0, 5, 10, 5))
	s.UpdateStrokes(1, []string{a.ID}, Translate(2, 3))

	list := s.Strokes(1)
	want := []Point{
		{X: 2, Y: 3, Pressure: DefaultPressure},
		{X: 12, Y: 3, Pressure: DefaultPressure},
	}
	if d := cmp.Diff(want, list[0].Points); d != "" {
		t.Errorf("moved stroke (-want +got):\n%s", d)
	}
	if !list[0].UpdatedAt.After(a.UpdatedAt) {
		t.Error("modification time not updated")
	}
	if !list[0].CreatedAt.Equal(a.CreatedAt) || list[0].ID != a.ID {
		t.Error("identity of the stroke changed")
	}
	if d := cmp.Diff(b, list[1]); d != "" {
		t.Errorf("unselected stroke changed (-want +got):\n%s", d)
	}

	// the old snapshot is unaffected
	s.Undo()
	if d := cmp.Diff(a, s.Strokes(1)[0]); d != "" {
		t.Errorf("snapshot was modified (-want +got):\n%s", d)
	}
}

func TestSelectionFiltered(t *testing.T) {
	s := testStore(t, nil)

	a := s.AddStroke(1, draft(0, 0, 1, 1))
	s.SetSelected([]string{a.ID, "stale", a.ID})
	if got := s.Selection(); !cmp.Equal(got, []string{a.ID, "stale"}) {
		t.Errorf("selection %v", got)
	}

	// a mutation of page 1 drops ids which are not on page 1
	s.UpdateStrokes(1, []string{a.ID}, Translate(1, 1))
	if got := s.Selection(); !cmp.Equal(got, []string{a.ID}) {
		t.Errorf("selection after mutation %v, want [%s]", got, a.ID)
	}
	if got := s.State().SelectedStrokes(1); len(got) != 1 || got[0].ID != a.ID {
		t.Errorf("selected strokes %v", ids(got))
	}
}

func TestUndoEmpty(t *testing.T) {
	s := testStore(t, nil)
	if s.Undo() || s.CanUndo() {
		t.Error("fresh store can undo")
	}
}

func TestTools(t *testing.T) {
	s := testStore(t, nil)

	if d := cmp.Diff(DefaultTools(), s.Tools()); d != "" {
		t.Errorf("initial tools (-want +got):\n%s", d)
	}

	s.SetTool(ToolLasso)
	s.SetPenWidth(50)
	s.SetHighlighterWidth(1)
	s.SetHighlighterOpacity(0)
	s.SetPenColor(PenPalette[1])
	s.SetHighlighterColor(HighlighterPalette[2])

	want := Tools{
		Tool:               ToolLasso,
		PenColor:           PenPalette[1],
		PenWidth:           MaxPenWidth,
		HighlighterColor:   HighlighterPalette[2],
		HighlighterWidth:   MinHighlighterWidth,
		HighlighterOpacity: MinHighlighterOpacity,
	}
	if d := cmp.Diff(want, s.Tools()); d != "" {
		t.Errorf("tools (-want +got):\n%s", d)
	}
	if s.CanUndo() {
		t.Error("tool changes entered the undo history")
	}

	style, ok := want.Style(ToolHighlighter)
	if !ok || style.Kind != Highlighter || style.Width != MinHighlighterWidth || style.Opacity != MinHighlighterOpacity {
		t.Errorf("highlighter style %+v", style)
	}
	if _, ok := want.Style(ToolEraser); ok {
		t.Error("eraser has a stroke style")
	}
}

func TestSubscribe(t *testing.T) {
	s := testStore(t, nil)

	calls := 0
	cancel := s.Subscribe(func() { calls++ })
	s.AddStroke(1, draft(0, 0, 1, 1))
	s.SetSelected(nil)
	s.SetTool(ToolEraser)
	s.Undo()
	if calls != 4 {
		t.Errorf("%d notifications, want 4", calls)
	}

	cancel()
	s.Redo()
	if calls != 4 {
		t.Error("notified after unsubscribing")
	}
}
