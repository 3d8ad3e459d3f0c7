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
	"encoding/json"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
	"time"

	"seehuhn.de/go/geom/vec"
)

// Kind is the type of a stroke.
type Kind int

// These are the supported stroke kinds.
const (
	Pen Kind = iota
	Highlighter
)

func (k Kind) String() string {
	switch k {
	case Pen:
		return "pen"
	case Highlighter:
		return "highlighter"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (k Kind) MarshalText() ([]byte, error) {
	switch k {
	case Pen, Highlighter:
		return []byte(k.String()), nil
	default:
		return nil, fmt.Errorf("invalid stroke kind %d", int(k))
	}
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pen":
		*k = Pen
	case "highlighter":
		*k = Highlighter
	default:
		return fmt.Errorf("invalid stroke kind %q", text)
	}
	return nil
}

// Tool is the active annotation tool.
type Tool int

// These are the available tools.
const (
	ToolPen Tool = iota
	ToolHighlighter
	ToolLasso
	ToolEraser
)

func (t Tool) String() string {
	switch t {
	case ToolPen:
		return "pen"
	case ToolHighlighter:
		return "highlighter"
	case ToolLasso:
		return "lasso"
	case ToolEraser:
		return "eraser"
	default:
		return fmt.Sprintf("Tool(%d)", int(t))
	}
}

// Color is an opaque sRGB colour, written as "#rrggbb".
type Color struct {
	R, G, B uint8
}

// ParseColor parses a colour in the form "#rrggbb" or "#rgb".
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 3 || strings.ContainsAny(hex, "+-_xX") {
		return Color{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid colour %q", s)
	}
	if len(hex) == 3 {
		return Color{
			R: uint8(v>>8) * 17,
			G: uint8(v>>4&15) * 17,
			B: uint8(v&15) * 17,
		}, nil
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// MustParseColor is like ParseColor but panics on invalid input.
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// NRGBA returns the colour with the given opacity in [0, 1].
func (c Color) NRGBA(opacity float64) color.NRGBA {
	opacity = min(max(opacity, 0), 1)
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(opacity*255 + 0.5)}
}

// MarshalText implements [encoding.TextMarshaler].
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (c *Color) UnmarshalText(text []byte) error {
	v, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// DefaultPressure is used for input devices which do not report pressure.
const DefaultPressure = 0.5

// Point is a sample of a stroke, in document units.
type Point struct {
	X, Y     float64
	Pressure float64
	T        time.Time
}

// Vec returns the position of p.
func (p Point) Vec() vec.Vec2 {
	return vec.Vec2{X: p.X, Y: p.Y}
}

type pointJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	P float64 `json:"p"`
	T millis  `json:"t"`
}

// MarshalJSON writes p as {"x", "y", "p", "t"} with t in milliseconds
// since the epoch.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(pointJSON{X: p.X, Y: p.Y, P: p.Pressure, T: toMillis(p.T)})
}

// UnmarshalJSON implements [json.Unmarshaler].
func (p *Point) UnmarshalJSON(data []byte) error {
	w := pointJSON{P: DefaultPressure}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = Point{X: w.X, Y: w.Y, Pressure: w.P, T: fromMillis(w.T)}
	return nil
}

// Stroke is a freehand annotation.  Coordinates are in document units, so
// a stroke looks the same at every zoom level.
//
// Strokes are values.  The store never modifies a stroke in place; the
// Points slice of a stroke obtained from the store must not be modified.
type Stroke struct {
	ID      string
	Page    int
	Kind    Kind
	Color   Color
	Width   float64 // in document units
	Opacity float64 // in [0, 1]
	Points  []Point

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Polyline returns the positions of the stroke's points.
func (s *Stroke) Polyline() []vec.Vec2 {
	res := make([]vec.Vec2, len(s.Points))
	for i, p := range s.Points {
		res[i] = p.Vec()
	}
	return res
}

type strokeJSON struct {
	ID        string  `json:"id"`
	Page      int     `json:"page"`
	Kind      Kind    `json:"type"`
	Color     Color   `json:"color"`
	Width     float64 `json:"width"`
	Opacity   float64 `json:"opacity"`
	Points    []Point `json:"points"`
	CreatedAt millis  `json:"createdAt"`
	UpdatedAt millis  `json:"updatedAt"`
}

// MarshalJSON implements [json.Marshaler].
func (s Stroke) MarshalJSON() ([]byte, error) {
	return json.Marshal(strokeJSON{
		ID:        s.ID,
		Page:      s.Page,
		Kind:      s.Kind,
		Color:     s.Color,
		Width:     s.Width,
		Opacity:   s.Opacity,
		Points:    s.Points,
		CreatedAt: toMillis(s.CreatedAt),
		UpdatedAt: toMillis(s.UpdatedAt),
	})
}

// UnmarshalJSON implements [json.Unmarshaler].
func (s *Stroke) UnmarshalJSON(data []byte) error {
	w := strokeJSON{Opacity: 1}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Stroke{
		ID:        w.ID,
		Page:      w.Page,
		Kind:      w.Kind,
		Color:     w.Color,
		Width:     w.Width,
		Opacity:   w.Opacity,
		Points:    w.Points,
		CreatedAt: fromMillis(w.CreatedAt),
		UpdatedAt: fromMillis(w.UpdatedAt),
	}
	return nil
}

// millis is a time stamp in milliseconds since the epoch.  Fractional
// values, as written by browser clocks, are rounded.
type millis int64

// UnmarshalJSON implements [json.Unmarshaler].
func (m *millis) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*m = millis(math.Round(f))
	return nil
}

func toMillis(t time.Time) millis {
	if t.IsZero() {
		return 0
	}
	return millis(t.UnixMilli())
}

func fromMillis(ms millis) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(ms))
}
