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

// Package document describes the collaborator which turns document pages
// into pixels.
//
// The page renderer only depends on the interfaces defined here.  A PDF
// implementation is provided by [seehuhn.de/go/pdfview/document/pdfdoc].
package document

import (
	"context"
	"errors"
	"image"
)

// ErrClosed is returned when a document or library is used after Close.
var ErrClosed = errors.New("document closed")

// Opener opens documents by path.
type Opener interface {
	Open(ctx context.Context, path string) (Document, error)
}

// Document is an open, paginated document.
type Document interface {
	// NumPages returns the number of pages.
	NumPages() int

	// Page returns page n.  Pages are numbered from 1.
	Page(ctx context.Context, n int) (Page, error)

	// Close releases all resources held by the document.
	Close() error
}

// Page is a single page of a document.
type Page interface {
	// Viewport returns the size of the page at the given scale.
	// Scale 1 gives the intrinsic page size.
	Viewport(scale float64) Viewport

	// Render rasterises the page into dst, which should be
	// vp.Pixels() in size.  Render returns an error satisfying
	// [IsCanceled] if ctx ends before rasterisation is complete.
	Render(ctx context.Context, dst *image.RGBA, vp Viewport) error
}

// Viewport is the size of a page at a given scale.
type Viewport struct {
	Width, Height float64
	Scale         float64
}

// Pixels returns the size, in whole pixels, of a bitmap covering vp.
func (vp Viewport) Pixels() image.Rectangle {
	w := max(int(vp.Width+0.5), 1)
	h := max(int(vp.Height+0.5), 1)
	return image.Rect(0, 0, w, h)
}

// IsCanceled reports whether err is the result of a canceled or expired
// context.  Such errors are a normal outcome when a request is superseded
// and must not be reported to the user.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
