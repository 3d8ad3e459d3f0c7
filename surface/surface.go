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

// Package surface defines the pixel targets pages and annotation overlays
// are drawn onto.
//
// A drawing pass acquires a buffer of the required size, paints into it and
// then presents it.  Presented buffers belong to the surface; callers must
// not modify them afterwards.
package surface

import (
	"errors"
	"image"
	"sync"
)

// ErrUnavailable is returned by Acquire if the surface cannot currently be
// drawn to, for example because the widget showing it is not mapped.  The
// drawing pass should be abandoned silently; the next layout pass retries.
var ErrUnavailable = errors.New("surface unavailable")

// Surface is a raster target.
type Surface interface {
	// Acquire returns a w×h buffer to draw into.  The contents of the
	// buffer are unspecified.
	Acquire(w, h int) (*image.RGBA, error)

	// Present makes a buffer previously returned by Acquire visible.
	Present(img *image.RGBA)
}

// Image is an in-memory Surface.  The most recently presented buffer can be
// retrieved with Current; a callback can be registered to be notified of
// every Present.
//
// Image is safe for concurrent use.
type Image struct {
	mu        sync.Mutex
	front     *image.RGBA
	spare     *image.RGBA
	disabled  bool
	onPresent func(*image.RGBA)
}

// NewImage returns an available, empty surface.  If onPresent is not nil,
// it is called (without any lock held) after every Present.
func NewImage(onPresent func(*image.RGBA)) *Image {
	return &Image{onPresent: onPresent}
}

// Acquire implements [Surface].
func (s *Image) Acquire(w, h int) (*image.RGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, ErrUnavailable
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disabled {
		return nil, ErrUnavailable
	}
	if spare := s.spare; spare != nil {
		s.spare = nil
		if b := spare.Bounds(); b.Dx() == w && b.Dy() == h {
			return spare, nil
		}
	}
	return image.NewRGBA(image.Rect(0, 0, w, h)), nil
}

// Present implements [Surface].
func (s *Image) Present(img *image.RGBA) {
	s.mu.Lock()
	s.front = img
	cb := s.onPresent
	s.mu.Unlock()

	if cb != nil {
		cb(img)
	}
}

// Release returns an acquired buffer which was not presented, so that the
// next Acquire can reuse it.
func (s *Image) Release(img *image.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if img != s.front {
		s.spare = img
	}
}

// Current returns the most recently presented buffer, or nil.
func (s *Image) Current() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.front
}

// SetAvailable enables or disables drawing.  While disabled, Acquire
// returns [ErrUnavailable].
func (s *Image) SetAvailable(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disabled = !ok
}
