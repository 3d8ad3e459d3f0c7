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

package scheduler

import (
	"context"
	"sync"
)

// Generation issues request tokens for one view.  Issuing a new token
// invalidates the previous one and cancels its context, so that the
// rasterisation it guards is aborted.  A Generation is safe for concurrent
// use; the zero value is ready to use.
type Generation struct {
	mu     sync.Mutex
	n      uint64
	cancel context.CancelFunc
}

// Next invalidates the current token and returns a new one, derived from
// parent.
func (g *Generation) Next(parent context.Context) *Token {
	ctx, cancel := context.WithCancel(parent)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
	}
	g.n++
	g.cancel = cancel
	return &Token{ctx: ctx, n: g.n}
}

// Invalidate cancels the current token without issuing a new one.
func (g *Generation) Invalidate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.n++
}

// Current returns the number of the most recently issued token.
func (g *Generation) Current() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

// Token identifies one request.  It stays valid until a newer token is
// issued by the same [Generation], the generation is invalidated, or the
// parent context ends.
type Token struct {
	ctx context.Context
	n   uint64
}

// Valid reports whether the request is still the latest one.
func (t *Token) Valid() bool {
	return t.ctx.Err() == nil
}

// Context returns a context which is canceled as soon as the token becomes
// invalid.  Pass it to every blocking call made on behalf of the request.
func (t *Token) Context() context.Context {
	return t.ctx
}

// Seq returns the sequence number of the token.  Sequence numbers increase
// with every call to [Generation.Next].
func (t *Token) Seq() uint64 {
	return t.n
}
