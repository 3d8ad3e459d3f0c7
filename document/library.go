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

package document

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"seehuhn.de/go/pdfview"
)

// Library keeps documents open, so that repeated requests for the same path
// are free.  Concurrent first requests for a path share a single open.
// Failed opens are not remembered.
//
// A Library is safe for concurrent use.
type Library struct {
	opener Opener
	logger *slog.Logger

	group singleflight.Group

	mu     sync.Mutex
	docs   map[string]Document
	closed bool
}

// NewLibrary returns a library which opens documents using o.
// If logger is nil, [pdfview.Logger] is used.
func NewLibrary(o Opener, logger *slog.Logger) *Library {
	if logger == nil {
		logger = pdfview.Logger()
	}
	return &Library{
		opener: o,
		logger: logger,
		docs:   make(map[string]Document),
	}
}

// Open returns the document at path, opening it if needed.
// If ctx ends while waiting, Open returns ctx.Err(); the document is still
// added to the library once opening completes.
func (l *Library) Open(ctx context.Context, path string) (Document, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, ErrClosed
	}
	if doc, ok := l.docs[path]; ok {
		l.mu.Unlock()
		return doc, nil
	}
	l.mu.Unlock()

	ch := l.group.DoChan(path, func() (any, error) {
		doc, err := l.opener.Open(context.WithoutCancel(ctx), path)
		if err != nil {
			return nil, err
		}

		l.mu.Lock()
		defer l.mu.Unlock()
		if l.closed {
			doc.Close()
			return nil, ErrClosed
		}
		l.docs[path] = doc
		l.logger.Info("document opened", "path", path, "pages", doc.NumPages())
		return doc, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Document), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Forget closes and removes the document at path, if it is open.
func (l *Library) Forget(path string) error {
	l.mu.Lock()
	doc, ok := l.docs[path]
	delete(l.docs, path)
	l.mu.Unlock()

	if !ok {
		return nil
	}
	return doc.Close()
}

// Close closes all documents.  After Close, Open returns [ErrClosed].
func (l *Library) Close() error {
	l.mu.Lock()
	docs := l.docs
	l.docs = nil
	l.closed = true
	l.mu.Unlock()

	var errs []error
	for _, doc := range docs {
		if err := doc.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
