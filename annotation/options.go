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
	"log/slog"
	"time"

	"github.com/google/uuid"

	"seehuhn.de/go/pdfview"
)

// Option configures a Store.
type Option func(*options)

type options struct {
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

func defaultOptions() options {
	return options{
		now:    time.Now,
		newID:  uuid.NewString,
		logger: nil, // pdfview.Logger()
	}
}

// WithClock sets the function used to time-stamp strokes.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithIDs sets the function used to generate stroke ids.
// The default generates random UUIDs.
func WithIDs(newID func() string) Option {
	return func(o *options) {
		o.newID = newID
	}
}

// WithLogger sets the logger.  The default is [pdfview.Logger].
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func (o *options) fill() {
	if o.logger == nil {
		o.logger = pdfview.Logger()
	}
}
