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

package input

import (
	"log/slog"
	"time"

	"seehuhn.de/go/pdfview"
	"seehuhn.de/go/pdfview/layout"
)

// Option configures an Engine.
type Option func(*options)

type options struct {
	now            func() time.Time
	maxDeviceScale float64
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		now:            time.Now,
		maxDeviceScale: layout.DefaultMaxDeviceScale,
		logger:         nil, // pdfview.Logger()
	}
}

// WithClock sets the function used to time-stamp points of events which
// carry no time.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithMaxDeviceScale caps the device pixel ratio of the overlay.
func WithMaxDeviceScale(s float64) Option {
	return func(o *options) {
		if s > 0 {
			o.maxDeviceScale = s
		}
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
