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

package pagerender

import (
	"log/slog"
	"time"

	"seehuhn.de/go/pdfview"
	"seehuhn.de/go/pdfview/bitmapcache"
	"seehuhn.de/go/pdfview/document"
	"seehuhn.de/go/pdfview/document/pdfdoc"
	"seehuhn.de/go/pdfview/layout"
	"seehuhn.de/go/pdfview/scheduler"
)

// DefaultIdleDelay is the time a page must stay unchanged before a new
// rasterisation is scheduled.
const DefaultIdleDelay = 80 * time.Millisecond

// Option configures the shared rendering services.
//
// Example:
//
//	svc := pagerender.NewServices(
//		pagerender.WithConcurrency(4),
//		pagerender.WithOpener(&pdfdoc.Opener{Ghostscript: "/opt/gs/bin/gs"}),
//	)
type Option func(*options)

type options struct {
	cacheCapacity  int
	concurrency    int
	bucketStep     float64
	maxDeviceScale float64
	maxMegapixels  float64
	idleDelay      time.Duration
	opener         document.Opener
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		cacheCapacity:  bitmapcache.DefaultCapacity,
		concurrency:    scheduler.DefaultLimit,
		bucketStep:     layout.DefaultBucketStep,
		maxDeviceScale: layout.DefaultMaxDeviceScale,
		maxMegapixels:  layout.DefaultMaxMegapixels,
		idleDelay:      DefaultIdleDelay,
		opener:         nil, // PDF files via Ghostscript
		logger:         nil, // pdfview.Logger()
	}
}

// WithCacheCapacity sets the number of rasterised pages kept in memory.
func WithCacheCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.cacheCapacity = n
		}
	}
}

// WithConcurrency sets the number of rasterisations which may run at the
// same time.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithBucketStep sets the quantisation step for rasterisation scales.
func WithBucketStep(step float64) Option {
	return func(o *options) {
		if step > 0 {
			o.bucketStep = step
		}
	}
}

// WithMaxDeviceScale caps the device pixel ratio used for rasterisation.
func WithMaxDeviceScale(s float64) Option {
	return func(o *options) {
		if s > 0 {
			o.maxDeviceScale = s
		}
	}
}

// WithMaxMegapixels limits the size of a single rasterised page.
func WithMaxMegapixels(mp float64) Option {
	return func(o *options) {
		if mp > 0 {
			o.maxMegapixels = mp
		}
	}
}

// WithIdleDelay sets how long a page must stay unchanged before it is
// rasterised at the requested quality.  Zero schedules immediately.
func WithIdleDelay(d time.Duration) Option {
	return func(o *options) {
		o.idleDelay = max(d, 0)
	}
}

// WithOpener sets the document backend.  The default opens PDF files and
// rasterises them with Ghostscript.
func WithOpener(op document.Opener) Option {
	return func(o *options) {
		o.opener = op
	}
}

// WithLogger sets the logger.  The default is [pdfview.Logger].
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func (o *options) fill() {
	if o.opener == nil {
		o.opener = &pdfdoc.Opener{}
	}
	if o.logger == nil {
		o.logger = pdfview.Logger()
	}
}
