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
	"errors"
	"strconv"
)

// ErrInvalidPage is wrapped in a [PageError] when the requested page is
// outside the document.
var ErrInvalidPage = errors.New("invalid page number")

// PageError is reported for all failures which affect a single page.
// Such errors are recoverable: other pages, the cache and the scheduler
// are not affected.
type PageError struct {
	Document string
	Page     int
	Err      error
}

func (err *PageError) Error() string {
	middle := ""
	if err.Err != nil {
		middle = ": " + err.Err.Error()
	}
	return err.Document + ", page " + strconv.Itoa(err.Page) + middle
}

func (err *PageError) Unwrap() error {
	return err.Err
}
