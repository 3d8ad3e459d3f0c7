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

// Package pdfdoc implements [document.Opener] for PDF files.
//
// Document structure (page count, page sizes, rotation) is read with
// seehuhn.de/go/pdf.  Pixels are produced by Ghostscript, which must be
// installed; the gs process is killed when the render context is canceled.
package pdfdoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"
	"sync"

	"golang.org/x/image/draw"

	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"

	"seehuhn.de/go/pdfview/document"
)

// ErrNoGhostscript is returned by Render if the Ghostscript executable
// cannot be found.
var ErrNoGhostscript = errors.New("ghostscript not found")

// Opener opens PDF files.
type Opener struct {
	// Ghostscript is the name or path of the gs executable.
	// If empty, "gs" is looked up in $PATH.
	Ghostscript string
}

// Open implements [document.Opener].
func (o *Opener) Open(ctx context.Context, path string) (document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r, err := pdf.Open(path, nil)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	n, err := pagetree.NumPages(r)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("%s: reading page tree: %w", path, err)
	}

	gs := o.Ghostscript
	if gs == "" {
		gs = "gs"
	}
	return &Document{path: path, gs: gs, r: r, numPages: n}, nil
}

// Document is an open PDF file.
type Document struct {
	path     string
	gs       string
	numPages int

	mu sync.Mutex // guards r
	r  *pdf.Reader
}

// NumPages implements [document.Document].
func (d *Document) NumPages() int {
	return d.numPages
}

// Page implements [document.Document].
func (d *Document) Page(ctx context.Context, n int) (document.Page, error) {
	if n < 1 || n > d.numPages {
		return nil, fmt.Errorf("%s: page %d not in [1, %d]", d.path, n, d.numPages)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.r == nil {
		return nil, document.ErrClosed
	}

	_, dict, err := pagetree.GetPage(d.r, n-1)
	if err != nil {
		return nil, fmt.Errorf("%s: page %d: %w", d.path, n, err)
	}

	width, height := 612.0, 792.0 // US Letter, if MediaBox is missing
	box, err := pdf.GetRectangle(d.r, dict["MediaBox"])
	if err != nil {
		return nil, fmt.Errorf("%s: page %d: %w", d.path, n, err)
	}
	if box != nil && box.URx > box.LLx && box.URy > box.LLy {
		width, height = box.URx-box.LLx, box.URy-box.LLy
	}

	rotate, _ := pdf.GetInteger(d.r, dict["Rotate"])
	if r := ((int(rotate)%360)+360)%360; r == 90 || r == 270 {
		width, height = height, width
	}

	return &Page{doc: d, number: n, width: width, height: height}, nil
}

// Close implements [document.Document].
func (d *Document) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.r == nil {
		return nil
	}
	err := d.r.Close()
	d.r = nil
	return err
}

// Page is a single page of a PDF file.
type Page struct {
	doc           *Document
	number        int
	width, height float64 // in PDF points, after rotation
}

// Viewport implements [document.Page].
func (p *Page) Viewport(scale float64) document.Viewport {
	return document.Viewport{
		Width:  p.width * scale,
		Height: p.height * scale,
		Scale:  scale,
	}
}

// Render implements [document.Page].
//
// Ghostscript writes a PNG at 72*vp.Scale dpi to its standard output.
// If the result does not match the size of dst exactly, it is resampled.
func (p *Page) Render(ctx context.Context, dst *image.RGBA, vp document.Viewport) error {
	gs, err := exec.LookPath(p.doc.gs)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoGhostscript, err)
	}

	dpi := strconv.FormatFloat(72*vp.Scale, 'f', 3, 64)
	page := strconv.Itoa(p.number)
	cmd := exec.CommandContext(ctx, gs,
		"-q", "-dSAFER", "-dBATCH", "-dNOPAUSE",
		"-sDEVICE=png16m",
		"-r"+dpi,
		"-dGraphicsAlphaBits=4",
		"-dTextAlphaBits=4",
		"-dFirstPage="+page,
		"-dLastPage="+page,
		"-o", "-",
		p.doc.path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		return fmt.Errorf("ghostscript, page %d: %w: %s", p.number, err, bytes.TrimSpace(stderr.Bytes()))
	}

	img, err := png.Decode(&stdout)
	if err != nil {
		return fmt.Errorf("decoding page %d: %w", p.number, err)
	}

	if img.Bounds().Size() == dst.Bounds().Size() {
		draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	}
	return nil
}
