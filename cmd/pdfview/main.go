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

// Pdfview shows a PDF file and lets the user draw on its pages.
//
// Usage:
//
//	pdfview [flags] file.pdf
//
// Annotations are saved automatically, one JSON file per document, in the
// directory given by -annotations.  Pages are rasterised with Ghostscript.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"seehuhn.de/go/pdfview"
	"seehuhn.de/go/pdfview/annotation"
	"seehuhn.de/go/pdfview/document/pdfdoc"
	"seehuhn.de/go/pdfview/pagerender"
)

var (
	zoomFlag  = flag.Float64("zoom", 1, "initial zoom, 1 fits the page to the window width")
	pageFlag  = flag.Int("page", 1, "initial page")
	annotFlag = flag.String("annotations", "", "directory for annotation files")
	gsFlag    = flag.String("gs", "gs", "Ghostscript executable")
	verbose   = flag.Bool("v", false, "log debug messages")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] file.pdf\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	pdfview.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	err := run(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "pdfview:", err)
		os.Exit(1)
	}
}

func run(fname string) error {
	path, err := filepath.Abs(fname)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}

	dir := *annotFlag
	if dir == "" {
		config, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("no annotation directory: %w", err)
		}
		dir = filepath.Join(config, "pdfview", "annotations")
	}

	svc := pagerender.NewServices(
		pagerender.WithOpener(&pdfdoc.Opener{Ghostscript: *gsFlag}),
	)
	defer svc.Close()

	registry := annotation.NewRegistry(annotation.DirStorage{Dir: dir})

	a := app.New()
	w := a.NewWindow(filepath.Base(path))
	w.Resize(fyne.NewSize(1024, 900))

	v := newViewer(w, svc, registry.Store(path), path)
	defer v.close()
	v.page = max(*pageFlag, 1)
	v.zoom = clampZoom(*zoomFlag)

	w.SetContent(v.content())
	v.installShortcuts()
	w.ShowAndRun()
	return nil
}
