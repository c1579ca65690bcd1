package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/termlibs/termlibs/internal/errmsg"
	"github.com/termlibs/termlibs/internal/platform"
)

// isTerminalFunc reports whether a file descriptor is a terminal.
// It can be overridden for testing.
var isTerminalFunc = term.IsTerminal

// stdoutIsTerminal reports whether tables should be aligned for a reader.
func stdoutIsTerminal() bool {
	return isTerminalFunc(int(os.Stdout.Fd()))
}

// printJSON writes v to w as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

func errUnknownTarget(t platform.Target) error {
	return fmt.Errorf("unrecognized target %s; use --os and --arch values like linux and amd64", t)
}

// printError prints an error to stderr with suggestions if available.
func printError(err error, app string) {
	errmsg.Fprint(os.Stderr, err, &errmsg.ErrorContext{App: app})
}

// table writes rows either aligned with a header, for terminals, or as
// plain tab separated lines for other programs.
type table struct {
	w       io.Writer
	tw      *tabwriter.Writer
	aligned bool
}

func newTable(w io.Writer, aligned bool, header ...string) *table {
	t := &table{w: w, aligned: aligned}
	if aligned {
		t.tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		t.row(header...)
	}
	return t
}

func (t *table) row(cols ...string) {
	out := t.w
	if t.aligned {
		out = t.tw
	}
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(out, "\t")
		}
		fmt.Fprint(out, c)
	}
	fmt.Fprintln(out)
}

func (t *table) flush() error {
	if t.aligned {
		return t.tw.Flush()
	}
	return nil
}
