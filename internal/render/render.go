// Package render turns an assign.Result into output artifacts.
//
// Renderers only consume the ordered record list and MaxNameLen; they never
// reorder records, so the grouping they emit follows traversal order.
package render

import (
	"fmt"
	"io"
	"strings"

	"ecgen/internal/assign"
)

// Format names an output artifact kind.
type Format string

const (
	FormatC       Format = "c"
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
	FormatTable   Format = "table"
)

// Formats lists every supported format.
var Formats = []Format{FormatC, FormatJSON, FormatMsgpack, FormatTable}

// ParseFormat reads a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", "h", "header":
		return FormatC, nil
	case FormatC, FormatJSON, FormatMsgpack, FormatTable:
		return f, nil
	case "mp", "msgp":
		return FormatMsgpack, nil
	}
	return "", fmt.Errorf("unsupported output format %q (expected c|json|msgpack|table)", s)
}

// Ext returns the file extension used in batch mode.
func (f Format) Ext() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatMsgpack:
		return ".msgpack"
	case FormatTable:
		return ".txt"
	}
	return ".h"
}

// Binary reports whether the format is unsafe to print on a terminal.
func (f Format) Binary() bool { return f == FormatMsgpack }

// Options tune renderers. Zero values select the defaults.
type Options struct {
	// Guard is the include guard macro of the C header.
	Guard string
	// Include is the header providing struct error_desc.
	Include string
	// Color enables styling in the table format.
	Color bool
}

const (
	DefaultGuard   = "ERROR_CODES_H"
	DefaultInclude = "error_codes_def.h"
)

func (o Options) withDefaults() Options {
	if o.Guard == "" {
		o.Guard = DefaultGuard
	}
	if o.Include == "" {
		o.Include = DefaultInclude
	}
	return o
}

// Renderer writes one artifact.
type Renderer interface {
	Render(w io.Writer, res *assign.Result) error
}

// New returns the renderer for format.
func New(format Format, opts Options) (Renderer, error) {
	opts = opts.withDefaults()
	switch format {
	case FormatC, "":
		return cHeader{opts: opts}, nil
	case FormatJSON:
		return jsonTable{}, nil
	case FormatMsgpack:
		return msgpackTable{}, nil
	case FormatTable:
		return termTable{color: opts.Color}, nil
	}
	return nil, fmt.Errorf("unsupported output format %q", format)
}

// Render is New followed by Render.
func Render(w io.Writer, res *assign.Result, format Format, opts Options) error {
	r, err := New(format, opts)
	if err != nil {
		return err
	}
	return r.Render(w, res)
}
