// Package driver runs the generation pipeline for a single taxonomy document:
// parse, lint, assign and render.
package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"ecgen/internal/assign"
	"ecgen/internal/diag"
	"ecgen/internal/lint"
	"ecgen/internal/observ"
	"ecgen/internal/render"
	"ecgen/internal/taxonomy"
)

// ErrDiagnostics is returned when lint reported at least one error.
var ErrDiagnostics = errors.New("taxonomy has errors")

// Options configure Generate.
type Options struct {
	InputFormat taxonomy.Format
	Assign      assign.Options
	Format      render.Format
	Render      render.Options
	// Lint runs the lint rules before assignment. Lint errors abort
	// generation with ErrDiagnostics.
	Lint bool
	// MaxDiagnostics caps how many diagnostics Output.Bag stores. Findings
	// past the cap are still counted and still abort generation.
	MaxDiagnostics int
	// Logger receives debug traces. Nil disables logging.
	Logger *zerolog.Logger
	// Timer records phase durations. Nil disables timing.
	Timer *observ.Timer
}

// Output is everything produced for one document.
type Output struct {
	Path     string
	Taxonomy *taxonomy.Taxonomy
	Result   *assign.Result
	Bag      *diag.Bag
	Artifact []byte
}

func (o Options) logger() *zerolog.Logger {
	if o.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return o.Logger
}

// Generate reads path and renders it. Parse and assignment failures are also
// recorded in Output.Bag so callers can print them as diagnostics.
func Generate(ctx context.Context, path string, opts Options) (*Output, error) {
	log := opts.logger()
	format := opts.InputFormat
	if format == taxonomy.FormatAuto {
		format = taxonomy.DetectFormat(path)
	}
	idx := opts.Timer.Begin("read")
	data, err := os.ReadFile(path)
	opts.Timer.End(idx, path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to read taxonomy")
		return &Output{Path: path, Bag: diag.NewBag(opts.MaxDiagnostics)}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return GenerateBytes(ctx, path, data, format, opts)
}

// GenerateBytes runs the pipeline over an in-memory document. source names
// the document in errors and diagnostics.
func GenerateBytes(ctx context.Context, source string, data []byte, format taxonomy.Format, opts Options) (*Output, error) {
	log := opts.logger().With().Str("source", source).Logger()
	out := &Output{Path: source, Bag: diag.NewBag(opts.MaxDiagnostics)}

	if err := ctx.Err(); err != nil {
		return out, err
	}
	err := opts.Timer.Track("parse", func() error {
		var perr error
		out.Taxonomy, perr = taxonomy.Parse(source, data, format)
		return perr
	})
	if err != nil {
		out.record(err)
		return out, err
	}
	log.Debug().Int("modules", len(out.Taxonomy.Modules)).Int("errors", out.Taxonomy.ErrorCount()).Msg("parsed taxonomy")

	if opts.Lint {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		_ = opts.Timer.Track("lint", func() error {
			lint.Check(out.Taxonomy, diag.NewDedupReporter(diag.BagReporter{Bag: out.Bag}), lint.Options{Assign: opts.Assign})
			return nil
		})
		out.Bag.Sort()
		log.Debug().Int("diagnostics", out.Bag.Len()).Msg("lint finished")
		if out.Bag.HasErrors() {
			return out, fmt.Errorf("%s: %w", source, ErrDiagnostics)
		}
	}

	if err := ctx.Err(); err != nil {
		return out, err
	}
	err = opts.Timer.Track("assign", func() error {
		var aerr error
		out.Result, aerr = assign.Assign(out.Taxonomy, opts.Assign)
		return aerr
	})
	if err != nil {
		out.record(err)
		return out, err
	}
	log.Debug().Int("records", out.Result.Len()).Int("max_name_len", out.Result.MaxNameLen).Msg("assigned codes")

	if err := ctx.Err(); err != nil {
		return out, err
	}
	var buf bytes.Buffer
	err = opts.Timer.Track("render", func() error {
		return render.Render(&buf, out.Result, opts.Format, opts.Render)
	})
	if err != nil {
		return out, fmt.Errorf("failed to render %s: %w", source, err)
	}
	out.Artifact = buf.Bytes()
	log.Debug().Str("format", string(opts.Format)).Int("bytes", len(out.Artifact)).Msg("rendered artifact")
	return out, nil
}

func (o *Output) record(err error) {
	if d, ok := lint.FromError(err, o.Path); ok {
		o.Bag.Add(d)
	}
}
