// Package lint inspects a taxonomy before generation and reports findings as
// diagnostics. Unlike assign, which stops at the first overflow, lint visits
// every scope so a single run lists all problems.
package lint

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"ecgen/internal/assign"
	"ecgen/internal/codec"
	"ecgen/internal/diag"
	"ecgen/internal/taxonomy"
)

// DefaultNearCapacity is the share of a field above which an info finding is
// emitted.
const DefaultNearCapacity = 0.9

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Options configure Check.
type Options struct {
	Assign assign.Options
	// NearCapacity in (0, 1]; zero means DefaultNearCapacity.
	NearCapacity float64
}

type checker struct {
	tax    *taxonomy.Taxonomy
	rep    diag.Reporter
	layout codec.Layout
	opts   Options
	names  map[string]diag.Location
}

// Check runs every rule over tax and reports to rep.
func Check(tax *taxonomy.Taxonomy, rep diag.Reporter, opts Options) {
	if opts.NearCapacity <= 0 || opts.NearCapacity > 1 {
		opts.NearCapacity = DefaultNearCapacity
	}
	c := &checker{
		tax:    tax,
		rep:    rep,
		layout: opts.Assign.Layout,
		opts:   opts,
		names:  make(map[string]diag.Location, tax.ErrorCount()),
	}
	if c.layout == (codec.Layout{}) {
		c.layout = codec.DefaultLayout
	}
	c.run()
}

func (c *checker) loc(pos taxonomy.Pos, path string) diag.Location {
	return diag.Location{File: c.tax.Source, Line: pos.Line, Column: pos.Column, Path: path}
}

func (c *checker) run() {
	mseq := seq(c.opts.Assign.ModuleIDs)
	sseq := seq(c.opts.Assign.SubmoduleIDs)

	lastModule := 0
	for i := range c.tax.Modules {
		m := &c.tax.Modules[i]
		moduleID := mseq.Start + i*mseq.Step
		path := "modules." + m.Name
		if scopeHasErrors(m) {
			lastModule = moduleID
			c.field(codec.FieldModule, moduleID, m.Pos, path, "module "+m.Name)
		}
		c.scope(m, path)

		lastSub := 0
		for j := range m.Submodules {
			s := &m.Submodules[j]
			subID := sseq.Start + j*sseq.Step
			subPath := path + ".submodules." + s.Name
			if len(s.Errors) > 0 {
				lastSub = subID
				c.field(codec.FieldSubmodule, subID, s.Pos, subPath, "submodule "+m.Name+"::"+s.Name)
			}
			c.scope(s, subPath)
		}
		c.near(codec.FieldSubmodule, lastSub, m.Pos, path+".submodules", "submodule ids of "+m.Name)
	}
	c.near(codec.FieldModule, lastModule, taxonomy.Pos{}, "modules", "module ids")
}

func scopeHasErrors(m *taxonomy.Module) bool {
	if len(m.Errors) > 0 {
		return true
	}
	for i := range m.Submodules {
		if len(m.Submodules[i].Errors) > 0 {
			return true
		}
	}
	return false
}

func seq(s assign.Sequence) assign.Sequence {
	if s.Start == 0 {
		s.Start = 1
	}
	if s.Step == 0 {
		s.Step = 1
	}
	return s
}

// field reports an id that does not fit its bit field.
func (c *checker) field(f codec.Field, id int, pos taxonomy.Pos, path, what string) {
	if id <= c.layout.Max(f) {
		return
	}
	diag.ReportError(c.rep, diag.EncOverflow, c.loc(pos, path),
		fmt.Sprintf("%s gets %s id %d, %d-bit field allows at most %d", what, f, id, c.layout.Bits(f), c.layout.Max(f))).Emit()
}

// near reports a field whose highest used id crossed the capacity threshold.
func (c *checker) near(f codec.Field, last int, pos taxonomy.Pos, path, what string) {
	max := c.layout.Max(f)
	if last == 0 || last > max || float64(last) < c.opts.NearCapacity*float64(max) {
		return
	}
	diag.ReportInfo(c.rep, diag.EncCapacityNear, c.loc(pos, path),
		fmt.Sprintf("%s: %d of %d used", what, last, max)).Emit()
}

func (c *checker) scope(n taxonomy.Node, path string) {
	eseq := seq(c.opts.Assign.ErrorIDs)
	last := 0
	for k, e := range n.NodeErrors() {
		errPath := path + ".errors." + e.Name
		errID := eseq.Start + k*eseq.Step
		last = errID
		c.field(codec.FieldError, errID, e.Pos, errPath, "error "+e.Name)
		c.name(e, errPath)
		c.description(e, errPath)
	}
	c.near(codec.FieldError, last, n.NodePos(), path+".errors", "error ids of "+strings.TrimPrefix(path, "modules."))
}

func (c *checker) name(e taxonomy.Error, path string) {
	loc := c.loc(e.Pos, path)
	switch {
	case !identRe.MatchString(e.Name):
		diag.ReportWarning(c.rep, diag.NameInvalidIdentifier, loc,
			fmt.Sprintf("%q cannot be used as a C macro name", e.Name)).Emit()
	case strings.HasPrefix(e.Name, "__") || (len(e.Name) > 1 && e.Name[0] == '_' && e.Name[1] >= 'A' && e.Name[1] <= 'Z'):
		diag.ReportWarning(c.rep, diag.NameReservedIdentifier, loc,
			fmt.Sprintf("%q is reserved for the C implementation", e.Name)).Emit()
	}
	if first, dup := c.names[e.Name]; dup {
		diag.ReportError(c.rep, diag.NameDuplicate, loc,
			fmt.Sprintf("%q is already declared in another scope; generated constants would clash", e.Name)).
			WithNote(first, "first declared here").
			Emit()
		return
	}
	c.names[e.Name] = loc
}

func (c *checker) description(e taxonomy.Error, path string) {
	loc := c.loc(e.Pos, path)
	switch {
	case strings.TrimSpace(e.Description) == "":
		diag.ReportWarning(c.rep, diag.DescEmpty, loc, fmt.Sprintf("%s has an empty description", e.Name)).Emit()
	case strings.ContainsAny(e.Description, "\r\n"):
		diag.ReportWarning(c.rep, diag.DescMultiline, loc,
			fmt.Sprintf("%s description spans several lines; it is escaped in generated output", e.Name)).Emit()
	}
}

// FromError converts a parse or assignment failure into a diagnostic. file is
// used when the error does not name its document. The second result is false
// for errors that carry no taxonomy context.
func FromError(err error, file string) (diag.Diagnostic, bool) {
	var me *taxonomy.MalformedError
	if errors.As(err, &me) {
		if me.File != "" {
			file = me.File
		}
		loc := diag.Location{File: file, Line: me.Pos.Line, Column: me.Pos.Column, Path: me.Path}
		msg := me.Reason
		if me.Path != "" {
			msg = me.Path + ": " + me.Reason
		}
		return diag.NewError(diag.TaxMalformed, loc, msg), true
	}
	var pe *assign.PathError
	if errors.As(err, &pe) {
		path := "modules." + pe.Module
		if pe.Submodule != "" {
			path += ".submodules." + pe.Submodule
		}
		path += ".errors." + pe.ErrorName
		loc := diag.Location{File: file, Line: pe.Pos.Line, Column: pe.Pos.Column, Path: path}
		return diag.NewError(diag.EncOverflow, loc, pe.Error()), true
	}
	return diag.Diagnostic{}, false
}
