// Package taxonomy models the error hierarchy fed to the code assigner and
// parses it from YAML or TOML documents.
//
// The hierarchy has exactly two container levels. A Module owns direct errors
// and an ordered list of Submodules; a Submodule owns errors only. All lists
// keep the declaration order of the source document because ids are assigned
// sequentially in that order.
package taxonomy

import (
	"fmt"
	"strings"
)

// Pos is a 1-based location in the source document. Zero means unknown.
type Pos struct {
	Line   int
	Column int
}

func (p Pos) IsValid() bool { return p.Line > 0 }

// Error is a leaf entry: a named error and its description.
type Error struct {
	Name        string
	Description string
	Pos         Pos
}

// Node is a container of errors: either *Module or *Submodule.
type Node interface {
	NodeName() string
	NodeErrors() []Error
	NodePos() Pos
	isNode()
}

// Submodule groups errors under a module. It cannot nest further.
type Submodule struct {
	Name   string
	Errors []Error
	Pos    Pos
}

func (s *Submodule) NodeName() string    { return s.Name }
func (s *Submodule) NodeErrors() []Error { return s.Errors }
func (s *Submodule) NodePos() Pos        { return s.Pos }
func (*Submodule) isNode()               {}

// Module is a top-level container.
type Module struct {
	Name       string
	Errors     []Error
	Submodules []Submodule
	Pos        Pos
}

func (m *Module) NodeName() string    { return m.Name }
func (m *Module) NodeErrors() []Error { return m.Errors }
func (m *Module) NodePos() Pos        { return m.Pos }
func (*Module) isNode()               {}

// Taxonomy is the root of the hierarchy.
type Taxonomy struct {
	// Source names the document the taxonomy came from, used in error messages.
	Source  string
	Modules []Module
}

// ErrorCount returns the number of leaf errors in the whole hierarchy.
func (t *Taxonomy) ErrorCount() int {
	if t == nil {
		return 0
	}
	n := 0
	for i := range t.Modules {
		m := &t.Modules[i]
		n += len(m.Errors)
		for j := range m.Submodules {
			n += len(m.Submodules[j].Errors)
		}
	}
	return n
}

// Validate checks the invariants parsers guarantee: non-empty names, unique
// module names, unique submodule names within a module and unique error names
// within a node. Trees built by hand go through the same check before ids are
// assigned.
func (t *Taxonomy) Validate() error {
	if t == nil {
		return &MalformedError{Reason: "nil taxonomy"}
	}
	seen := make(map[string]Pos, len(t.Modules))
	for i := range t.Modules {
		m := &t.Modules[i]
		path := joinPath("modules", m.Name)
		if err := t.checkName(seen, m.Name, m.Pos, path, "module"); err != nil {
			return err
		}
		if err := t.checkErrors(m, path); err != nil {
			return err
		}
		subs := make(map[string]Pos, len(m.Submodules))
		for j := range m.Submodules {
			s := &m.Submodules[j]
			subPath := joinPath(path, "submodules", s.Name)
			if err := t.checkName(subs, s.Name, s.Pos, subPath, "submodule"); err != nil {
				return err
			}
			if err := t.checkErrors(s, subPath); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Taxonomy) checkErrors(n Node, path string) error {
	errs := n.NodeErrors()
	seen := make(map[string]Pos, len(errs))
	for _, e := range errs {
		if err := t.checkName(seen, e.Name, e.Pos, joinPath(path, "errors", e.Name), "error"); err != nil {
			return err
		}
	}
	return nil
}

func (t *Taxonomy) checkName(seen map[string]Pos, name string, pos Pos, path, kind string) error {
	if strings.TrimSpace(name) == "" {
		return t.malformed(pos, path, "empty "+kind+" name")
	}
	if prev, dup := seen[name]; dup {
		reason := fmt.Sprintf("duplicate %s name %q", kind, name)
		if prev.IsValid() {
			reason += fmt.Sprintf(" (first declared at line %d)", prev.Line)
		}
		return t.malformed(pos, path, reason)
	}
	seen[name] = pos
	return nil
}

func (t *Taxonomy) malformed(pos Pos, path, reason string) *MalformedError {
	return &MalformedError{File: t.Source, Pos: pos, Path: path, Reason: reason}
}

func joinPath(parts ...string) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(p)
	}
	return b.String()
}
