package assign

import (
	"fmt"
	"strings"

	"ecgen/internal/codec"
	"ecgen/internal/taxonomy"
)

// UnknownDescription is what Describe returns for codes outside the table.
const UnknownDescription = "Unknown error"

// Record is one resolved error. Submodule is empty for errors declared
// directly on a module.
type Record struct {
	Module      string
	Submodule   string
	Name        string
	Code        codec.Code
	Description string

	ModuleID    int
	SubmoduleID int
	ErrorID     int
}

// InSubmodule reports whether the error belongs to a submodule.
func (r Record) InSubmodule() bool { return r.Submodule != "" }

// Scope renders module or module::submodule.
func (r Record) Scope() string {
	if r.InSubmodule() {
		return r.Module + "::" + r.Submodule
	}
	return r.Module
}

// Result is the ordered output of Assign.
type Result struct {
	Layout  codec.Layout
	Records []Record
	// MaxNameLen is the longest error name counted in runes. The C header
	// pads names to this length.
	MaxNameLen int
}

// Len returns the number of records.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Records)
}

// Lookup finds the record carrying code.
func (r *Result) Lookup(code codec.Code) (Record, bool) {
	if r == nil {
		return Record{}, false
	}
	for _, rec := range r.Records {
		if rec.Code == code {
			return rec, true
		}
	}
	return Record{}, false
}

// Describe works like strerror over the generated table.
func (r *Result) Describe(code codec.Code) string {
	if rec, ok := r.Lookup(code); ok {
		return rec.Description
	}
	return UnknownDescription
}

// PathError ties an encoding failure to the hierarchy entry that caused it.
type PathError struct {
	Module    string
	Submodule string
	ErrorName string
	Pos       taxonomy.Pos
	Err       error
}

func (e *PathError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %q", e.Module)
	if e.Submodule != "" {
		fmt.Fprintf(&b, ", submodule %q", e.Submodule)
	}
	fmt.Fprintf(&b, ", error %q", e.ErrorName)
	if e.Pos.IsValid() {
		fmt.Fprintf(&b, " (line %d)", e.Pos.Line)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *PathError) Unwrap() error { return e.Err }
