package diag

import (
	"fmt"
	"path/filepath"
)

// Location points at an entry of a taxonomy document. Line and Column are
// 1-based; zero means unknown (hand-built trees, TOML input).
type Location struct {
	File   string
	Line   int
	Column int
	// Path is the dotted key path, e.g. modules.net.errors.E_NET_DOWN.
	Path string
}

func (l Location) String() string {
	file := filepath.ToSlash(l.File)
	switch {
	case file == "" && l.Line == 0:
		return l.Path
	case l.Line == 0:
		return file
	}
	return fmt.Sprintf("%s:%d:%d", file, l.Line, l.Column)
}

type Note struct {
	Loc Location
	Msg string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  Location
	Notes    []Note
}
