package taxonomy

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformed matches every *MalformedError via errors.Is.
var ErrMalformed = errors.New("malformed taxonomy")

// MalformedError reports hierarchy structure that is missing or has the wrong
// type. Only absent optional keys are tolerated; nothing is repaired.
type MalformedError struct {
	File   string
	Pos    Pos
	Path   string // dotted key path, e.g. modules.net.errors
	Reason string
}

func (e *MalformedError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		if e.Pos.IsValid() {
			fmt.Fprintf(&b, ":%d:%d", e.Pos.Line, e.Pos.Column)
		}
		b.WriteString(": ")
	} else if e.Pos.IsValid() {
		fmt.Fprintf(&b, "line %d:%d: ", e.Pos.Line, e.Pos.Column)
	}
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Reason)
	return b.String()
}

// Is makes errors.Is(err, ErrMalformed) work.
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}
