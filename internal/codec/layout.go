package codec

import (
	"errors"
	"fmt"
)

// Field identifies one bit field of a code.
type Field uint8

const (
	// FieldModule is the most significant field.
	FieldModule Field = iota
	// FieldSubmodule sits between module and error id; 0 means "no submodule".
	FieldSubmodule
	// FieldError is the least significant field.
	FieldError
)

func (f Field) String() string {
	switch f {
	case FieldModule:
		return "module"
	case FieldSubmodule:
		return "submodule"
	case FieldError:
		return "error_id"
	}
	return "unknown"
}

// Fields lists all fields from most to least significant.
var Fields = [...]Field{FieldModule, FieldSubmodule, FieldError}

// maxTotalBits bounds the layout so a code always fits Code.
const maxTotalBits = 32

// Layout holds bit widths of the code fields.
type Layout struct {
	ModuleBits    uint8
	SubmoduleBits uint8
	ErrorBits     uint8
	// TotalBits is the width of the whole code; the fields must fit into it.
	TotalBits uint8
}

// DefaultLayout is the 16-bit layout used by generated headers.
var DefaultLayout = Layout{
	ModuleBits:    5,
	SubmoduleBits: 5,
	ErrorBits:     6,
	TotalBits:     16,
}

// ErrInvalidLayout is returned by Validate for zero-width fields or fields
// that do not fit TotalBits.
var ErrInvalidLayout = errors.New("invalid code layout")

// Validate checks that every field has a positive width and the sum of the
// widths fits into TotalBits.
func (l Layout) Validate() error {
	for _, f := range Fields {
		if l.Bits(f) == 0 {
			return fmt.Errorf("%w: %s field has zero width", ErrInvalidLayout, f)
		}
	}
	if l.TotalBits == 0 || l.TotalBits > maxTotalBits {
		return fmt.Errorf("%w: total width %d out of range 1..%d", ErrInvalidLayout, l.TotalBits, maxTotalBits)
	}
	if sum := l.UsedBits(); sum > int(l.TotalBits) {
		return fmt.Errorf("%w: fields use %d bits, total width is %d", ErrInvalidLayout, sum, l.TotalBits)
	}
	return nil
}

// UsedBits returns the sum of the field widths.
func (l Layout) UsedBits() int {
	return int(l.ModuleBits) + int(l.SubmoduleBits) + int(l.ErrorBits)
}

// Bits returns the width of f.
func (l Layout) Bits(f Field) uint8 {
	switch f {
	case FieldModule:
		return l.ModuleBits
	case FieldSubmodule:
		return l.SubmoduleBits
	case FieldError:
		return l.ErrorBits
	}
	return 0
}

// Mask returns the largest value that fits into f.
func (l Layout) Mask(f Field) uint32 {
	return mask(l.Bits(f))
}

// Max is Mask as an int, handy for capacity checks.
func (l Layout) Max(f Field) int {
	return int(l.Mask(f))
}

func (l Layout) shift(f Field) uint8 {
	switch f {
	case FieldModule:
		return l.SubmoduleBits + l.ErrorBits
	case FieldSubmodule:
		return l.ErrorBits
	}
	return 0
}

func mask(bits uint8) uint32 {
	return uint32(1)<<bits - 1
}
