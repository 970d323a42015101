package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"
)

// Code is a packed error code. The generated constant is its negation.
type Code uint32

// Value returns the raw packed value.
func (c Code) Value() uint32 { return uint32(c) }

// Negative returns the signed value used by generated constants.
func (c Code) Negative() int64 { return -int64(c) }

// Hex renders the code as -0x%04x.
func (c Code) Hex() string {
	return fmt.Sprintf("-0x%04x", uint32(c))
}

func (c Code) String() string { return c.Hex() }

// ErrEncodingOverflow matches every *OverflowError via errors.Is.
var ErrEncodingOverflow = errors.New("encoding overflow")

// OverflowError reports a field value that does not fit its bit width.
type OverflowError struct {
	Field Field
	Value int
	Bits  uint8
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("encoding error: %s %d exceeds allowed bit size of %d bits", e.idName(), e.Value, e.Bits)
}

func (e *OverflowError) idName() string {
	if e.Field == FieldError {
		return e.Field.String()
	}
	return e.Field.String() + "_id"
}

// Is makes errors.Is(err, ErrEncodingOverflow) work.
func (e *OverflowError) Is(target error) bool {
	return target == ErrEncodingOverflow
}

// Encode packs the three ids into a code. Every field is validated on its own
// before combination; a value outside 0..mask yields *OverflowError.
func (l Layout) Encode(module, submodule, errorID int) (Code, error) {
	values := [...]int{module, submodule, errorID}
	var code uint32
	for i, f := range Fields {
		v, err := l.checkField(f, values[i])
		if err != nil {
			return 0, err
		}
		code |= v << l.shift(f)
	}
	return Code(code), nil
}

func (l Layout) checkField(f Field, value int) (uint32, error) {
	v, err := safecast.Conv[uint32](value)
	if err != nil || v > l.Mask(f) {
		return 0, &OverflowError{Field: f, Value: value, Bits: l.Bits(f)}
	}
	return v, nil
}

// Decode splits a code back into its fields using shift + mask.
func (l Layout) Decode(c Code) (module, submodule, errorID int) {
	v := uint32(c)
	module = int(v >> l.shift(FieldModule) & l.Mask(FieldModule))
	submodule = int(v >> l.shift(FieldSubmodule) & l.Mask(FieldSubmodule))
	errorID = int(v & l.Mask(FieldError))
	return module, submodule, errorID
}

// Fits reports whether c uses no bits above the layout's fields.
func (l Layout) Fits(c Code) bool {
	return uint64(c)>>l.UsedBits() == 0
}

// ParseCode reads a code written the way humans copy it out of headers and
// logs: "(-0x0841)", "-0x0841", "0x841", "2113" or "-2113". The sign is
// ignored since generated constants are just negated codes.
func ParseCode(s string) (Code, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "("), ")")
	raw = strings.TrimPrefix(raw, "-")
	raw = strings.TrimPrefix(raw, "+")
	base := 10
	if lower := strings.ToLower(raw); strings.HasPrefix(lower, "0x") {
		raw = raw[2:]
		base = 16
	}
	if raw == "" {
		return 0, fmt.Errorf("invalid code %q", s)
	}
	v, err := strconv.ParseUint(raw, base, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid code %q: %w", s, err)
	}
	return Code(v), nil
}
