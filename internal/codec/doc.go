// Package codec packs a (module, submodule, error) position into a single
// numeric error code.
//
// A code is a positional concatenation of three bit fields, most significant
// first:
//
//	| module | submodule | error_id |
//
// Widths come from a Layout. DefaultLayout is 5+5+6 = 16 bits. Each field is
// checked against its mask independently before the fields are combined;
// nothing is ever truncated silently. Submodule 0 is the "no submodule"
// sentinel and is always valid.
//
// Generated constants are negative by convention, so Code.Hex renders the
// value as -0x%04x. The raw value stays available through Code.Value for
// callers with other display conventions.
package codec
