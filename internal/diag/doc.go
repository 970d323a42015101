// Package diag defines the findings model shared by the taxonomy checks.
//
// # Purpose
//
//   - Provide deterministic data structures for findings about a taxonomy:
//     malformed structure, encoding capacity, identifier naming, descriptions.
//   - Offer light-weight utilities (Reporter, Bag) so checks can emit findings
//     without coupling to storage or formatting.
//
// # Scope
//
// Package diag does no IO and no CLI integration. FormatShort renders the
// single-line form used by the CLI and by tests; richer rendering belongs to
// the command layer.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – tri-level enum (Info, Warning, Error).
//   - Code – compact numeric identifier (see codes.go) with a stable string
//     form such as NAM3001.
//   - Message – short and actionable.
//   - Primary – Location of the entry the finding is about.
//   - Notes – optional secondary locations, e.g. the first declaration of a
//     duplicated name.
//
// Error-severity findings make generation fail; warnings and infos do not.
package diag
