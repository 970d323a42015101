package taxonomy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format selects the input front end.
type Format string

const (
	FormatAuto Format = ""
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ParseFormat reads a --input-format style flag value.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("unsupported input format %q (expected auto|yaml|toml)", s)
}

// DetectFormat picks a front end from the file extension; YAML is the default.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

// Parse decodes data with the given front end. FormatAuto detects it from
// source.
func Parse(source string, data []byte, format Format) (*Taxonomy, error) {
	if format == FormatAuto {
		format = DetectFormat(source)
	}
	switch format {
	case FormatYAML:
		return ParseYAML(source, data)
	case FormatTOML:
		return ParseTOML(source, data)
	}
	return nil, fmt.Errorf("unsupported input format %q", format)
}

// ParseFile reads and parses a taxonomy file.
func ParseFile(path string, format Format) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy: %w", err)
	}
	return Parse(path, data, format)
}
