package taxonomy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const sampleYAML = `modules:
  zeta:
    errors:
      E_ZETA_B: "second declared first"
      E_ZETA_A: "first declared second"
    submodules:
      io:
        errors:
          E_ZETA_IO: "io failure"
      empty: {}
  alpha:
    submodules:
      net:
        errors:
          E_ALPHA_NET: "net failure"
`

const sampleTOML = `[modules.zeta.errors]
E_ZETA_B = "second declared first"
E_ZETA_A = "first declared second"

[modules.zeta.submodules.io.errors]
E_ZETA_IO = "io failure"

[modules.zeta.submodules.empty]

[modules.alpha.submodules.net.errors]
E_ALPHA_NET = "net failure"
`

type flatEntry struct {
	Module, Submodule, Error, Description string
}

func flatten(t *Taxonomy) []flatEntry {
	var out []flatEntry
	for _, m := range t.Modules {
		for _, e := range m.Errors {
			out = append(out, flatEntry{m.Name, "", e.Name, e.Description})
		}
		for _, s := range m.Submodules {
			out = append(out, flatEntry{m.Name, s.Name, "", ""})
			for _, e := range s.Errors {
				out = append(out, flatEntry{m.Name, s.Name, e.Name, e.Description})
			}
		}
	}
	return out
}

var sampleFlat = []flatEntry{
	{"zeta", "", "E_ZETA_B", "second declared first"},
	{"zeta", "", "E_ZETA_A", "first declared second"},
	{"zeta", "io", "", ""},
	{"zeta", "io", "E_ZETA_IO", "io failure"},
	{"zeta", "empty", "", ""},
	{"alpha", "net", "", ""},
	{"alpha", "net", "E_ALPHA_NET", "net failure"},
}

func TestParseYAMLKeepsDeclarationOrder(t *testing.T) {
	tax, err := ParseYAML("errors.yaml", []byte(sampleYAML))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	if got := flatten(tax); !reflect.DeepEqual(got, sampleFlat) {
		t.Fatalf("unexpected hierarchy:\n got %+v\nwant %+v", got, sampleFlat)
	}
	if tax.ErrorCount() != 4 {
		t.Fatalf("ErrorCount = %d, want 4", tax.ErrorCount())
	}
	if pos := tax.Modules[0].Errors[0].Pos; pos.Line != 4 || pos.Column != 7 {
		t.Fatalf("E_ZETA_B pos = %+v, want 4:7", pos)
	}
}

func TestParseTOMLMatchesYAML(t *testing.T) {
	tax, err := ParseTOML("errors.toml", []byte(sampleTOML))
	if err != nil {
		t.Fatalf("ParseTOML: %v", err)
	}
	if got := flatten(tax); !reflect.DeepEqual(got, sampleFlat) {
		t.Fatalf("unexpected hierarchy:\n got %+v\nwant %+v", got, sampleFlat)
	}
}

func TestParseYAMLOptionalKeys(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		modules int
	}{
		{name: "empty modules", src: "modules: {}\n", modules: 0},
		{name: "no modules key", src: "{}\n", modules: 0},
		{name: "module without errors", src: "modules:\n  core: {}\n", modules: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tax, err := ParseYAML("t.yaml", []byte(tt.src))
			if err != nil {
				t.Fatalf("ParseYAML: %v", err)
			}
			if len(tax.Modules) != tt.modules {
				t.Fatalf("got %d modules, want %d", len(tax.Modules), tt.modules)
			}
		})
	}
}

func TestParseYAMLMalformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"empty document", "", "empty document"},
		{"null document", "~\n", "expected mapping, got null"},
		{"modules is a list", "modules:\n  - a\n", "modules: expected mapping, got sequence"},
		{"module is null", "modules:\n  core:\n", "modules.core: expected mapping, got null"},
		{"errors is a string", "modules:\n  core:\n    errors: nope\n", "modules.core.errors: expected mapping, got string"},
		{"description not string", "modules:\n  core:\n    errors:\n      E_X: 42\n", "modules.core.errors.E_X: description must be a string, got number"},
		{"nested submodules", "modules:\n  core:\n    submodules:\n      a:\n        submodules: {}\n", "submodules cannot be nested"},
		{"unknown module key", "modules:\n  core:\n    error: {}\n", "unknown module key"},
		{"unknown top-level", "modulez: {}\n", "unknown top-level key"},
		{"duplicate error", "modules:\n  core:\n    errors:\n      E_X: a\n      E_X: b\n", "duplicate key (first declared at line 4)"},
		{"syntax", "modules: [\n", "invalid YAML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML("bad.yaml", []byte(tt.src))
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
			if !strings.HasPrefix(err.Error(), "bad.yaml") {
				t.Fatalf("error %q does not name the file", err)
			}
		})
	}
}

func TestParseYAMLAliases(t *testing.T) {
	src := `common: &common
  E_SHARED: "shared"
`
	// top-level anchors are not part of the schema
	if _, err := ParseYAML("a.yaml", []byte(src)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected unknown key error, got %v", err)
	}

	src = `modules:
  a:
    errors: &errs
      E_ONE: "one"
  b:
    submodules:
      copy:
        errors: *errs
`
	tax, err := ParseYAML("a.yaml", []byte(src))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	if got := tax.Modules[1].Submodules[0].Errors[0].Name; got != "E_ONE" {
		t.Fatalf("alias not resolved, got %q", got)
	}
}

func TestParseTOMLMalformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"modules is a string", "modules = \"x\"\n", "modules: expected table, got string"},
		{"description number", "[modules.core.errors]\nE_X = 1\n", "modules.core.errors.E_X: description must be a string, got number"},
		{"nested submodules", "[modules.core.submodules.a.submodules.b]\n", "submodules cannot be nested"},
		{"syntax", "[modules\n", "invalid TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTOML("bad.toml", []byte(tt.src))
			if !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected ErrMalformed, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestParseTOMLErrorPositions(t *testing.T) {
	_, err := ParseTOML("bad.toml", []byte("[modules.core.errors]\nE_X = \"a\"\nE_Y = ?\n"))
	var me *MalformedError
	if !errors.As(err, &me) {
		t.Fatalf("expected *MalformedError, got %v", err)
	}
	if me.Pos.Line != 3 || me.Pos.Column < 1 {
		t.Fatalf("syntax error at %+v, want line 3 with a column", me.Pos)
	}
	if !strings.HasPrefix(err.Error(), fmt.Sprintf("bad.toml:3:%d: invalid TOML", me.Pos.Column)) {
		t.Fatalf("unexpected message %q", err)
	}

	_, err = ParseTOML("bad.toml", []byte("[modules.core.errors]\nE_X = 1\n"))
	if !errors.As(err, &me) {
		t.Fatalf("expected *MalformedError, got %v", err)
	}
	if me.Pos.IsValid() || me.Path != "modules.core.errors.E_X" {
		t.Fatalf("structural error = %+v, want key path without position", me)
	}
}

func TestValidateHandBuiltTrees(t *testing.T) {
	tests := []struct {
		name string
		tax  *Taxonomy
		want string
	}{
		{
			name: "duplicate module",
			tax:  &Taxonomy{Modules: []Module{{Name: "a"}, {Name: "a"}}},
			want: `duplicate module name "a"`,
		},
		{
			name: "duplicate submodule",
			tax:  &Taxonomy{Modules: []Module{{Name: "a", Submodules: []Submodule{{Name: "s"}, {Name: "s"}}}}},
			want: `duplicate submodule name "s"`,
		},
		{
			name: "empty error name",
			tax:  &Taxonomy{Modules: []Module{{Name: "a", Errors: []Error{{Name: " "}}}}},
			want: "empty error name",
		},
		{
			name: "same error name in different scopes is fine",
			tax: &Taxonomy{Modules: []Module{{
				Name:       "a",
				Errors:     []Error{{Name: "E"}},
				Submodules: []Submodule{{Name: "s", Errors: []Error{{Name: "E"}}}},
			}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tax.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrMalformed) || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestParseFileDetectsFormat(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "errors.yml")
	tomlPath := filepath.Join(dir, "errors.toml")
	if err := os.WriteFile(yamlPath, []byte(sampleYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(tomlPath, []byte(sampleTOML), 0o600); err != nil {
		t.Fatal(err)
	}
	a, err := ParseFile(yamlPath, FormatAuto)
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	b, err := ParseFile(tomlPath, FormatAuto)
	if err != nil {
		t.Fatalf("toml: %v", err)
	}
	if !reflect.DeepEqual(flatten(a), flatten(b)) {
		t.Fatalf("yaml and toml front ends disagree")
	}
	if _, err := ParseFile(filepath.Join(dir, "missing.yaml"), FormatAuto); err == nil {
		t.Fatalf("expected read error")
	}
}
