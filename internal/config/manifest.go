// Package config loads the ecgen.toml project manifest.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"ecgen/internal/assign"
	"ecgen/internal/render"
	"ecgen/internal/taxonomy"
)

// ManifestName is the file searched for from the working directory upwards.
const ManifestName = "ecgen.toml"

type Manifest struct {
	Path   string
	Root   string
	Config Config
}

type Config struct {
	Generate GenerateConfig `toml:"generate"`
	IDs      IDConfig       `toml:"ids"`
}

type GenerateConfig struct {
	Inputs      []string `toml:"inputs"`
	InputFormat string   `toml:"input_format"`
	Output      string   `toml:"output"`
	OutDir      string   `toml:"out_dir"`
	Format      string   `toml:"format"`
	Guard       string   `toml:"guard"`
	Include     string   `toml:"include"`
	Jobs        int      `toml:"jobs"`
}

// IDConfig overrides id sequences. Ids are 1-based: a zero or missing value
// keeps the default of 1, so 0 cannot be configured as a start.
type IDConfig struct {
	ModuleStart    int `toml:"module_start"`
	ModuleStep     int `toml:"module_step"`
	SubmoduleStart int `toml:"submodule_start"`
	SubmoduleStep  int `toml:"submodule_step"`
	ErrorStart     int `toml:"error_start"`
	ErrorStep      int `toml:"error_step"`
}

// Find walks up from startDir looking for ecgen.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover finds and loads the manifest above startDir. The bool is false
// when there is none, which is not an error.
func Discover(startDir string) (*Manifest, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	return m, true, nil
}

// Load parses and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &Manifest{Path: abs, Root: filepath.Dir(abs), Config: cfg}, nil
}

// Validate checks enumerated values and sequences.
func (c Config) Validate() error {
	g := c.Generate
	if _, err := render.ParseFormat(g.Format); err != nil {
		return fmt.Errorf("[generate].format: %w", err)
	}
	if _, err := taxonomy.ParseFormat(g.InputFormat); err != nil {
		return fmt.Errorf("[generate].input_format: %w", err)
	}
	if g.Output != "" && len(g.Inputs) > 1 {
		return fmt.Errorf("[generate].output needs exactly one input, use out_dir for %d inputs", len(g.Inputs))
	}
	if g.Jobs < 0 {
		return fmt.Errorf("[generate].jobs must not be negative")
	}
	for _, in := range g.Inputs {
		if strings.TrimSpace(in) == "" {
			return fmt.Errorf("[generate].inputs contains an empty path")
		}
	}
	ids := map[string]int{
		"module_start": c.IDs.ModuleStart, "module_step": c.IDs.ModuleStep,
		"submodule_start": c.IDs.SubmoduleStart, "submodule_step": c.IDs.SubmoduleStep,
		"error_start": c.IDs.ErrorStart, "error_step": c.IDs.ErrorStep,
	}
	for key, v := range ids {
		if v < 0 {
			return fmt.Errorf("[ids].%s must not be negative", key)
		}
	}
	return nil
}

// AssignOptions maps [ids] onto assign.Options.
func (c Config) AssignOptions() assign.Options {
	return assign.Options{
		ModuleIDs:    assign.Sequence{Start: c.IDs.ModuleStart, Step: c.IDs.ModuleStep},
		SubmoduleIDs: assign.Sequence{Start: c.IDs.SubmoduleStart, Step: c.IDs.SubmoduleStep},
		ErrorIDs:     assign.Sequence{Start: c.IDs.ErrorStart, Step: c.IDs.ErrorStep},
	}
}

// RenderOptions maps [generate] onto render.Options.
func (c Config) RenderOptions() render.Options {
	return render.Options{Guard: c.Generate.Guard, Include: c.Generate.Include}
}

// Resolve makes a manifest-relative path absolute.
func (m *Manifest) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Root, filepath.FromSlash(p))
}

// Inputs returns [generate].inputs resolved against the manifest directory.
func (m *Manifest) Inputs() []string {
	out := make([]string, 0, len(m.Config.Generate.Inputs))
	for _, in := range m.Config.Generate.Inputs {
		out = append(out, m.Resolve(in))
	}
	return out
}

// DefaultManifest returns the manifest written by `ecgen init`.
func DefaultManifest(input string) string {
	return fmt.Sprintf(`# ecgen project manifest
[generate]
inputs = [%q]
output = "error_codes.h"
format = "c"
guard = "ERROR_CODES_H"
include = "error_codes_def.h"

# ids are 1-based; 0 or a missing key means 1
[ids]
module_start = 1
submodule_start = 1
error_start = 1
`, input)
}
