package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ecgen/internal/config"
)

// sampleInput is the taxonomy written by `ecgen init`.
const sampleInput = "errors.yaml"

const sampleTaxonomy = `# Error taxonomy. Modules and submodules are numbered in declaration order.
modules:
  core:
    errors:
      E_CORE_INVALID_ARGUMENT: "Invalid argument"
      E_CORE_OUT_OF_MEMORY: "Out of memory"
    submodules:
      config:
        errors:
          E_CONFIG_NOT_FOUND: "Configuration file not found"
`

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Create ecgen.toml and a sample taxonomy",
		Long: `Initialize a project by writing ecgen.toml and errors.yaml. If [dir] is
omitted, the current directory is used; a missing directory is created.
An existing taxonomy is kept.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) == 1 {
		target = args[0]
	}
	target, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	manifestPath := filepath.Join(target, config.ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("project already initialized: %s exists", manifestPath)
	}
	if err := os.WriteFile(manifestPath, []byte(config.DefaultManifest(sampleInput)), 0o600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	inputPath := filepath.Join(target, sampleInput)
	createdInput := false
	if _, err := os.Stat(inputPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(inputPath, []byte(sampleTaxonomy), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", sampleInput, err)
		}
		createdInput = true
	}

	out := cmd.OutOrStdout()
	rel := target
	if wd, err := os.Getwd(); err == nil {
		if r, err := filepath.Rel(wd, target); err == nil {
			rel = r
		}
	}
	fmt.Fprintf(out, "Initialized ecgen project in %s\n", rel)
	fmt.Fprintf(out, "  - %s\n", config.ManifestName)
	if createdInput {
		fmt.Fprintf(out, "  - %s\n", sampleInput)
	} else {
		fmt.Fprintf(out, "  - %s (existing)\n", sampleInput)
	}
	return nil
}
