package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ecgen/internal/config"
)

// loadManifest returns the manifest named by --config, or the one discovered
// above the working directory. A nil manifest means none was found.
func loadManifest(cmd *cobra.Command) (*config.Manifest, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path != "" {
		return config.Load(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	m, _, err := config.Discover(wd)
	return m, err
}

// resolveInputs prefers explicit arguments over [generate].inputs.
func resolveInputs(args []string, m *config.Manifest) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if m != nil {
		if inputs := m.Inputs(); len(inputs) > 0 {
			return inputs, nil
		}
		return nil, fmt.Errorf("%s: [generate].inputs is empty", m.Path)
	}
	return nil, fmt.Errorf("no input files: pass a taxonomy file or run `ecgen init` to create %s", config.ManifestName)
}

// manifestConfig returns the manifest configuration or the zero value.
func manifestConfig(m *config.Manifest) config.Config {
	if m == nil {
		return config.Config{}
	}
	return m.Config
}

// stringFlag returns the flag value when it was set on the command line and
// fallback otherwise.
func stringFlag(cmd *cobra.Command, name, fallback string) (string, error) {
	if !cmd.Flags().Changed(name) {
		return fallback, nil
	}
	return cmd.Flags().GetString(name)
}

func intFlag(cmd *cobra.Command, name string, fallback int) (int, error) {
	if !cmd.Flags().Changed(name) {
		return fallback, nil
	}
	return cmd.Flags().GetInt(name)
}
