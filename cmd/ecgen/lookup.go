package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ecgen/internal/assign"
	"ecgen/internal/codec"
	"ecgen/internal/render"
	"ecgen/internal/taxonomy"
)

func newLookupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <taxonomy|table> <code>...",
		Short: "Describe error codes",
		Long: `Look up codes in a taxonomy (YAML/TOML) or in a generated .json or
.msgpack table. Codes may be written as -0x0841, 0x841 or 2113. Codes that are
not in the table print "Unknown error". Flags must precede the table path.`,
		Args: cobra.MinimumNArgs(2),
		RunE: runLookup,
	}
	cmd.Flags().String("config", "", "path to ecgen.toml (default: discovered)")
	// negative codes such as -0x0841 are arguments, not shorthand flags
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func runLookup(cmd *cobra.Command, args []string) error {
	res, err := loadLookupTable(cmd, args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, arg := range args[1:] {
		code, err := codec.ParseCode(arg)
		if err != nil {
			return err
		}
		writeLookup(out, res, code)
	}
	return nil
}

// loadLookupTable reads a previously generated table or assigns codes for a
// taxonomy using the manifest [ids].
func loadLookupTable(cmd *cobra.Command, path string) (*assign.Result, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var doc render.TableDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%s: invalid table: %w", path, err)
		}
		return doc.Result(), nil
	case ".msgpack", ".mp":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		doc, err := render.DecodeMsgpack(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return doc.Result(), nil
	}
	m, err := loadManifest(cmd)
	if err != nil {
		return nil, err
	}
	tax, err := taxonomy.ParseFile(path, taxonomy.FormatAuto)
	if err != nil {
		return nil, err
	}
	return assign.Assign(tax, manifestConfig(m).AssignOptions())
}

func writeLookup(w io.Writer, res *assign.Result, code codec.Code) {
	layout := res.Layout
	if layout == (codec.Layout{}) {
		layout = codec.DefaultLayout
	}
	if rec, ok := res.Lookup(code); ok {
		fmt.Fprintf(w, "%s  %s  %s  %s\n", code.Hex(), rec.Scope(), rec.Name, rec.Description)
		return
	}
	module, sub, errID := layout.Decode(code)
	fmt.Fprintf(w, "%s  %s (module %d, submodule %d, error %d)\n", code.Hex(), assign.UnknownDescription, module, sub, errID)
}
