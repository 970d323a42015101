package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ecgen/internal/buildpipeline"
	"ecgen/internal/driver"
	"ecgen/internal/observ"
	"ecgen/internal/render"
	"ecgen/internal/taxonomy"
)

func newGenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen [flags] [taxonomy...]",
		Short: "Generate error codes from taxonomy files",
		Long: `Generate error codes for one or more taxonomy files (YAML or TOML).

With a single input and no --output or --out-dir the artifact is written to
stdout. Several inputs are written next to each input, or into --out-dir.
Without arguments the inputs listed in ecgen.toml are used.`,
		RunE: runGen,
	}
	cmd.Flags().StringP("output", "o", "", "output file for a single input (\"-\" for stdout)")
	cmd.Flags().String("out-dir", "", "directory receiving one artifact per input")
	cmd.Flags().StringP("format", "f", "c", "output format (c|json|msgpack|table)")
	cmd.Flags().String("input-format", "auto", "input format (auto|yaml|toml)")
	cmd.Flags().String("guard", "", "include guard of the C header")
	cmd.Flags().String("include", "", "header providing struct error_desc")
	cmd.Flags().IntP("jobs", "j", 0, "max parallel inputs (0=auto)")
	cmd.Flags().String("ui", "auto", "progress UI mode (auto|on|off)")
	cmd.Flags().String("config", "", "path to ecgen.toml (default: discovered)")
	cmd.Flags().Bool("no-lint", false, "skip lint checks")
	return cmd
}

// genPlan is the fully resolved gen invocation.
type genPlan struct {
	inputs []string
	stdout bool
	ui     uiMode
	req    buildpipeline.BuildRequest
}

func planGen(cmd *cobra.Command, args []string, g globals) (*genPlan, error) {
	m, err := loadManifest(cmd)
	if err != nil {
		return nil, err
	}
	cfg := manifestConfig(m)
	inputs, err := resolveInputs(args, m)
	if err != nil {
		return nil, err
	}

	formatValue, err := stringFlag(cmd, "format", cfg.Generate.Format)
	if err != nil {
		return nil, err
	}
	format, err := render.ParseFormat(formatValue)
	if err != nil {
		return nil, err
	}
	inputFormatValue, err := stringFlag(cmd, "input-format", cfg.Generate.InputFormat)
	if err != nil {
		return nil, err
	}
	inputFormat, err := taxonomy.ParseFormat(inputFormatValue)
	if err != nil {
		return nil, err
	}

	// manifest output paths only apply to manifest inputs
	var output, outDir string
	if len(args) == 0 && m != nil {
		output = m.Resolve(cfg.Generate.Output)
		outDir = m.Resolve(cfg.Generate.OutDir)
	}
	if output, err = stringFlag(cmd, "output", output); err != nil {
		return nil, err
	}
	if outDir, err = stringFlag(cmd, "out-dir", outDir); err != nil {
		return nil, err
	}
	if output != "" && outDir != "" {
		return nil, fmt.Errorf("--output and --out-dir are mutually exclusive")
	}
	if output != "" && len(inputs) > 1 {
		return nil, fmt.Errorf("--output needs exactly one input, got %d (use --out-dir)", len(inputs))
	}

	renderOpts := cfg.RenderOptions()
	if renderOpts.Guard, err = stringFlag(cmd, "guard", renderOpts.Guard); err != nil {
		return nil, err
	}
	if renderOpts.Include, err = stringFlag(cmd, "include", renderOpts.Include); err != nil {
		return nil, err
	}
	jobs, err := intFlag(cmd, "jobs", cfg.Generate.Jobs)
	if err != nil {
		return nil, err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return nil, err
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return nil, err
	}
	noLint, err := cmd.Flags().GetBool("no-lint")
	if err != nil {
		return nil, err
	}

	stdout := output == "-" || (output == "" && outDir == "" && len(inputs) == 1)
	if stdout {
		output = ""
		renderOpts.Color = g.color && format == render.FormatTable
	}

	return &genPlan{
		inputs: inputs,
		stdout: stdout,
		ui:     mode,
		req: buildpipeline.BuildRequest{
			Inputs: inputs,
			Output: output,
			OutDir: outDir,
			Write:  !stdout,
			Jobs:   jobs,
			Driver: driver.Options{
				InputFormat:    inputFormat,
				Assign:         cfg.AssignOptions(),
				Format:         format,
				Render:         renderOpts,
				Lint:           !noLint,
				MaxDiagnostics: g.maxDiagnostics,
			},
		},
	}, nil
}

func runGen(cmd *cobra.Command, args []string) error {
	g, err := readGlobals(cmd)
	if err != nil {
		return err
	}
	plan, err := planGen(cmd, args, g)
	if err != nil {
		return err
	}
	log := g.logger(cmd.ErrOrStderr())
	plan.req.Driver.Logger = &log
	log.Debug().Strs("inputs", plan.inputs).Str("format", string(plan.req.Driver.Format)).Bool("stdout", plan.stdout).Msg("generate")

	if plan.stdout {
		return genToStdout(cmd, plan, g)
	}

	var res buildpipeline.BuildResult
	if !g.quiet && shouldUseTUI(plan.ui, len(plan.inputs)) {
		res, err = runBuildWithUI(cmd.Context(), "generating", &plan.req)
	} else {
		res, err = buildpipeline.Build(cmd.Context(), &plan.req)
	}
	stderr := cmd.ErrOrStderr()
	for _, f := range res.Files {
		reportGenFile(stderr, f.Output, f.Err, g)
		if f.Err == nil && !g.quiet {
			fmt.Fprintf(stderr, "Successfully generated %s\n", f.OutputPath)
		}
	}
	if g.timings {
		printStageTimings(stderr, res.Timings)
	}
	if err != nil {
		if len(res.Files) == 0 {
			return err
		}
		return silentError{err}
	}
	return nil
}

func genToStdout(cmd *cobra.Command, plan *genPlan, g globals) error {
	out := cmd.OutOrStdout()
	if plan.req.Driver.Format.Binary() {
		if f, ok := out.(*os.File); ok && isTerminal(f) {
			return fmt.Errorf("refusing to write %s to a terminal, use --output", plan.req.Driver.Format)
		}
	}
	timer := observ.NewTimer()
	opts := plan.req.Driver
	opts.Timer = timer
	o, err := driver.Generate(cmd.Context(), plan.inputs[0], opts)
	stderr := cmd.ErrOrStderr()
	reportGenFile(stderr, o, err, g)
	if g.timings {
		fmt.Fprint(stderr, timer.Summary())
	}
	if err != nil {
		return silentError{err}
	}
	if _, err := out.Write(o.Artifact); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// reportGenFile prints lint findings and the failure line for one input.
// Parse and overflow failures are fully described by the error itself.
func reportGenFile(w io.Writer, o *driver.Output, err error, g globals) {
	if o != nil && o.Bag != nil {
		if errors.Is(err, driver.ErrDiagnostics) || (err == nil && !g.quiet) {
			printDiagnostics(w, o.Bag.Items())
			printDropped(w, o.Bag.Dropped())
		}
	}
	if err != nil {
		fmt.Fprintf(w, "%s %v\n", color.New(color.FgRed, color.Bold).Sprint("Failed to generate error codes:"), err)
	}
}
