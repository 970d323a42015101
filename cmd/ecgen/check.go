package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ecgen/internal/buildpipeline"
	"ecgen/internal/diag"
	"ecgen/internal/driver"
	"ecgen/internal/taxonomy"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [flags] [taxonomy...]",
		Short: "Validate taxonomy files and report diagnostics",
		Long: `Parse, lint and assign every taxonomy without writing artifacts.
Exits with status 1 when any error is reported.`,
		RunE: runCheck,
	}
	cmd.Flags().String("input-format", "auto", "input format (auto|yaml|toml)")
	cmd.Flags().String("severity", "info", "minimum severity to print (info|warning|error)")
	cmd.Flags().Bool("strict", false, "treat warnings as errors")
	cmd.Flags().IntP("jobs", "j", 0, "max parallel inputs (0=auto)")
	cmd.Flags().String("config", "", "path to ecgen.toml (default: discovered)")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	g, err := readGlobals(cmd)
	if err != nil {
		return err
	}
	m, err := loadManifest(cmd)
	if err != nil {
		return err
	}
	cfg := manifestConfig(m)
	inputs, err := resolveInputs(args, m)
	if err != nil {
		return err
	}
	inputFormatValue, err := stringFlag(cmd, "input-format", cfg.Generate.InputFormat)
	if err != nil {
		return err
	}
	inputFormat, err := taxonomy.ParseFormat(inputFormatValue)
	if err != nil {
		return err
	}
	severityValue, err := cmd.Flags().GetString("severity")
	if err != nil {
		return err
	}
	minSeverity, err := diag.ParseSeverity(severityValue)
	if err != nil {
		return err
	}
	strict, err := cmd.Flags().GetBool("strict")
	if err != nil {
		return err
	}
	jobs, err := intFlag(cmd, "jobs", cfg.Generate.Jobs)
	if err != nil {
		return err
	}

	log := g.logger(cmd.ErrOrStderr())
	res, buildErr := buildpipeline.Build(cmd.Context(), &buildpipeline.BuildRequest{
		Inputs: inputs,
		Jobs:   jobs,
		Driver: driver.Options{
			InputFormat:    inputFormat,
			Assign:         cfg.AssignOptions(),
			Lint:           true,
			MaxDiagnostics: g.maxDiagnostics,
			Logger:         &log,
		},
	})
	if len(res.Files) == 0 {
		return buildErr
	}

	all := diag.NewBag(g.maxDiagnostics)
	var other []error
	for _, f := range res.Files {
		if f.Output != nil && f.Output.Bag != nil {
			all.Merge(f.Output.Bag)
		}
		if f.Err != nil && (f.Output == nil || f.Output.Bag == nil || f.Output.Bag.Len()+f.Output.Bag.Dropped() == 0) {
			// I/O and cancellation errors carry no diagnostic
			other = append(other, f.Err)
		}
	}
	all.Sort()
	all.Dedup()
	errorsFound := all.HasErrors() || len(other) > 0
	warningsFound := all.HasWarnings()
	counts := [3]int{all.Count(diag.SevError), all.Count(diag.SevWarning), all.Count(diag.SevInfo)}
	all.Filter(minSeverity)

	stdout := cmd.OutOrStdout()
	printDiagnostics(stdout, all.Items())
	printDropped(stdout, all.Dropped())
	for _, err := range other {
		printError(cmd.ErrOrStderr(), err)
	}
	if g.timings {
		printStageTimings(cmd.ErrOrStderr(), res.Timings)
	}
	if !g.quiet {
		fmt.Fprintf(stdout, "checked %d file(s): %d error(s), %d warning(s), %d info\n",
			len(res.Files), counts[0]+len(other), counts[1], counts[2])
	}
	if errorsFound || (strict && warningsFound) {
		return silentError{errors.New("check failed")}
	}
	return nil
}
