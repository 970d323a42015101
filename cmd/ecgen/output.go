package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"ecgen/internal/buildpipeline"
	"ecgen/internal/diag"
)

// printDiagnostics writes items in the short form with the severity label
// colored.
func printDiagnostics(w io.Writer, items []diag.Diagnostic) {
	if len(items) == 0 {
		return
	}
	for _, line := range strings.Split(diag.FormatShort(items, true), "\n") {
		label, rest, _ := strings.Cut(line, " ")
		fmt.Fprintf(w, "%s %s\n", severityColor(label).Sprint(label), rest)
	}
}

// printDropped notes diagnostics hidden by --max-diagnostics.
func printDropped(w io.Writer, n int) {
	if n > 0 {
		fmt.Fprintf(w, "... %d more diagnostic(s) not shown (raise --max-diagnostics)\n", n)
	}
}

func severityColor(label string) *color.Color {
	switch label {
	case "error":
		return color.New(color.FgRed, color.Bold)
	case "warning":
		return color.New(color.FgYellow, color.Bold)
	case "note":
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgBlue)
	}
}

func printStageTimings(out io.Writer, timings buildpipeline.Timings) {
	for _, stage := range buildpipeline.Stages {
		if timings.Has(stage) {
			fmt.Fprintf(out, "%-7s %.2f ms\n", stage, toMillis(timings.Duration(stage)))
		}
	}
	fmt.Fprintf(out, "%-7s %.2f ms\n", "total", toMillis(timings.Sum(buildpipeline.Stages...)))
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
