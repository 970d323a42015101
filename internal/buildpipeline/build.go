// Package buildpipeline generates artifacts for a batch of taxonomy files.
package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ecgen/internal/driver"
	"ecgen/internal/observ"
)

// BuildRequest configures a batch generation.
type BuildRequest struct {
	Inputs []string
	// Output is the artifact path for a single input.
	Output string
	// OutDir receives one artifact per input, named after the input with the
	// format's extension. Empty means next to each input.
	OutDir string
	// Write stores artifacts on disk. When false the pipeline stops after
	// rendering, which is what `ecgen check` does.
	Write    bool
	Jobs     int
	Driver   driver.Options
	Progress ProgressSink
}

// FileResult is the outcome for one input.
type FileResult struct {
	Input      string
	OutputPath string
	Output     *driver.Output
	Err        error
	Timings    Timings
}

// BuildResult holds per-input results in input order.
type BuildResult struct {
	Files   []FileResult
	Timings Timings
}

// Failed returns the results that carry an error.
func (r BuildResult) Failed() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// Build runs the driver over every input, up to Jobs at a time. A failing
// input does not stop the others; the returned error joins every failure.
func Build(ctx context.Context, req *BuildRequest) (BuildResult, error) {
	var result BuildResult
	if req == nil {
		return result, fmt.Errorf("missing build request")
	}
	if len(req.Inputs) == 0 {
		return result, fmt.Errorf("no input files")
	}
	outputs, err := outputPaths(req)
	if err != nil {
		return result, err
	}

	emitQueued(req.Progress, req.Inputs)
	result.Files = make([]FileResult, len(req.Inputs))

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(req.Inputs)))
	for i, input := range req.Inputs {
		g.Go(func() error {
			// индексы уникальны для каждой горутины, мьютекс не нужен
			result.Files[i] = buildOne(gctx, req, input, outputs[i])
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, f := range result.Files {
		result.Timings.Merge(f.Timings)
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, errors.Join(errs...)
}

func buildOne(ctx context.Context, req *BuildRequest, input, output string) FileResult {
	res := FileResult{Input: input, OutputPath: output}
	opts := req.Driver
	timer := observ.NewTimer()
	opts.Timer = timer

	emit(req.Progress, input, StageParse, StatusWorking, nil, 0)
	out, err := driver.Generate(ctx, input, opts)
	res.Output = out
	failed := replayPhases(req.Progress, input, timer.Report(), &res.Timings, err)
	if err != nil {
		if failed == "" {
			emit(req.Progress, input, StageParse, StatusError, err, 0)
		}
		res.Err = err
		return res
	}
	if !req.Write {
		return res
	}

	emit(req.Progress, input, StageWrite, StatusWorking, nil, 0)
	start := time.Now()
	err = driver.WriteFileAtomic(output, out.Artifact)
	elapsed := time.Since(start)
	res.Timings.Add(StageWrite, elapsed)
	if err != nil {
		res.Err = fmt.Errorf("failed to write %s: %w", output, err)
		emit(req.Progress, input, StageWrite, StatusError, res.Err, elapsed)
		return res
	}
	emit(req.Progress, input, StageWrite, StatusDone, nil, elapsed)
	return res
}

// replayPhases converts the driver's timer phases into stage events and
// timings. It returns the stage that failed, if the timer recorded one.
func replayPhases(sink ProgressSink, file string, report observ.Report, timings *Timings, err error) Stage {
	var failed Stage
	for i, p := range report.Phases {
		stage := stageOf(p.Name)
		elapsed := time.Duration(p.DurationMS * float64(time.Millisecond))
		timings.Add(stage, elapsed)
		status := StatusDone
		var stageErr error
		if err != nil && i == len(report.Phases)-1 && (p.Note == "failed" || stage == StageLint) {
			status, stageErr, failed = StatusError, err, stage
		}
		emit(sink, file, stage, status, stageErr, elapsed)
	}
	return failed
}

func stageOf(phase string) Stage {
	switch phase {
	case "read", "parse":
		return StageParse
	case "lint":
		return StageLint
	case "assign":
		return StageAssign
	case "render":
		return StageRender
	}
	return Stage(phase)
}

func outputPaths(req *BuildRequest) ([]string, error) {
	if req.Output != "" {
		if len(req.Inputs) != 1 {
			return nil, fmt.Errorf("an explicit output path needs exactly one input, got %d", len(req.Inputs))
		}
		return []string{req.Output}, nil
	}
	ext := req.Driver.Format.Ext()
	out := make([]string, len(req.Inputs))
	seen := make(map[string]string, len(req.Inputs))
	for i, input := range req.Inputs {
		dir := req.OutDir
		if dir == "" {
			dir = filepath.Dir(input)
		}
		base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
		out[i] = filepath.Join(dir, base+ext)
		if prev, dup := seen[out[i]]; dup && req.Write {
			return nil, fmt.Errorf("%s and %s would both be written to %s", prev, input, out[i])
		}
		seen[out[i]] = input
	}
	return out, nil
}

func emit(sink ProgressSink, file string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{File: file, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}

func emitQueued(sink ProgressSink, files []string) {
	if sink == nil {
		return
	}
	for _, file := range files {
		sink.OnEvent(Event{File: file, Stage: StageParse, Status: StatusQueued})
	}
}
