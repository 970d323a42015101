package ui

import (
	"errors"
	"strings"
	"testing"

	"ecgen/internal/buildpipeline"
)

func TestProgressModelTracksFiles(t *testing.T) {
	events := make(chan buildpipeline.Event)
	m := NewProgressModel("generating", []string{"a.yaml", "b.yaml"}, buildpipeline.StageWrite, events).(*progressModel)

	m.applyEvent(buildpipeline.Event{File: "a.yaml", Stage: buildpipeline.StageParse, Status: buildpipeline.StatusWorking})
	if m.items[0].status != "parsing" {
		t.Fatalf("status = %q", m.items[0].status)
	}
	m.applyEvent(buildpipeline.Event{File: "a.yaml", Stage: buildpipeline.StageRender, Status: buildpipeline.StatusDone})
	if m.items[0].status != "parsing" {
		t.Fatalf("intermediate done must not finish the file, got %q", m.items[0].status)
	}
	m.applyEvent(buildpipeline.Event{File: "a.yaml", Stage: buildpipeline.StageWrite, Status: buildpipeline.StatusDone})
	m.applyEvent(buildpipeline.Event{File: "b.yaml", Stage: buildpipeline.StageParse, Status: buildpipeline.StatusError, Err: errors.New("bad")})
	m.applyEvent(buildpipeline.Event{File: "b.yaml", Stage: buildpipeline.StageWrite, Status: buildpipeline.StatusDone})
	m.applyEvent(buildpipeline.Event{File: "unknown.yaml", Stage: buildpipeline.StageParse, Status: buildpipeline.StatusWorking})

	if m.items[0].status != "done" || m.items[1].status != "error" {
		t.Fatalf("unexpected statuses %+v", m.items)
	}
	view := m.View()
	if !strings.Contains(view, "generating (2/2), 1 failed") {
		t.Fatalf("unexpected header in view:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefgh", 6); got != "abc..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abc", 6); got != "abc" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("abcdef", 2); got != "ab" {
		t.Fatalf("truncate = %q", got)
	}
}
