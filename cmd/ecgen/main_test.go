package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const netYAML = `modules:
  net:
    errors:
      E_NET_DOWN: "Network is down"
    submodules:
      dns:
        errors:
          E_DNS_TIMEOUT: "DNS lookup timed out"
`

// run executes ecgen in dir with colors disabled.
func run(t *testing.T, dir string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Chdir(dir)
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--color", "off"}, args...))
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGenToStdout(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "errors.yaml"), netYAML)

	stdout, stderr, err := run(t, dir, "gen", "errors.yaml")
	if err != nil {
		t.Fatalf("gen: %v\n%s", err, stderr)
	}
	want := `#ifndef ERROR_CODES_H
#define ERROR_CODES_H

// Auto-generated file. Do not edit. Changes will be overwritten.

#include <error_codes_def.h>

// net
#define E_NET_DOWN      (-0x0801)

// net::dns
#define E_DNS_TIMEOUT   (-0x0841)

#define EC_DEF_STRERROR_ARRAY \
static struct error_desc error_desc_array[] = { \
    /* net */\
    {E_NET_DOWN,    "Network is down"}, \
    /* net::dns */\
    {E_DNS_TIMEOUT, "DNS lookup timed out"}, \
}

#endif // ERROR_CODES_H
`
	if stdout != want {
		t.Fatalf("unexpected header:\nwant:\n%s\ngot:\n%s", want, stdout)
	}
	if stderr != "" {
		t.Fatalf("unexpected stderr %q", stderr)
	}
}

func TestGenToFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "errors.yaml"), netYAML)

	stdout, stderr, err := run(t, dir, "gen", "errors.yaml", "-o", "out/codes.h", "--guard", "NET_CODES_H")
	if err != nil {
		t.Fatalf("gen: %v\n%s", err, stderr)
	}
	if stdout != "" {
		t.Fatalf("nothing may be printed to stdout, got %q", stdout)
	}
	if stderr != "Successfully generated out/codes.h\n" {
		t.Fatalf("unexpected stderr %q", stderr)
	}
	data, err := os.ReadFile(filepath.Join(dir, "out", "codes.h"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "#ifndef NET_CODES_H\n") {
		t.Fatalf("guard not applied:\n%s", data)
	}
}

func overflowYAML() string {
	var b strings.Builder
	b.WriteString("modules:\n")
	for i := 1; i <= 32; i++ {
		fmt.Fprintf(&b, "  m%d:\n    errors:\n      E%d: \"x\"\n", i, i)
	}
	return b.String()
}

func TestGenOverflow(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "big.yaml"), overflowYAML())

	stdout, stderr, err := run(t, dir, "gen", "--no-lint", "big.yaml", "-o", "big.h")
	if err == nil || !isSilent(err) {
		t.Fatalf("expected a reported failure, got %v", err)
	}
	if stdout != "" {
		t.Fatalf("unexpected stdout %q", stdout)
	}
	want := `Failed to generate error codes: module "m32", error "E32" (line 97): encoding error: module_id 32 exceeds allowed bit size of 5 bits`
	if !strings.Contains(stderr, want) {
		t.Fatalf("stderr lacks %q:\n%s", want, stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "big.h")); !os.IsNotExist(err) {
		t.Fatalf("no output may be written on overflow")
	}
}

func TestGenLintErrorsAreListed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "big.yaml"), overflowYAML())

	_, stderr, err := run(t, dir, "gen", "big.yaml")
	if err == nil {
		t.Fatalf("expected failure")
	}
	for _, want := range []string{
		"error ENC2001 big.yaml:95:3 module m32 gets module id 32, 5-bit field allows at most 31",
		"Failed to generate error codes: big.yaml: taxonomy has errors",
	} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr lacks %q:\n%s", want, stderr)
		}
	}
}

func TestGenBatchOutDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "net.yaml"), netYAML)
	writeFile(t, filepath.Join(dir, "io.toml"), "[modules.io.errors]\nE_IO = \"I/O error\"\n")

	_, stderr, err := run(t, dir, "gen", "--ui", "off", "--format", "json", "--out-dir", "gen", "net.yaml", "io.toml")
	if err != nil {
		t.Fatalf("gen: %v\n%s", err, stderr)
	}
	for _, name := range []string{"net.json", "io.json"} {
		if !strings.Contains(stderr, "Successfully generated "+filepath.Join("gen", name)) {
			t.Errorf("stderr lacks success line for %s:\n%s", name, stderr)
		}
		if _, err := os.Stat(filepath.Join(dir, "gen", name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestInitThenGenFromManifest(t *testing.T) {
	dir := t.TempDir()
	stdout, _, err := run(t, dir, "init", "proj")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(stdout, "Initialized ecgen project in proj") {
		t.Fatalf("unexpected init output %q", stdout)
	}
	if _, _, err := run(t, dir, "init", "proj"); err == nil {
		t.Fatalf("second init must fail")
	}

	proj := filepath.Join(dir, "proj")
	_, stderr, err := run(t, proj, "gen")
	if err != nil {
		t.Fatalf("gen: %v\n%s", err, stderr)
	}
	data, err := os.ReadFile(filepath.Join(proj, "error_codes.h"))
	if err != nil {
		t.Fatalf("manifest output missing: %v", err)
	}
	if !strings.Contains(string(data), "#define E_CONFIG_NOT_FOUND        (-0x0841)") {
		t.Fatalf("unexpected header:\n%s", data)
	}
}

func TestGenWithoutInputs(t *testing.T) {
	_, _, err := run(t, t.TempDir(), "gen")
	if err == nil || !strings.Contains(err.Error(), "no input files") {
		t.Fatalf("expected missing input error, got %v", err)
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ok.yaml"), netYAML)
	writeFile(t, filepath.Join(dir, "warn.yaml"), "modules:\n  m:\n    errors:\n      E_EMPTY: \"\"\n")

	stdout, _, err := run(t, dir, "check", "ok.yaml", "warn.yaml")
	if err != nil {
		t.Fatalf("warnings alone must not fail: %v", err)
	}
	want := "warning DSC4001 warn.yaml:4:7 E_EMPTY has an empty description\n" +
		"checked 2 file(s): 0 error(s), 1 warning(s), 0 info\n"
	if stdout != want {
		t.Fatalf("unexpected output:\nwant:\n%s\ngot:\n%s", want, stdout)
	}

	if _, _, err := run(t, dir, "check", "--strict", "warn.yaml"); err == nil {
		t.Fatalf("--strict must fail on warnings")
	}

	writeFile(t, filepath.Join(dir, "bad.yaml"), "modules:\n  m:\n    submodules:\n      s:\n        submodules: {}\n")
	stdout, _, err = run(t, dir, "check", "--severity", "error", "bad.yaml")
	if err == nil {
		t.Fatalf("malformed input must fail")
	}
	if !strings.HasPrefix(stdout, "error TAX1001 bad.yaml:5:9 ") || !strings.Contains(stdout, "submodules cannot be nested") {
		t.Fatalf("unexpected output:\n%s", stdout)
	}
}

func TestDiagnosticLimitDoesNotHideErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "d.yaml"), `modules:
  a:
    errors:
      bad-1: "x"
      bad-2: "y"
      E_T: "t"
  b:
    errors:
      E_T: "t"
`)

	stdout, _, err := run(t, dir, "--max-diagnostics", "2", "check", "d.yaml")
	if err == nil {
		t.Fatalf("check must fail on an error past the display limit")
	}
	for _, want := range []string{
		"... 1 more diagnostic(s) not shown (raise --max-diagnostics)\n",
		"checked 1 file(s): 1 error(s), 2 warning(s), 0 info\n",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout lacks %q:\n%s", want, stdout)
		}
	}

	_, stderr, err := run(t, dir, "--max-diagnostics", "2", "gen", "d.yaml", "-o", "d.h")
	if err == nil {
		t.Fatalf("gen must fail on an error past the display limit")
	}
	if !strings.Contains(stderr, "Failed to generate error codes: d.yaml: taxonomy has errors") {
		t.Fatalf("unexpected stderr:\n%s", stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "d.h")); !os.IsNotExist(err) {
		t.Fatalf("no header may be written when lint reports errors")
	}
}

func TestLookup(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "errors.yaml"), netYAML)

	stdout, _, err := run(t, dir, "lookup", "errors.yaml", "-0x0841", "0x0fff")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	want := "-0x0841  net::dns  E_DNS_TIMEOUT  DNS lookup timed out\n" +
		"-0x0fff  Unknown error (module 1, submodule 31, error 63)\n"
	if stdout != want {
		t.Fatalf("unexpected output:\nwant:\n%s\ngot:\n%s", want, stdout)
	}

	if _, _, err := run(t, dir, "gen", "-f", "msgpack", "-o", "errors.msgpack", "errors.yaml"); err != nil {
		t.Fatalf("gen msgpack: %v", err)
	}
	stdout, _, err = run(t, dir, "lookup", "errors.msgpack", "2049")
	if err != nil {
		t.Fatalf("lookup msgpack: %v", err)
	}
	if stdout != "-0x0801  net  E_NET_DOWN  Network is down\n" {
		t.Fatalf("unexpected output %q", stdout)
	}

	if _, _, err := run(t, dir, "lookup", "errors.yaml", "nope"); err == nil {
		t.Fatalf("expected parse error for a bad code")
	}
}

func TestVersionJSON(t *testing.T) {
	stdout, _, err := run(t, t.TempDir(), "version", "--format", "json", "--hash")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(stdout), &payload); err != nil {
		t.Fatalf("invalid json %q: %v", stdout, err)
	}
	if payload["tool"] != "ecgen" || payload["git_commit"] != "unknown" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if _, ok := payload["build_date"]; ok {
		t.Fatalf("build_date must be omitted without --date")
	}
}

func TestInvalidColor(t *testing.T) {
	_, _, err := run(t, t.TempDir(), "--color", "maybe", "version")
	if err == nil || !strings.Contains(err.Error(), "invalid --color") {
		t.Fatalf("expected color error, got %v", err)
	}
}
