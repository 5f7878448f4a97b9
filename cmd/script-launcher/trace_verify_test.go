package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ormasoftchile/script-launcher/pkg/kernel/trace"
)

func writeTrace(t *testing.T, tamper bool) string {
	t.Helper()
	var buf bytes.Buffer
	tw := trace.NewWriter(&buf, "verify-test")
	if err := tw.EmitSessionStart("demo", "script-launcher.json", 1); err != nil {
		t.Fatal(err)
	}
	tw.Emit(trace.EventStepStart, map[string]any{"index": 0})
	if tamper {
		buf.WriteString(`{"type":"step_complete","timestamp":"2026-01-01T00:00:00Z","run_id":"verify-test","prev_hash":"0000000000000000000000000000000000000000000000000000000000000000","data":{"index":0}}` + "\n")
	}

	path := filepath.Join(t.TempDir(), "trace.jsonl")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTraceVerify_ValidChain(t *testing.T) {
	path := writeTrace(t, false)

	var out bytes.Buffer
	traceVerifyCmd.SetOut(&out)
	defer traceVerifyCmd.SetOut(nil)

	if err := runTraceVerify(traceVerifyCmd, []string{path}); err != nil {
		t.Fatalf("runTraceVerify: %v", err)
	}
	if !strings.Contains(out.String(), "2 events, no breaks") {
		t.Errorf("output = %q", out.String())
	}
}

func TestTraceVerify_BrokenChain(t *testing.T) {
	path := writeTrace(t, true)

	var out bytes.Buffer
	traceVerifyCmd.SetOut(&out)
	defer traceVerifyCmd.SetOut(nil)

	if err := runTraceVerify(traceVerifyCmd, []string{path}); err == nil {
		t.Fatal("expected verification failure")
	}
	if !strings.Contains(out.String(), "Chain broken at event 3") {
		t.Errorf("output = %q", out.String())
	}
}

func TestTraceVerify_MissingFile(t *testing.T) {
	if err := runTraceVerify(traceVerifyCmd, []string{filepath.Join(t.TempDir(), "nope.jsonl")}); err == nil {
		t.Fatal("expected error for missing file")
	}
}
