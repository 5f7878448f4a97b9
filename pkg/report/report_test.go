package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ormasoftchile/script-launcher/pkg/kernel/engine"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/executor"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/registry"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/status"
	"github.com/ormasoftchile/script-launcher/pkg/logging"
)

func init() { ConfigureColor(false) }

func intPtr(i int) *int { return &i }

func TestFormatResult(t *testing.T) {
	tests := []struct {
		name string
		res  executor.Result
		want string
	}{
		{
			name: "success",
			res:  executor.Result{Outcome: status.Success, Stdout: "hi\n", ExitCode: intPtr(0)},
			want: "Result:\nhi\n\n✅ Success\n",
		},
		{
			name: "failure",
			res:  executor.Result{Outcome: status.Failure, Stderr: "boom\n", ExitCode: intPtr(3)},
			want: "boom\n\n❌ ERROR\n",
		},
		{
			name: "fault",
			res:  executor.Result{Outcome: status.Fault, Message: "exec /bin/sh: not found"},
			want: "🚩 Error: exec /bin/sh: not found\n",
		},
		{
			name: "unknown",
			res:  executor.Result{},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatResult(tt.res); got != tt.want {
				t.Errorf("FormatResult = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBatch_Log(t *testing.T) {
	var buf bytes.Buffer
	b := NewBatch(&buf, logging.Normal)

	b.RunStarted(2)
	b.StepStarted(registry.Step{Index: 0, Label: "echo", Command: "echo hi"})
	b.StepCompleted(executor.Result{Outcome: status.Success, Stdout: "hi\n", ExitCode: intPtr(0)})
	b.StepStarted(registry.Step{Index: 1, Label: "fail", Command: "exit 3"})
	b.StepCompleted(executor.Result{Outcome: status.Failure, ExitCode: intPtr(3)})
	b.RunCompleted(&engine.RunResult{})

	want := "Running: echo\nResult:\nhi\n\n✅ Success\n\n" +
		"Running: fail\n\n❌ ERROR\n\n"
	if got := buf.String(); got != want {
		t.Errorf("batch log =\n%q\nwant\n%q", got, want)
	}
}

func TestBatch_Verbose(t *testing.T) {
	var buf bytes.Buffer
	b := NewBatch(&buf, logging.Verbose)

	b.RunStarted(1)
	b.StepStarted(registry.Step{Label: "echo", Command: "echo hi"})
	b.RunCompleted(&engine.RunResult{Err: errors.New("batch canceled after 1 of 1 steps")})

	out := buf.String()
	for _, want := range []string{"Executing: echo hi", "batch canceled"} {
		if !strings.Contains(out, want) {
			t.Errorf("verbose log missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Immediately executing") {
		t.Errorf("batch announcement belongs in the banner, not the result log:\n%s", out)
	}
}

func TestBanner(t *testing.T) {
	p := Project{Name: "demo", Description: "d", ConfigPath: "script-launcher.json"}

	var quiet bytes.Buffer
	Banner(&quiet, p, logging.Quiet)
	if quiet.Len() != 0 {
		t.Errorf("quiet banner = %q, want empty", quiet.String())
	}

	var buf bytes.Buffer
	Banner(&buf, p, logging.Normal)
	for _, want := range []string{"Running headless", "script-launcher.json", "Project name: demo", "Project description: d"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("banner missing %q:\n%s", want, buf.String())
		}
	}
	if strings.Contains(buf.String(), "Command line arguments") {
		t.Errorf("normal banner echoes arguments:\n%s", buf.String())
	}

	p.Args = []string{"script-launcher", "-n", "-v"}
	p.Steps = 3
	var verbose bytes.Buffer
	Banner(&verbose, p, logging.Verbose)
	for _, want := range []string{
		"Command line arguments: script-launcher -n -v\n",
		"Immediately executing all 3 scripts\n",
	} {
		if !strings.Contains(verbose.String(), want) {
			t.Errorf("verbose banner missing %q:\n%s", want, verbose.String())
		}
	}
}

func TestStepsTable(t *testing.T) {
	steps := []registry.Step{
		{Index: 0, Label: "echo", Command: "echo hi"},
		{Index: 1, Label: "fail", Command: "exit 3"},
	}

	plain := StepsTable(steps, nil)
	if strings.Contains(plain, "STATUS") {
		t.Error("status column rendered without outcomes")
	}
	if !strings.Contains(plain, "echo hi") || !strings.Contains(plain, "exit 3") {
		t.Errorf("table missing commands:\n%s", plain)
	}

	withStatus := StepsTable(steps, []status.Outcome{status.Success, status.Failure})
	if !strings.Contains(withStatus, "✅ success") || !strings.Contains(withStatus, "❌ failure") {
		t.Errorf("table missing outcomes:\n%s", withStatus)
	}
}

func TestSummary(t *testing.T) {
	steps := []registry.Step{{Index: 0, Label: "a", Command: "true"}}
	run := &engine.RunResult{
		Results:  []executor.Result{{Outcome: status.Success}},
		Duration: 1500 * time.Millisecond,
	}
	var buf bytes.Buffer
	Summary(&buf, steps, []status.Outcome{status.Success}, run)
	if !strings.Contains(buf.String(), "1 attempted, 1 succeeded, 0 failed, 0 faulted in 1.5s") {
		t.Errorf("summary = %s", buf.String())
	}
}

func TestDumpSteps(t *testing.T) {
	steps := []registry.Step{{Index: 0, Label: "echo", Command: "echo hi"}}
	var buf bytes.Buffer
	if err := DumpSteps(&buf, steps); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	header, body, ok := strings.Cut(out, "\n")
	if !ok || header != "These steps are configured for execution:" {
		t.Fatalf("header = %q", header)
	}
	if !strings.Contains(body, "    {\n        \"cmd\": \"echo hi\",\n        \"label\": \"echo\"\n    }") {
		t.Errorf("keys not sorted or indent wrong:\n%s", body)
	}
	var decoded []map[string]string
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
}

func TestDone(t *testing.T) {
	var buf bytes.Buffer
	Done(&buf, logging.Normal)
	if buf.Len() != 0 {
		t.Errorf("Done at normal verbosity wrote %q", buf.String())
	}
	Done(&buf, logging.Verbose)
	if buf.String() != "✅ Successful execution\n" {
		t.Errorf("Done = %q", buf.String())
	}
}

func TestIsTerminal(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("buffer reported as terminal")
	}
	t.Setenv("NO_COLOR", "1")
	if IsTerminal(os.Stderr) {
		t.Error("NO_COLOR ignored")
	}
}
