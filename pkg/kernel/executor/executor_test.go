package executor

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ormasoftchile/script-launcher/pkg/kernel/registry"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/status"
)

func requireUnixShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests use POSIX sh syntax")
	}
}

func step(cmd string) registry.Step {
	return registry.Step{Index: 4, Label: "under test", Command: cmd}
}

func TestExecute_Success(t *testing.T) {
	requireUnixShell(t)
	res := DefaultShell().Execute(context.Background(), step("echo hi"))

	if res.Outcome != status.Success {
		t.Fatalf("outcome = %s, want success (message %q)", res.Outcome, res.Message)
	}
	if code, ok := res.Code(); !ok || code != 0 {
		t.Errorf("exit code = %v, want 0", res.ExitCode)
	}
	if res.Stdout != "hi\n" {
		t.Errorf("stdout = %q, want %q", res.Stdout, "hi\n")
	}
	if res.Index != 4 || res.Label != "under test" {
		t.Errorf("result not tagged with step: index=%d label=%q", res.Index, res.Label)
	}
	if res.StartedAt.IsZero() {
		t.Error("StartedAt not set")
	}
}

func TestExecute_Failure(t *testing.T) {
	requireUnixShell(t)
	cases := []struct {
		name       string
		cmd        string
		wantCode   int
		wantStderr string
	}{
		{"exit 7 with stderr", "echo boom >&2; exit 7", 7, "boom\n"},
		{"exit 7 silent", "exit 7", 7, ""},
		{"exit 3", "exit 3", 3, ""},
		{"unknown command", "definitely_not_a_command_xyz", 127, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := DefaultShell().Execute(context.Background(), step(tc.cmd))
			if res.Outcome != status.Failure {
				t.Fatalf("outcome = %s, want failure", res.Outcome)
			}
			code, ok := res.Code()
			if !ok || code != tc.wantCode {
				t.Errorf("exit code = %v, want %d", res.ExitCode, tc.wantCode)
			}
			if tc.wantStderr != "" && res.Stderr != tc.wantStderr {
				t.Errorf("stderr = %q, want %q", res.Stderr, tc.wantStderr)
			}
			if tc.name == "exit 7 silent" && res.Stderr != "" {
				t.Errorf("stderr = %q, want empty", res.Stderr)
			}
		})
	}
}

func TestExecute_FaultWhenShellMissing(t *testing.T) {
	sh := Shell{Path: "/nonexistent/bin/sh", Args: []string{"-c"}}
	res := sh.Execute(context.Background(), step("echo hi"))

	if res.Outcome != status.Fault {
		t.Fatalf("outcome = %s, want fault", res.Outcome)
	}
	if res.ExitCode != nil {
		t.Errorf("exit code = %d, want absent", *res.ExitCode)
	}
	if res.Message == "" {
		t.Error("fault should carry a message")
	}
}

func TestExecute_FaultWhenNoShell(t *testing.T) {
	res := Shell{}.Execute(context.Background(), step("echo hi"))
	if res.Outcome != status.Fault || res.ExitCode != nil {
		t.Errorf("outcome = %s exit=%v, want fault without exit code", res.Outcome, res.ExitCode)
	}
}

func TestExecute_FaultOnUnpassableCommand(t *testing.T) {
	requireUnixShell(t)
	// A NUL byte cannot be passed in an argv entry.
	res := DefaultShell().Execute(context.Background(), step("echo a\x00b"))
	if res.Outcome != status.Fault {
		t.Fatalf("outcome = %s, want fault", res.Outcome)
	}
	if res.ExitCode != nil {
		t.Errorf("exit code = %d, want absent", *res.ExitCode)
	}
}

func TestExecute_Canceled(t *testing.T) {
	requireUnixShell(t)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res := DefaultShell().Execute(ctx, step("sleep 5; echo late"))
	if elapsed := time.Since(start); elapsed > 4*time.Second {
		t.Fatalf("cancel did not stop the child: took %v", elapsed)
	}
	if res.Outcome != status.Fault {
		t.Fatalf("outcome = %s, want fault", res.Outcome)
	}
	if !strings.Contains(res.Message, "canceled") {
		t.Errorf("message = %q, want cancellation reason", res.Message)
	}
	if res.ExitCode != nil {
		t.Errorf("exit code = %d, want absent", *res.ExitCode)
	}
}

func TestExecute_AlreadyCanceled(t *testing.T) {
	requireUnixShell(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := DefaultShell().Execute(ctx, step("echo never"))
	if res.Outcome != status.Fault {
		t.Errorf("outcome = %s, want fault", res.Outcome)
	}
}

func TestExecute_TextNormalization(t *testing.T) {
	requireUnixShell(t)
	res := DefaultShell().Execute(context.Background(), step(`printf 'a\r\nb\377'`))
	if res.Outcome != status.Success {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	if res.Stdout != "a\nb�" {
		t.Errorf("stdout = %q, want %q", res.Stdout, "a\nb�")
	}
}

func TestExecute_MinimalEnvAndDir(t *testing.T) {
	requireUnixShell(t)
	dir := t.TempDir()
	sh := DefaultShell()
	sh.Env = []string{"GREETING=hello"}
	sh.Dir = dir

	res := sh.Execute(context.Background(), step(`echo "$GREETING"; pwd`))
	if res.Outcome != status.Success {
		t.Fatalf("outcome = %s (%s)", res.Outcome, res.Stderr)
	}
	lines := strings.Split(strings.TrimSpace(res.Stdout), "\n")
	if len(lines) != 2 || lines[0] != "hello" {
		t.Fatalf("stdout = %q", res.Stdout)
	}
	if !strings.HasSuffix(lines[1], strings.TrimPrefix(dir, "/private")) {
		t.Errorf("pwd = %q, want %q", lines[1], dir)
	}
}

func TestNewFault(t *testing.T) {
	res := NewFault(step("x"), "not in registry")
	if res.Outcome != status.Fault || res.ExitCode != nil || res.Message != "not in registry" {
		t.Errorf("NewFault = %+v", res)
	}
}

// endedAfterExit reports cancellation without ever signaling Done, so the
// child runs to completion and only the post-run check sees the error.
type endedAfterExit struct{ context.Context }

func (endedAfterExit) Err() error { return context.Canceled }

func TestExecute_CancelAfterCleanExitKeepsOutcome(t *testing.T) {
	requireUnixShell(t)
	ctx := endedAfterExit{context.Background()}

	res := DefaultShell().Execute(ctx, step("echo done"))
	if res.Outcome != status.Success {
		t.Fatalf("outcome = %s, want success (message %q)", res.Outcome, res.Message)
	}
	if res.Stdout != "done\n" {
		t.Errorf("stdout = %q, want %q", res.Stdout, "done\n")
	}

	res = DefaultShell().Execute(ctx, step("exit 3"))
	if res.Outcome != status.Fault {
		t.Errorf("failed run under ended context: outcome = %s, want fault", res.Outcome)
	}
}
