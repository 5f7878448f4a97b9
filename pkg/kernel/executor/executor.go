// Package executor runs a step's command in a child shell process and
// classifies what happened.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/ormasoftchile/script-launcher/pkg/kernel/registry"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/status"
)

// Result is the outcome of one execution attempt of a step.
type Result struct {
	Index     int            `json:"index"`
	Label     string         `json:"label"`
	Outcome   status.Outcome `json:"outcome"`
	Stdout    string         `json:"stdout"`
	Stderr    string         `json:"stderr"`
	ExitCode  *int           `json:"exit_code,omitempty"` // nil under Fault
	Message   string         `json:"message,omitempty"`   // fault description
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
}

// Code returns the exit code and whether one was recorded.
func (r Result) Code() (int, bool) {
	if r.ExitCode == nil {
		return 0, false
	}
	return *r.ExitCode, true
}

// Shell runs commands through an interpreter, e.g. /bin/sh -c.
type Shell struct {
	Path string   // interpreter binary
	Args []string // arguments placed before the command text
	Env  []string // nil inherits the parent environment
	Dir  string   // empty uses the current directory
}

// DefaultShell returns /bin/sh -c, or cmd.exe /C on Windows.
func DefaultShell() Shell {
	if runtime.GOOS == "windows" {
		return Shell{Path: "cmd.exe", Args: []string{"/C"}}
	}
	return Shell{Path: "/bin/sh", Args: []string{"-c"}}
}

// Execute spawns one child process for step.Command and blocks until it
// terminates. It never returns an error: launch problems and other
// breakdowns are reported as a Fault result.
func (s Shell) Execute(ctx context.Context, step registry.Step) Result {
	res := Result{
		Index:     step.Index,
		Label:     step.Label,
		StartedAt: time.Now(),
	}

	if s.Path == "" {
		return res.fault("no shell configured")
	}

	args := append(append([]string{}, s.Args...), step.Command)
	cmd := exec.CommandContext(ctx, s.Path, args...) //#nosec G204 -- commands come from the operator's own configuration
	cmd.Env = s.Env
	cmd.Dir = s.Dir
	configureProcess(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res.Stdout = normalizeText(stdout.String())
	res.Stderr = normalizeText(stderr.String())

	// A command that finished cleanly keeps its outcome even if ctx ended
	// right after it exited.
	if err != nil && ctx.Err() != nil {
		return res.fault(fmt.Sprintf("canceled: %v", context.Cause(ctx)))
	}

	if err == nil {
		return res.exited(status.Success, 0)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// -1 means the process was terminated by a signal; it still ran.
		return res.exited(status.Failure, exitErr.ExitCode())
	}
	return res.fault(fmt.Sprintf("exec %s: %v", s.Path, err))
}

func (r Result) exited(o status.Outcome, code int) Result {
	r.Outcome = o
	r.ExitCode = &code
	r.Duration = time.Since(r.StartedAt)
	return r
}

func (r Result) fault(msg string) Result {
	r.Outcome = status.Fault
	r.ExitCode = nil
	r.Message = msg
	r.Duration = time.Since(r.StartedAt)
	return r
}

// NewFault builds a Fault result for a step that could not be attempted.
func NewFault(step registry.Step, msg string) Result {
	return Result{
		Index:     step.Index,
		Label:     step.Label,
		StartedAt: time.Now(),
	}.fault(msg)
}

// normalizeText turns captured bytes into display text: \r\n becomes \n and
// invalid UTF-8 is replaced rather than rejected.
func normalizeText(s string) string {
	return strings.ToValidUTF8(strings.ReplaceAll(s, "\r\n", "\n"), "\uFFFD")
}
