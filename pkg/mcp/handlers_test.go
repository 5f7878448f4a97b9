package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ormasoftchile/script-launcher/pkg/kernel/engine"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/executor"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/registry"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/schema"
	"github.com/ormasoftchile/script-launcher/pkg/kernel/status"
)

func mockExecutor(_ context.Context, step registry.Step) executor.Result {
	code := 0
	o := status.Success
	if strings.HasPrefix(step.Command, "exit") {
		code, o = 3, status.Failure
	}
	return executor.Result{Outcome: o, Stdout: "mock output", ExitCode: &code}
}

func newServer(t *testing.T, cmds ...string) *Server {
	t.Helper()
	var defs []schema.StepDef
	for i, c := range cmds {
		defs = append(defs, schema.StepDef{Label: "step " + string(rune('a'+i)), Cmd: c})
	}
	reg, err := registry.Load(defs)
	if err != nil {
		t.Fatal(err)
	}
	return NewServer(engine.New(reg, engine.Config{Executor: engine.ExecutorFunc(mockExecutor)}), "test")
}

func call(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("expected content")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return tc.Text
}

func TestHandleListSteps(t *testing.T) {
	s := newServer(t, "echo a", "exit 3")
	result, err := s.HandleListSteps(context.Background(), call(nil))
	if err != nil {
		t.Fatal(err)
	}
	var steps []registry.Step
	if err := json.Unmarshal([]byte(text(t, result)), &steps); err != nil {
		t.Fatal(err)
	}
	if len(steps) != 2 || steps[1].Command != "exit 3" {
		t.Errorf("steps = %+v", steps)
	}
}

func TestHandleRunStep(t *testing.T) {
	s := newServer(t, "echo a", "exit 3")

	result, err := s.HandleRunStep(context.Background(), call(map[string]any{"index": float64(1)}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("failure outcome should be flagged as error")
	}
	var res executor.Result
	if err := json.Unmarshal([]byte(text(t, result)), &res); err != nil {
		t.Fatal(err)
	}
	if res.Outcome != status.Failure {
		t.Errorf("outcome = %s", res.Outcome)
	}
	if code, ok := res.Code(); !ok || code != 3 {
		t.Errorf("exit code = %d, %v", code, ok)
	}
}

func TestHandleRunStep_BadArguments(t *testing.T) {
	s := newServer(t, "echo a")
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing", map[string]any{}, "index argument is required"},
		{"fractional", map[string]any{"index": 0.5}, "whole number"},
		{"out of range", map[string]any{"index": float64(4)}, "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.HandleRunStep(context.Background(), call(tt.args))
			if err != nil {
				t.Fatal(err)
			}
			if !result.IsError {
				t.Error("expected error result")
			}
			if got := text(t, result); !strings.Contains(got, tt.want) {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHandleRunAllAndStatus(t *testing.T) {
	s := newServer(t, "echo a", "exit 3", "echo c")

	result, err := s.HandleRunAll(context.Background(), call(nil))
	if err != nil {
		t.Fatal(err)
	}
	var run struct {
		Results []executor.Result `json:"results"`
		Counts  status.Counts     `json:"counts"`
	}
	if err := json.Unmarshal([]byte(text(t, result)), &run); err != nil {
		t.Fatal(err)
	}
	if len(run.Results) != 3 || run.Counts.Failure != 1 || run.Counts.Success != 2 {
		t.Errorf("run = %+v", run)
	}
	if !result.IsError {
		t.Error("batch with a failure should be flagged")
	}

	result, err = s.HandleStatus(context.Background(), call(nil))
	if err != nil {
		t.Fatal(err)
	}
	var st struct {
		Steps []stepStatus `json:"steps"`
	}
	if err := json.Unmarshal([]byte(text(t, result)), &st); err != nil {
		t.Fatal(err)
	}
	if len(st.Steps) != 3 || st.Steps[1].Outcome != status.Failure || st.Steps[2].Outcome != status.Success {
		t.Errorf("status = %+v", st.Steps)
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	s := newServer(t, "echo a")
	if s.MCPServer() == nil {
		t.Fatal("nil MCP server")
	}
}
