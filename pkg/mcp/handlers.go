package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ormasoftchile/script-launcher/pkg/kernel/status"
)

// HandleListSteps implements the list_steps tool.
func (s *Server) HandleListSteps(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.eng.Registry().Steps(), false), nil
}

// HandleRunStep implements the run_step tool.
func (s *Server) HandleRunStep(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	raw, ok := args["index"].(float64)
	if !ok {
		return errorResult("index argument is required"), nil
	}
	index := int(raw)
	if float64(index) != raw {
		return errorResult(fmt.Sprintf("index must be a whole number, got %v", raw)), nil
	}

	res, err := s.eng.Run(ctx, index)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(res, res.Outcome != status.Success), nil
}

// HandleRunAll implements the run_all tool.
func (s *Server) HandleRunAll(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	run := s.eng.RunAll(ctx)

	response := map[string]any{
		"results":  run.Results,
		"counts":   run.Counts(),
		"duration": run.Duration.String(),
	}
	if run.Err != nil {
		response["error"] = run.Err.Error()
	}
	c := run.Counts()
	return jsonResult(response, run.Err != nil || c.Failure > 0 || c.Fault > 0), nil
}

type stepStatus struct {
	Index   int            `json:"index"`
	Label   string         `json:"label"`
	Outcome status.Outcome `json:"outcome"`
}

// HandleStatus implements the status tool.
func (s *Server) HandleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	outcomes := s.eng.Status().Snapshot()
	steps := make([]stepStatus, 0, len(outcomes))
	for step := range s.eng.Registry().All() {
		steps = append(steps, stepStatus{Index: step.Index, Label: step.Label, Outcome: outcomes[step.Index]})
	}
	return jsonResult(map[string]any{
		"steps":  steps,
		"counts": s.eng.Status().Counts(),
	}, false), nil
}

func jsonResult(v any, isErr bool) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("marshal result: %s", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: isErr,
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
