package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"syllacal/idgen"
	"syllacal/kit"
)

// RegisterMCP registers the extraction pipeline as an MCP tool.
func (r *Runner) RegisterMCP(srv *mcp.Server) {
	r.registerExtractTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

type extractReq struct {
	Path string `json:"path"`
}

func (r *Runner) registerExtractTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "syllabus_extract",
		Description: "Extract calendar events (assignments, readings, exams) from a syllabus document file.",
		InputSchema: inputSchema(map[string]any{
			"path": map[string]any{"type": "string", "description": "File path of the syllabus document"},
		}, []string{"path"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		q := req.(*extractReq)
		data, err := os.ReadFile(q.Path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", q.Path, err)
		}
		return r.Run(ctx, data)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var q extractReq
		if err := json.Unmarshal(req.Params.Arguments, &q); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{
			Request: &q,
			EnrichCtx: func(ctx context.Context) context.Context {
				ctx = kit.WithRequestID(ctx, idgen.Prefixed("req_", idgen.Default)())
				return kit.WithTransport(ctx, "mcp")
			},
		}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
