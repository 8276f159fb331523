package webrote

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/webrote/kit"
)

type extractPageRequest struct {
	URL          string `json:"url"`
	ExtractLinks bool   `json:"extract_links,omitempty"`
}

func (s *Service) registerExtractTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "webrote_extract_page",
		Description: "Navigate to a URL and return its content as markdown. Popups and modals are returned separately from the main content.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url":           map[string]any{"type": "string", "description": "URL to extract"},
				"extract_links": map[string]any{"type": "boolean", "description": "Keep href attributes in the output"},
			},
			"required": []string{"url"},
		},
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*extractPageRequest)
		return s.extractPage(ctx, r.URL, r.ExtractLinks || s.cfg.Extract.ExtractLinks)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r extractPageRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
