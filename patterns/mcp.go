package patterns

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/webrote/kit"
)

// RegisterMCP registers pattern store tools on an MCP server.
func (s *Store) RegisterMCP(srv *mcp.Server) {
	s.registerListPatternsTool(srv)
	s.registerGetWorkflowsTool(srv)
	s.registerStatsTool(srv)
}

// inputSchema builds a JSON Schema object with type "object".
func inputSchema(properties map[string]any, required []string) map[string]any {
	sc := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		sc["required"] = required
	}
	return sc
}

// --- list_patterns ---

type listPatternsRequest struct {
	Domain string `json:"domain,omitempty"`
	URL    string `json:"url,omitempty"`
}

func (s *Store) registerListPatternsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "webrote_list_patterns",
		Description: "List learned interaction patterns. Filter by domain or URL; with neither, returns all domains.",
		InputSchema: inputSchema(map[string]any{
			"domain": map[string]any{"type": "string", "description": "Domain to filter by (e.g. example.com)"},
			"url":    map[string]any{"type": "string", "description": "Full URL; its domain is extracted and normalized"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*listPatternsRequest)
		target := r.Domain
		if target == "" {
			target = r.URL
		}
		if target == "" {
			pf, err := s.Load()
			if err != nil {
				return nil, err
			}
			return pf.Patterns, nil
		}
		entries, err := s.PatternsFor(target)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"domain":   NormalizeDomain(target),
			"patterns": entries,
		}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r listPatternsRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- get_workflows ---

type getWorkflowsRequest struct {
	Domain string `json:"domain,omitempty"`
}

func (s *Store) registerGetWorkflowsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "webrote_get_workflows",
		Description: "Get learned multi-step workflows for a domain, plus global workflows. With no domain, returns global workflows only.",
		InputSchema: inputSchema(map[string]any{
			"domain": map[string]any{"type": "string", "description": "Domain to look up (e.g. example.com)"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*getWorkflowsRequest)
		ws, err := s.WorkflowsFor(r.Domain)
		if err != nil {
			return nil, err
		}
		if ws == nil {
			ws = []WorkflowPattern{}
		}
		return map[string]any{"workflows": ws}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r getWorkflowsRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- stats ---

func (s *Store) registerStatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "webrote_stats",
		Description: "Get pattern store statistics: file path, schema version, and counts of domains, patterns, and workflows.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		pf, err := s.Load()
		if err != nil {
			return nil, err
		}
		patternCount := 0
		for _, byType := range pf.Patterns {
			patternCount += len(byType)
		}
		workflowCount := 0
		for _, byID := range pf.Workflows {
			workflowCount += len(byID)
		}
		return map[string]any{
			"path":      s.Path(),
			"version":   pf.Version,
			"domains":   len(pf.Patterns),
			"patterns":  patternCount,
			"workflows": workflowCount,
		}, nil
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
