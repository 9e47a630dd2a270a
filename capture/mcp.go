package capture

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/domsnap/kit"
)

// RegisterMCP registers domsnap tools on an MCP server.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerCaptureTool(srv)
	s.registerInspectTool(srv)
	s.registerListTool(srv)
	s.registerGetTool(srv)
	s.registerDeleteTool(srv)
	s.registerStatsTool(srv)
}

// inputSchema builds a JSON Schema object with type "object".
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

// --- capture ---

func (s *Service) registerCaptureTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domsnap_capture",
		Description: "Capture a page element with its scroll limits removed: measures the full content and renders artifacts (png, jpeg, pdf, md). Returns the stored capture record.",
		InputSchema: inputSchema(map[string]any{
			"url":       map[string]any{"type": "string", "description": "Page URL (http or https)"},
			"target_id": map[string]any{"type": "string", "description": "Element ID to capture; wins over selector"},
			"selector":  map[string]any{"type": "string", "description": "CSS selector to capture; body when neither is set"},
			"placement": map[string]any{"type": "string", "enum": []any{"offscreen", "visible", "unset"}, "description": "Clone placement (default: offscreen)"},
			"styles":    map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "string"}, "description": "Extra inline styles applied to the clone after placement"},
			"formats":   map[string]any{"type": "array", "items": map[string]any{"type": "string", "enum": []any{"png", "jpeg", "pdf", "md"}}, "description": "Artifact formats (default from config)"},
		}, []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*Request)
		return s.Capture(ctx, *r)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r Request
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- inspect ---

func (s *Service) registerInspectTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domsnap_inspect",
		Description: "Inspect an element's scroll limits without mutating the page: computed-style limit report, full dimensions, and whether each limiting property is declared for it.",
		InputSchema: inputSchema(map[string]any{
			"url":       map[string]any{"type": "string", "description": "Page URL (http or https)"},
			"target_id": map[string]any{"type": "string", "description": "Element ID to inspect; wins over selector"},
			"selector":  map[string]any{"type": "string", "description": "CSS selector to inspect; body when neither is set"},
		}, []string{"url"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*InspectRequest)
		return s.Inspect(ctx, *r)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r InspectRequest
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- list_captures ---

func (s *Service) registerListTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domsnap_list_captures",
		Description: "List stored captures, newest first.",
		InputSchema: inputSchema(map[string]any{
			"url":   map[string]any{"type": "string", "description": "Filter by exact page URL"},
			"limit": map[string]any{"type": "integer", "description": "Max results (default 100)"},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*ListOptions)
		return s.ListCaptures(ctx, *r)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r ListOptions
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- get_capture ---

func (s *Service) registerGetTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domsnap_get_capture",
		Description: "Get a stored capture by ID, including its artifact index.",
		InputSchema: inputSchema(map[string]any{
			"id": map[string]any{"type": "string", "description": "Capture ID"},
		}, []string{"id"}),
	}

	type getReq struct {
		ID string `json:"id"`
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*getReq)
		return s.GetCapture(ctx, r.ID)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r getReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- delete_capture ---

func (s *Service) registerDeleteTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domsnap_delete_capture",
		Description: "Delete a stored capture and its artifact files.",
		InputSchema: inputSchema(map[string]any{
			"id": map[string]any{"type": "string", "description": "Capture ID to delete"},
		}, []string{"id"}),
	}

	type delReq struct {
		ID string `json:"id"`
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*delReq)
		if err := s.DeleteCapture(ctx, r.ID); err != nil {
			return nil, err
		}
		return map[string]string{"status": "deleted", "id": r.ID}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r delReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// --- stats ---

func (s *Service) registerStatsTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "domsnap_stats",
		Description: "Get domsnap statistics: counts of stored captures and artifacts.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (any, error) {
		return s.Stats(ctx)
	}

	decode := func(_ *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}
