// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes review session tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/komaokuri/internal/layer"
	"github.com/starford/komaokuri/internal/navigate"
	"github.com/starford/komaokuri/internal/session"
	"github.com/starford/komaokuri/internal/settings"
)

const settingsFormatURI = "komaokuri://settings-format"

// Server wraps the MCP server with review tools.
type Server struct {
	mcp  *server.MCPServer
	ctrl *session.Controller
}

// New creates a new MCP server with all review tools registered.
func New(ctrl *session.Controller) *Server {
	s := &Server{ctrl: ctrl}

	s.mcp = server.NewMCPServer(
		"Komaokuri",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("session_state",
		mcp.WithDescription("Return the current review session: video, playhead, layers, bookmarks and offset."),
	), s.sessionState)

	s.mcp.AddTool(mcp.NewTool("step_frame",
		mcp.WithDescription("Seek to the next or previous frame of the selected layer."),
		mcp.WithString("direction", mcp.Required(), mcp.Enum("forward", "backward")),
	), s.stepFrame)

	s.mcp.AddTool(mcp.NewTool("step_bookmark",
		mcp.WithDescription("Seek to the next or previous bookmarked frame of the selected layer."),
		mcp.WithString("direction", mcp.Required(), mcp.Enum("forward", "backward")),
	), s.stepBookmark)

	s.mcp.AddTool(mcp.NewTool("toggle_bookmark",
		mcp.WithDescription("Toggle the bookmark on the current frame of the selected layer."),
	), s.toggleBookmark)

	s.mcp.AddTool(mcp.NewTool("add_layer",
		mcp.WithDescription("Append a frame-rate layer at the default rate and select it."),
	), s.addLayer)

	s.mcp.AddTool(mcp.NewTool("remove_layer",
		mcp.WithDescription("Remove a layer. The last remaining layer cannot be removed."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based layer index")),
	), s.removeLayer)

	s.mcp.AddTool(mcp.NewTool("move_layer",
		mcp.WithDescription("Swap a layer with its neighbour above or below."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based layer index")),
		mcp.WithString("direction", mcp.Required(), mcp.Enum("up", "down")),
	), s.moveLayer)

	s.mcp.AddTool(mcp.NewTool("set_frame_rate",
		mcp.WithDescription("Change a layer's frame rate. Its frame times are recomputed and bookmarks remapped."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("Zero-based layer index")),
		mcp.WithNumber("frame_rate", mcp.Required(), mcp.Description("Frames per second, greater than zero")),
	), s.setFrameRate)

	s.mcp.AddTool(mcp.NewTool("set_start_offset",
		mcp.WithDescription("Set the time in seconds of frame zero for every layer."),
		mcp.WithNumber("offset", mcp.Required(), mcp.Description("Seconds, between 0 and the video duration")),
	), s.setStartOffset)

	s.mcp.AddTool(mcp.NewTool("frame_times",
		mcp.WithDescription("List the frame start times of a layer, paginated."),
		mcp.WithNumber("layer", mcp.Required(), mcp.Description("Zero-based layer index")),
		mcp.WithNumber("from", mcp.Description("First frame index (default 0)")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of times (default 100)")),
	), s.frameTimes)

	s.mcp.AddTool(mcp.NewTool("get_settings_format",
		mcp.WithDescription("Returns the settings document format. "+
			"Call this before import_settings to build a valid document."),
	), s.getSettingsFormat)

	s.mcp.AddTool(mcp.NewTool("export_settings",
		mcp.WithDescription("Export the session's layers, bookmarks, offset, palette and shortcuts as JSON."),
	), s.exportSettings)

	s.mcp.AddTool(mcp.NewTool("import_settings",
		mcp.WithDescription("Replace the session's layers, bookmarks, offset, palette and shortcuts. "+
			"The document MUST follow the format returned by get_settings_format or the "+
			settingsFormatURI+" resource."),
		mcp.WithString("document", mcp.Required(), mcp.Description("Settings document as a JSON string")),
	), s.importSettings)

	// Resource: settings document format.
	s.mcp.AddResource(
		mcp.NewResource(settingsFormatURI, "Settings Document Format",
			mcp.WithResourceDescription("Format of the exportable review settings document."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSettingsFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) sessionState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.ctrl.Snapshot())
}

func (s *Server) stepFrame(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.step(req, s.ctrl.StepFrame)
}

func (s *Server) stepBookmark(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.step(req, s.ctrl.StepBookmark)
}

func (s *Server) step(req mcp.CallToolRequest, fn func(navigate.Direction) (session.Move, error)) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("direction")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dir, err := navigate.ParseDirection(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mv, err := fn(dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(mv)
}

func (s *Server) toggleBookmark(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.ctrl.ToggleBookmark()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) addLayer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idx, err := s.ctrl.AddLayer()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added layer %d", idx)), nil
}

func (s *Server) removeLayer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idx, err := requireIndex(req, "index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.ctrl.RemoveLayer(idx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("removed layer %d", idx)), nil
}

func (s *Server) moveLayer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idx, err := requireIndex(req, "index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("direction")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dir, err := layer.ParseDirection(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.ctrl.MoveLayer(idx, dir); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("moved layer %d %s", idx, dir)), nil
}

func (s *Server) setFrameRate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idx, err := requireIndex(req, "index")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rate, err := req.RequireFloat("frame_rate")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.ctrl.SetFrameRate(idx, rate); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.ctrl.Snapshot().Layers[idx])
}

func (s *Server) setStartOffset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	offset, err := req.RequireFloat("offset")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.ctrl.SetStartOffset(offset); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("start offset: %g", offset)), nil
}

func (s *Server) frameTimes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idx, err := requireIndex(req, "layer")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	times, err := s.ctrl.FrameTimes(idx, req.GetInt("from", 0), req.GetInt("limit", 100))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(times)
}

func (s *Server) getSettingsFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(SettingsFormatContract), nil
}

func (s *Server) exportSettings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	if err := settings.Encode(&b, s.ctrl.Export()); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) importSettings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := settings.Decode(strings.NewReader(raw))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.ctrl.Import(doc); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("imported %d layers", len(doc.Layers))), nil
}

func (s *Server) readSettingsFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      settingsFormatURI,
			MIMEType: "text/markdown",
			Text:     SettingsFormatContract,
		},
	}, nil
}

// requireIndex reads a non-negative integer argument. JSON numbers arrive as
// float64, so fractional values are rejected here.
func requireIndex(req mcp.CallToolRequest, key string) (int, error) {
	f, err := req.RequireFloat(key)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != float64(int(f)) {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return int(f), nil
}
