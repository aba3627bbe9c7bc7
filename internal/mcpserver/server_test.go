package mcpserver

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/komaokuri/internal/session"
	"github.com/starford/komaokuri/internal/settings"
	"github.com/starford/komaokuri/internal/testutil"
)

func testServer(t *testing.T, ready bool) (*Server, *session.Controller) {
	t.Helper()

	var ctrl *session.Controller
	if ready {
		ctrl = testutil.ReadyController(t, 1)
	} else {
		ctrl = testutil.Controller(t)
	}
	return New(ctrl), ctrl
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process "call tool" helper, so handlers are invoked
	// directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "session_state":
		result, err = srv.sessionState(ctx, req)
	case "step_frame":
		result, err = srv.stepFrame(ctx, req)
	case "step_bookmark":
		result, err = srv.stepBookmark(ctx, req)
	case "toggle_bookmark":
		result, err = srv.toggleBookmark(ctx, req)
	case "add_layer":
		result, err = srv.addLayer(ctx, req)
	case "remove_layer":
		result, err = srv.removeLayer(ctx, req)
	case "move_layer":
		result, err = srv.moveLayer(ctx, req)
	case "set_frame_rate":
		result, err = srv.setFrameRate(ctx, req)
	case "set_start_offset":
		result, err = srv.setStartOffset(ctx, req)
	case "frame_times":
		result, err = srv.frameTimes(ctx, req)
	case "get_settings_format":
		result, err = srv.getSettingsFormat(ctx, req)
	case "export_settings":
		result, err = srv.exportSettings(ctx, req)
	case "import_settings":
		result, err = srv.importSettings(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestStepAndBookmark(t *testing.T) {
	srv, ctrl := testServer(t, true)

	r := callTool(t, srv, "step_frame", map[string]interface{}{"direction": "forward"})
	if r.IsError {
		t.Fatalf("step_frame: %s", resultText(r))
	}
	var mv session.Move
	if err := json.Unmarshal([]byte(resultText(r)), &mv); err != nil {
		t.Fatal(err)
	}
	if !mv.Moved || math.Abs(mv.Time-1.0/24) > 1e-9 {
		t.Errorf("move = %+v", mv)
	}

	r = callTool(t, srv, "toggle_bookmark", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("toggle_bookmark: %s", resultText(r))
	}
	if got := ctrl.Snapshot().Layers[0].Bookmarks; len(got) != 1 || got[0] != 1 {
		t.Errorf("bookmarks = %v", got)
	}

	callTool(t, srv, "step_frame", map[string]interface{}{"direction": "forward"})
	r = callTool(t, srv, "step_bookmark", map[string]interface{}{"direction": "backward"})
	if err := json.Unmarshal([]byte(resultText(r)), &mv); err != nil {
		t.Fatal(err)
	}
	if math.Abs(mv.Time-1.0/24) > 1e-9 {
		t.Errorf("bookmark step landed at %v", mv.Time)
	}
}

func TestStepFrame_BadDirection(t *testing.T) {
	srv, _ := testServer(t, true)
	r := callTool(t, srv, "step_frame", map[string]interface{}{"direction": "sideways"})
	if !r.IsError {
		t.Error("expected error for bad direction")
	}
}

func TestToolsRequireVideo(t *testing.T) {
	srv, _ := testServer(t, false)
	r := callTool(t, srv, "step_frame", map[string]interface{}{"direction": "forward"})
	if !r.IsError {
		t.Error("expected error without a loaded video")
	}
}

func TestLayerTools(t *testing.T) {
	srv, ctrl := testServer(t, true)

	r := callTool(t, srv, "remove_layer", map[string]interface{}{"index": float64(0)})
	if !r.IsError {
		t.Error("removing the only layer should fail")
	}

	r = callTool(t, srv, "add_layer", map[string]interface{}{})
	if text := resultText(r); text != "added layer 1" {
		t.Errorf("add_layer = %q", text)
	}

	r = callTool(t, srv, "set_frame_rate", map[string]interface{}{"index": float64(1), "frame_rate": float64(30)})
	if r.IsError {
		t.Fatalf("set_frame_rate: %s", resultText(r))
	}

	r = callTool(t, srv, "move_layer", map[string]interface{}{"index": float64(1), "direction": "up"})
	if r.IsError {
		t.Fatalf("move_layer: %s", resultText(r))
	}
	if got := ctrl.Snapshot().Layers[0].FrameRate; got != 30 {
		t.Errorf("layer 0 rate = %v after move", got)
	}

	r = callTool(t, srv, "remove_layer", map[string]interface{}{"index": 0.5})
	if !r.IsError {
		t.Error("fractional index should be rejected")
	}
}

func TestFrameTimes(t *testing.T) {
	srv, _ := testServer(t, true)

	r := callTool(t, srv, "frame_times", map[string]interface{}{"layer": float64(0), "from": 2, "limit": 2})
	if r.IsError {
		t.Fatalf("frame_times: %s", resultText(r))
	}
	var times []float64
	if err := json.Unmarshal([]byte(resultText(r)), &times); err != nil {
		t.Fatal(err)
	}
	if len(times) != 2 || math.Abs(times[0]-2.0/24) > 1e-9 || math.Abs(times[1]-3.0/24) > 1e-9 {
		t.Errorf("times = %v", times)
	}

	r = callTool(t, srv, "frame_times", map[string]interface{}{"layer": float64(5)})
	if !r.IsError {
		t.Error("expected error for unknown layer")
	}
}

func TestSetStartOffset(t *testing.T) {
	srv, ctrl := testServer(t, true)
	r := callTool(t, srv, "set_start_offset", map[string]interface{}{"offset": 0.5})
	if r.IsError {
		t.Fatalf("set_start_offset: %s", resultText(r))
	}
	if got := ctrl.Snapshot().StartOffset; got != 0.5 {
		t.Errorf("offset = %v", got)
	}
	r = callTool(t, srv, "set_start_offset", map[string]interface{}{"offset": 2.0})
	if !r.IsError {
		t.Error("offset past the duration should fail")
	}
}

func TestExportImportSettings(t *testing.T) {
	srv, ctrl := testServer(t, true)

	doc := `{"layers":[{"frameRate":24,"bookmarkedFrames":[2,5]},{"frameRate":12}],"startOffset":0}`
	r := callTool(t, srv, "import_settings", map[string]interface{}{"document": doc})
	if r.IsError {
		t.Fatalf("import_settings: %s", resultText(r))
	}
	if n := len(ctrl.Snapshot().Layers); n != 2 {
		t.Fatalf("layers = %d", n)
	}

	r = callTool(t, srv, "export_settings", map[string]interface{}{})
	exported, err := settings.Decode(strings.NewReader(resultText(r)))
	if err != nil {
		t.Fatalf("exported document does not decode: %v", err)
	}
	if len(exported.Layers) != 2 || len(exported.Layers[0].BookmarkedFrames) != 2 || exported.Layers[1].FrameRate != 12 {
		t.Errorf("exported = %+v", exported)
	}
}

func TestImportSettings_Malformed(t *testing.T) {
	srv, ctrl := testServer(t, true)
	before := ctrl.Export()

	for _, doc := range []string{
		`not json`,
		`{"layers":[{"frameRate":0}],"startOffset":0}`,
		`{"startOffset":0}`,
	} {
		r := callTool(t, srv, "import_settings", map[string]interface{}{"document": doc})
		if !r.IsError {
			t.Errorf("import %q should fail", doc)
		}
	}
	if after := ctrl.Export(); len(after.Layers) != len(before.Layers) {
		t.Error("failed import changed the session")
	}
}

func TestSettingsFormat(t *testing.T) {
	srv, _ := testServer(t, false)
	r := callTool(t, srv, "get_settings_format", map[string]interface{}{})
	if resultText(r) != SettingsFormatContract {
		t.Error("format tool should return the contract")
	}

	contents, err := srv.readSettingsFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != settingsFormatURI || !strings.Contains(tc.Text, "frameRate") {
		t.Errorf("resource = %+v", contents[0])
	}
}

func TestSessionState(t *testing.T) {
	srv, _ := testServer(t, true)
	r := callTool(t, srv, "session_state", map[string]interface{}{})
	var snap struct {
		State     string `json:"state"`
		VideoName string `json:"videoName"`
		Layers    []any  `json:"layers"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.VideoName != "clip.mp4" || len(snap.Layers) != 1 || snap.State == "" {
		t.Errorf("state = %+v", snap)
	}
}
