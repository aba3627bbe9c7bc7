package session

import (
	"context"
	"fmt"

	"github.com/starford/komaokuri/internal/settings"
)

// Player is the external video source. The controller never reads playback
// state from it; it only issues commands and is told about time and duration
// through TimeUpdate and DurationKnown.
type Player interface {
	Seek(t float64) error
	SetPlaybackRate(rate float64) error
	TogglePlay() error
}

// FrameRequest asks the frame exporter to save the currently displayed frame.
type FrameRequest struct {
	SessionID    string  `json:"sessionId"`
	Time         float64 `json:"time"`
	FileName     string  `json:"fileName"`
	Overlay      bool    `json:"overlay"`
	OverlayColor string  `json:"overlayColor"`
	Label        string  `json:"label"`
}

// FrameExporter saves the displayed frame as an image.
type FrameExporter interface {
	ExportFrame(ctx context.Context, req FrameRequest) error
}

// SettingsSink persists an exported settings document.
type SettingsSink interface {
	SaveSettings(ctx context.Context, doc settings.Document) error
}

// FrameFileName names an exported frame after its playback time.
func FrameFileName(t float64) string {
	return fmt.Sprintf("frame_%.3f.png", t)
}
