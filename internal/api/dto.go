package api

import (
	"github.com/starford/komaokuri/internal/probe"
	"github.com/starford/komaokuri/internal/session"
)

// LoadVideoRequest announces a new video. Path optionally names a server-side
// MP4 whose duration is probed immediately.
type LoadVideoRequest struct {
	Name string `json:"name" example:"take3.mp4"`
	Path string `json:"path,omitempty" example:"/media/take3.mp4"`
}

// LoadVideoResponse is returned after a video is loaded.
type LoadVideoResponse struct {
	Session session.Snapshot `json:"session"`
	Probe   *probe.Info      `json:"probe,omitempty"`
}

// DurationRequest reports the video duration.
type DurationRequest struct {
	Duration float64 `json:"duration" example:"12.5"`
}

// TimeRequest reports the playback position.
type TimeRequest struct {
	Time float64 `json:"time" example:"3.2"`
}

// DirectionRequest selects a navigation or reorder direction.
type DirectionRequest struct {
	Direction string `json:"direction" example:"forward"`
}

// ClickRequest is a click on a timeline row.
type ClickRequest struct {
	Layer    int     `json:"layer" example:"0"`
	Fraction float64 `json:"fraction" example:"0.25"`
}

// SkipRequest skips relative to the current time.
type SkipRequest struct {
	Seconds float64 `json:"seconds" example:"-5"`
}

// DeltaRequest moves the layer selection.
type DeltaRequest struct {
	Delta int `json:"delta" example:"1"`
}

// FrameRateRequest changes a layer's frame rate.
type FrameRateRequest struct {
	FrameRate float64 `json:"frameRate" example:"29.97"`
}

// OffsetRequest changes the start offset.
type OffsetRequest struct {
	StartOffset float64 `json:"startOffset" example:"0.001"`
}

// SpeedRequest changes the playback rate.
type SpeedRequest struct {
	Rate float64 `json:"rate" example:"0.25"`
}

// OverlayRequest toggles the frame overlay.
type OverlayRequest struct {
	Enabled bool `json:"enabled"`
}

// KeyRequest forwards a key press.
type KeyRequest struct {
	Key string `json:"key" example:"ArrowRight"`
}

// FrameUploadResponse is returned after a captured frame is written.
type FrameUploadResponse struct {
	Path string `json:"path" example:"frames/frame_1.500.png"`
}
