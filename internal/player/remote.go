// Package player connects the session controller to the browser that plays
// the video. Commands go out as SSE events and over the player socket;
// playback signals and key presses come back over the socket.
package player

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/komaokuri/internal/apperr"
	"github.com/starford/komaokuri/internal/session"
	"github.com/starford/komaokuri/internal/sse"
)

// Publisher broadcasts events to SSE clients.
type Publisher interface {
	Publish(event sse.Event)
}

// FrameWriter stores an uploaded frame.
type FrameWriter interface {
	WriteFrame(req session.FrameRequest, r io.Reader) (string, error)
}

// Capture is a frame export waiting for the browser's upload.
type Capture struct {
	ID string `json:"id"`
	session.FrameRequest
}

// CaptureTTL is how long a capture request waits for its upload.
const CaptureTTL = time.Minute

type pendingCapture struct {
	req     session.FrameRequest
	created time.Time
}

// Remote implements session.Player and session.FrameExporter for a browser
// player.
type Remote struct {
	pub    Publisher
	writer FrameWriter
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	captures map[string]pendingCapture
	links    map[*link]struct{}
}

// NewRemote creates a Remote. writer may be nil when frame export is
// disabled.
func NewRemote(pub Publisher, writer FrameWriter, logger *slog.Logger) *Remote {
	if logger == nil {
		logger = slog.Default()
	}
	return &Remote{
		pub:      pub,
		writer:   writer,
		logger:   logger,
		now:      time.Now,
		captures: make(map[string]pendingCapture),
		links:    make(map[*link]struct{}),
	}
}

var (
	_ session.Player        = (*Remote)(nil)
	_ session.FrameExporter = (*Remote)(nil)
)

// Seek implements session.Player.
func (r *Remote) Seek(t float64) error {
	r.send(sse.Event{Type: sse.TypePlayerSeek, Data: map[string]float64{"time": t}})
	return nil
}

// SetPlaybackRate implements session.Player.
func (r *Remote) SetPlaybackRate(rate float64) error {
	r.send(sse.Event{Type: sse.TypePlayerRate, Data: map[string]float64{"rate": rate}})
	return nil
}

// TogglePlay implements session.Player.
func (r *Remote) TogglePlay() error {
	r.send(sse.Event{Type: sse.TypePlayerToggle, Data: map[string]string{}})
	return nil
}

// ExportFrame implements session.FrameExporter. It asks the browser to
// upload the displayed frame; CompleteCapture finishes the export.
func (r *Remote) ExportFrame(_ context.Context, req session.FrameRequest) error {
	if r.writer == nil {
		return fmt.Errorf("frame export is disabled")
	}
	c := Capture{ID: uuid.NewString(), FrameRequest: req}

	r.mu.Lock()
	now := r.now()
	for id, p := range r.captures {
		if now.Sub(p.created) > CaptureTTL {
			delete(r.captures, id)
		}
	}
	r.captures[c.ID] = pendingCapture{req: req, created: now}
	r.mu.Unlock()

	r.send(sse.Event{Type: sse.TypeFrameCapture, Data: c})
	return nil
}

// CompleteCapture writes the uploaded image for capture id.
func (r *Remote) CompleteCapture(id string, img io.Reader) (string, error) {
	r.mu.Lock()
	p, ok := r.captures[id]
	if ok {
		delete(r.captures, id)
	}
	r.mu.Unlock()

	if !ok || r.now().Sub(p.created) > CaptureTTL {
		return "", fmt.Errorf("%w: capture %s", apperr.ErrNotFound, id)
	}
	return r.writer.WriteFrame(p.req, img)
}

// PendingCaptures returns the number of captures awaiting upload.
func (r *Remote) PendingCaptures() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.captures)
}

func (r *Remote) send(event sse.Event) {
	r.pub.Publish(event)

	r.mu.Lock()
	defer r.mu.Unlock()
	for l := range r.links {
		l.enqueue(event)
	}
}

func (r *Remote) attach(l *link) {
	r.mu.Lock()
	r.links[l] = struct{}{}
	r.mu.Unlock()
}

func (r *Remote) detach(l *link) {
	r.mu.Lock()
	delete(r.links, l)
	r.mu.Unlock()
}
