package player

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/starford/komaokuri/internal/apperr"
	"github.com/starford/komaokuri/internal/keymap"
	"github.com/starford/komaokuri/internal/session"
	"github.com/starford/komaokuri/internal/sse"
	"github.com/starford/komaokuri/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []sse.Event
}

func (p *recordingPublisher) Publish(e sse.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) last() sse.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

type memWriter struct {
	req  session.FrameRequest
	body string
}

func (w *memWriter) WriteFrame(req session.FrameRequest, r io.Reader) (string, error) {
	b, _ := io.ReadAll(r)
	w.req, w.body = req, string(b)
	return "/frames/" + req.FileName, nil
}

func TestRemote_Commands(t *testing.T) {
	pub := &recordingPublisher{}
	r := NewRemote(pub, nil, testutil.Logger())

	_ = r.Seek(1.25)
	if e := pub.last(); e.Type != sse.TypePlayerSeek || e.Data.(map[string]float64)["time"] != 1.25 {
		t.Errorf("seek event = %+v", e)
	}
	_ = r.SetPlaybackRate(2)
	if e := pub.last(); e.Type != sse.TypePlayerRate {
		t.Errorf("rate event = %+v", e)
	}
	_ = r.TogglePlay()
	if e := pub.last(); e.Type != sse.TypePlayerToggle {
		t.Errorf("toggle event = %+v", e)
	}
}

func TestRemote_CaptureRoundTrip(t *testing.T) {
	pub := &recordingPublisher{}
	w := &memWriter{}
	r := NewRemote(pub, w, testutil.Logger())

	req := session.FrameRequest{Time: 0.5, FileName: "frame_0.500.png"}
	if err := r.ExportFrame(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	c, ok := pub.last().Data.(Capture)
	if !ok || c.ID == "" || c.FileName != "frame_0.500.png" {
		t.Fatalf("capture event = %+v", pub.last())
	}

	path, err := r.CompleteCapture(c.ID, strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if path != "/frames/frame_0.500.png" || w.body != "png-bytes" || w.req.Time != 0.5 {
		t.Errorf("written %s %q %+v", path, w.body, w.req)
	}
	if _, err := r.CompleteCapture(c.ID, strings.NewReader("again")); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second completion err = %v", err)
	}
}

func TestRemote_CaptureExpires(t *testing.T) {
	pub := &recordingPublisher{}
	r := NewRemote(pub, &memWriter{}, testutil.Logger())
	now := time.Now()
	r.now = func() time.Time { return now }

	_ = r.ExportFrame(context.Background(), session.FrameRequest{FileName: "a.png"})
	id := pub.last().Data.(Capture).ID

	now = now.Add(2 * CaptureTTL)
	if _, err := r.CompleteCapture(id, strings.NewReader("x")); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expired capture err = %v", err)
	}

	_ = r.ExportFrame(context.Background(), session.FrameRequest{FileName: "b.png"})
	now = now.Add(2 * CaptureTTL)
	_ = r.ExportFrame(context.Background(), session.FrameRequest{FileName: "c.png"})
	if n := r.PendingCaptures(); n != 1 {
		t.Errorf("pending = %d, want stale captures pruned", n)
	}
}

func TestRemote_ExportDisabled(t *testing.T) {
	r := NewRemote(&recordingPublisher{}, nil, testutil.Logger())
	if err := r.ExportFrame(context.Background(), session.FrameRequest{}); err == nil {
		t.Error("expected error without frame writer")
	}
}

type fakeSession struct {
	mu       sync.Mutex
	loaded   string
	duration float64
	times    []float64
	keys     []string
}

func (s *fakeSession) LoadVideo(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = name
	return nil
}

func (s *fakeSession) DurationKnown(d float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d < 0 {
		return apperr.ErrInvalidInput
	}
	s.duration = d
	return nil
}

func (s *fakeSession) TimeUpdate(t float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.times = append(s.times, t)
	return nil
}

func (s *fakeSession) HandleKey(_ context.Context, key string) (keymap.Command, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	return keymap.Command{Action: keymap.FrameForward}, key == "ArrowRight", nil
}

func dial(t *testing.T, r *Remote, s Session) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(r.Handler(s))
	t.Cleanup(srv.Close)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var m map[string]any
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("read: %v", err)
	}
	return m
}

func TestHandler_InboundAndOutbound(t *testing.T) {
	r := NewRemote(&recordingPublisher{}, nil, testutil.Logger())
	s := &fakeSession{}
	conn := dial(t, r, s)

	for _, m := range []Message{
		{Type: MsgLoaded, Name: "clip.mp4"},
		{Type: MsgDuration, Duration: 12.5},
		{Type: MsgTimeUpdate, Time: 3},
	} {
		if err := conn.WriteJSON(m); err != nil {
			t.Fatal(err)
		}
	}

	if err := conn.WriteJSON(Message{Type: MsgKey, Key: "ArrowRight"}); err != nil {
		t.Fatal(err)
	}
	if m := readMessage(t, conn); m["type"] != "command" {
		t.Errorf("key reply = %v", m)
	}

	s.mu.Lock()
	if s.loaded != "clip.mp4" || s.duration != 12.5 || len(s.times) != 1 || s.times[0] != 3 {
		t.Errorf("session = %+v", s)
	}
	s.mu.Unlock()

	if err := conn.WriteJSON(Message{Type: MsgDuration, Duration: -1}); err != nil {
		t.Fatal(err)
	}
	if m := readMessage(t, conn); m["type"] != "error" {
		t.Errorf("rejected message reply = %v", m)
	}

	_ = r.Seek(4.5)
	m := readMessage(t, conn)
	if m["type"] != sse.TypePlayerSeek {
		t.Fatalf("outbound = %v", m)
	}
	if data, _ := m["data"].(map[string]any); data["time"] != 4.5 {
		t.Errorf("seek data = %v", m["data"])
	}
}
