package player

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/starford/komaokuri/internal/keymap"
	"github.com/starford/komaokuri/internal/sse"
)

// Session is the part of the session controller the player socket drives.
type Session interface {
	LoadVideo(name string) error
	DurationKnown(d float64) error
	TimeUpdate(t float64) error
	HandleKey(ctx context.Context, key string) (keymap.Command, bool, error)
}

// Inbound message types sent by the player.
const (
	MsgLoaded     = "loaded"
	MsgDuration   = "duration"
	MsgTimeUpdate = "timeupdate"
	MsgKey        = "key"
	MsgPing       = "ping"
)

// Message is one JSON frame on the player socket.
type Message struct {
	Type     string          `json:"type"`
	Name     string          `json:"name,omitempty"`
	Time     float64         `json:"time,omitempty"`
	Duration float64         `json:"duration,omitempty"`
	Key      string          `json:"key,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type link struct {
	conn    *websocket.Conn
	out     chan any
	writeMu sync.Mutex
	once    sync.Once
	done    chan struct{}
}

func (l *link) enqueue(event sse.Event) {
	select {
	case l.out <- event:
	default:
		// Player too slow; drop rather than block the controller.
	}
}

func (l *link) close() {
	l.once.Do(func() { close(l.done) })
}

func (l *link) write(v any) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	_ = l.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return l.conn.WriteJSON(v)
}

// Handler serves the player socket (GET /player/ws). Every inbound message is
// applied to s; commands issued through r are written back to the socket.
func (r *Remote) Handler(s Session) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			r.logger.Warn("player socket upgrade failed", slog.String("error", err.Error()))
			return
		}
		defer conn.Close()

		l := &link{conn: conn, out: make(chan any, 64), done: make(chan struct{})}
		r.attach(l)
		defer r.detach(l)
		r.logger.Info("player connected", slog.String("remote", req.RemoteAddr))

		go r.writePump(l)
		defer l.close()

		conn.SetReadLimit(64 << 10)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})

		for {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					r.logger.Warn("player socket read failed", slog.String("error", err.Error()))
				}
				r.logger.Info("player disconnected", slog.String("remote", req.RemoteAddr))
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			if reply := r.apply(req.Context(), s, msg); reply != nil {
				l.enqueueReply(reply)
			}
		}
	}
}

func (l *link) enqueueReply(v any) {
	select {
	case l.out <- v:
	default:
	}
}

func (r *Remote) writePump(l *link) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case v := <-l.out:
			if err := l.write(v); err != nil {
				r.logger.Debug("player socket write failed", slog.String("error", err.Error()))
				return
			}
		case <-ticker.C:
			l.writeMu.Lock()
			err := l.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			l.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// apply runs one inbound message and returns an optional reply.
func (r *Remote) apply(ctx context.Context, s Session, msg Message) any {
	var err error
	switch msg.Type {
	case MsgLoaded:
		err = s.LoadVideo(msg.Name)
	case MsgDuration:
		err = s.DurationKnown(msg.Duration)
	case MsgTimeUpdate:
		err = s.TimeUpdate(msg.Time)
	case MsgKey:
		var cmd keymap.Command
		var ok bool
		cmd, ok, err = s.HandleKey(ctx, msg.Key)
		if err == nil && ok {
			return map[string]any{"type": "command", "data": cmd}
		}
	case MsgPing:
		return map[string]any{"type": "pong", "data": msg.Data}
	default:
		r.logger.Debug("unknown player message", slog.String("type", msg.Type))
		return nil
	}
	if err != nil {
		r.logger.Debug("player message rejected",
			slog.String("type", msg.Type),
			slog.String("error", err.Error()))
		return map[string]any{"type": "error", "data": map[string]string{"for": msg.Type, "error": err.Error()}}
	}
	return nil
}
