package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/komaokuri/internal/session"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// captures completes frame uploads; nil disables POST /frames/{id}.
func NewRouter(ctrl *session.Controller, captures CaptureCompleter, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(ctrl, captures)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Session lifecycle.
	r.Get("/session", h.Session)
	r.Post("/video", h.LoadVideo)
	r.Post("/video/duration", h.Duration)
	r.Post("/video/time", h.TimeUpdate)

	// Navigation.
	r.Post("/navigate/frame", h.StepFrame)
	r.Post("/navigate/bookmark", h.StepBookmark)
	r.Post("/navigate/click", h.SeekClick)
	r.Post("/navigate/skip", h.Skip)
	r.Post("/bookmarks/toggle", h.ToggleBookmark)

	// Layers.
	r.Post("/layers", h.AddLayer)
	r.Post("/layers/relative", h.SelectRelative)
	r.Route("/layers/{index}", func(r chi.Router) {
		r.Delete("/", h.RemoveLayer)
		r.Post("/move", h.MoveLayer)
		r.Post("/select", h.SelectLayer)
		r.Put("/rate", h.SetFrameRate)
		r.Get("/timeline", h.Timeline)
		r.Get("/frames", h.FrameTimes)
	})

	r.Put("/offset", h.SetStartOffset)

	// Playback.
	r.Post("/playback/toggle", h.TogglePlay)
	r.Put("/playback/speed", h.SetSpeed)
	r.Put("/overlay", h.SetOverlay)
	r.Post("/keys", h.Key)

	// Frame export.
	r.Post("/frames", h.SaveFrame)
	r.Post("/frames/{id}", h.UploadFrame)

	// Settings document.
	r.Get("/settings", h.ExportSettings)
	r.Put("/settings", h.ImportSettings)
	r.Post("/settings/save", h.SaveSettings)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
