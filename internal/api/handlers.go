package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/komaokuri/internal/apperr"
	"github.com/starford/komaokuri/internal/layer"
	"github.com/starford/komaokuri/internal/navigate"
	"github.com/starford/komaokuri/internal/probe"
	"github.com/starford/komaokuri/internal/session"
)

// Handler holds API route handlers.
type Handler struct {
	ctrl     *session.Controller
	captures CaptureCompleter
	probe    func(path string) (probe.Info, error)
}

// NewHandler creates a new Handler.
func NewHandler(ctrl *session.Controller, captures CaptureCompleter) *Handler {
	return &Handler{ctrl: ctrl, captures: captures, probe: probe.File}
}

func layerIndex(r *http.Request) (int, error) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return 0, fmt.Errorf("%w: layer index must be an integer", apperr.ErrInvalidInput)
	}
	return i, nil
}

func (h *Handler) writeSnapshot(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// Session handles GET /api/session.
//
//	@Summary		Get the review session state
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	session.Snapshot
//	@Security		BearerAuth
//	@Router			/session [get]
func (h *Handler) Session(w http.ResponseWriter, _ *http.Request) {
	h.writeSnapshot(w)
}

// LoadVideo handles POST /api/video.
//
//	@Summary		Start reviewing a new video
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LoadVideoRequest	true	"Video"
//	@Success		200		{object}	LoadVideoResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/video [post]
func (h *Handler) LoadVideo(w http.ResponseWriter, r *http.Request) {
	var req LoadVideoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var info *probe.Info
	if req.Path != "" {
		pi, err := h.probe(req.Path)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("probe video: "+err.Error()))
			return
		}
		info = &pi
	}

	if err := h.ctrl.LoadVideo(req.Name); err != nil {
		writeError(w, "load video", err)
		return
	}
	if info != nil && info.Duration > 0 {
		if err := h.ctrl.DurationKnown(info.Duration); err != nil {
			writeError(w, "announce duration", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, LoadVideoResponse{Session: h.ctrl.Snapshot(), Probe: info})
}

// Duration handles POST /api/video/duration.
func (h *Handler) Duration(w http.ResponseWriter, r *http.Request) {
	var req DurationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.ctrl.DurationKnown(req.Duration); err != nil {
		writeError(w, "duration", err)
		return
	}
	h.writeSnapshot(w)
}

// TimeUpdate handles POST /api/video/time.
func (h *Handler) TimeUpdate(w http.ResponseWriter, r *http.Request) {
	var req TimeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.ctrl.TimeUpdate(req.Time); err != nil {
		writeError(w, "time update", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StepFrame handles POST /api/navigate/frame.
//
//	@Summary		Seek to the adjacent frame of the selected layer
//	@Tags			navigate
//	@Accept			json
//	@Produce		json
//	@Param			body	body		DirectionRequest	true	"forward or backward"
//	@Success		200		{object}	session.Move
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/navigate/frame [post]
func (h *Handler) StepFrame(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "step frame", h.ctrl.StepFrame)
}

// StepBookmark handles POST /api/navigate/bookmark.
func (h *Handler) StepBookmark(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, "step bookmark", h.ctrl.StepBookmark)
}

func (h *Handler) step(w http.ResponseWriter, r *http.Request, op string, fn func(navigate.Direction) (session.Move, error)) {
	var req DirectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	dir, err := navigate.ParseDirection(req.Direction)
	if err != nil {
		writeError(w, op, err)
		return
	}
	m, err := fn(dir)
	if err != nil {
		writeError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// SeekClick handles POST /api/navigate/click.
func (h *Handler) SeekClick(w http.ResponseWriter, r *http.Request) {
	var req ClickRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.ctrl.SeekClick(req.Layer, req.Fraction)
	if err != nil {
		writeError(w, "seek click", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Skip handles POST /api/navigate/skip.
func (h *Handler) Skip(w http.ResponseWriter, r *http.Request) {
	var req SkipRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.ctrl.Skip(req.Seconds)
	if err != nil {
		writeError(w, "skip", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// ToggleBookmark handles POST /api/bookmarks/toggle.
//
//	@Summary		Toggle the bookmark on the current frame of the selected layer
//	@Tags			bookmarks
//	@Produce		json
//	@Success		200	{object}	session.BookmarkResult
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/bookmarks/toggle [post]
func (h *Handler) ToggleBookmark(w http.ResponseWriter, _ *http.Request) {
	res, err := h.ctrl.ToggleBookmark()
	if err != nil {
		writeError(w, "toggle bookmark", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// AddLayer handles POST /api/layers.
func (h *Handler) AddLayer(w http.ResponseWriter, _ *http.Request) {
	idx, err := h.ctrl.AddLayer()
	if err != nil {
		writeError(w, "add layer", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"index": idx})
}

// RemoveLayer handles DELETE /api/layers/{index}.
func (h *Handler) RemoveLayer(w http.ResponseWriter, r *http.Request) {
	i, err := layerIndex(r)
	if err == nil {
		err = h.ctrl.RemoveLayer(i)
	}
	if err != nil {
		writeError(w, "remove layer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveLayer handles POST /api/layers/{index}/move.
func (h *Handler) MoveLayer(w http.ResponseWriter, r *http.Request) {
	i, err := layerIndex(r)
	if err != nil {
		writeError(w, "move layer", err)
		return
	}
	var req DirectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	dir, err := layer.ParseDirection(req.Direction)
	if err == nil {
		err = h.ctrl.MoveLayer(i, dir)
	}
	if err != nil {
		writeError(w, "move layer", err)
		return
	}
	h.writeSnapshot(w)
}

// SelectLayer handles POST /api/layers/{index}/select.
func (h *Handler) SelectLayer(w http.ResponseWriter, r *http.Request) {
	i, err := layerIndex(r)
	if err == nil {
		err = h.ctrl.SelectLayer(i)
	}
	if err != nil {
		writeError(w, "select layer", err)
		return
	}
	h.writeSnapshot(w)
}

// SelectRelative handles POST /api/layers/relative.
func (h *Handler) SelectRelative(w http.ResponseWriter, r *http.Request) {
	var req DeltaRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.ctrl.SelectRelative(req.Delta); err != nil {
		writeError(w, "select relative", err)
		return
	}
	h.writeSnapshot(w)
}

// SetFrameRate handles PUT /api/layers/{index}/rate.
//
//	@Summary		Change a layer's frame rate
//	@Tags			layers
//	@Accept			json
//	@Produce		json
//	@Param			index	path		int					true	"Layer index"
//	@Param			body	body		FrameRateRequest	true	"New rate"
//	@Success		200		{object}	session.Snapshot
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/layers/{index}/rate [put]
func (h *Handler) SetFrameRate(w http.ResponseWriter, r *http.Request) {
	i, err := layerIndex(r)
	if err != nil {
		writeError(w, "set frame rate", err)
		return
	}
	var req FrameRateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.ctrl.SetFrameRate(i, req.FrameRate); err != nil {
		writeError(w, "set frame rate", err)
		return
	}
	h.writeSnapshot(w)
}

// Timeline handles GET /api/layers/{index}/timeline.
func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	i, err := layerIndex(r)
	if err != nil {
		writeError(w, "timeline", err)
		return
	}
	tl, err := h.ctrl.Timeline(i)
	if err != nil {
		writeError(w, "timeline", err)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

// FrameTimes handles GET /api/layers/{index}/frames.
func (h *Handler) FrameTimes(w http.ResponseWriter, r *http.Request) {
	i, err := layerIndex(r)
	if err != nil {
		writeError(w, "frame times", err)
		return
	}
	q := r.URL.Query()
	from, _ := strconv.Atoi(q.Get("from"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	times, err := h.ctrl.FrameTimes(i, from, limit)
	if err != nil {
		writeError(w, "frame times", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"layer": i,
		"from":  from,
		"times": times,
	})
}

// SetStartOffset handles PUT /api/offset.
func (h *Handler) SetStartOffset(w http.ResponseWriter, r *http.Request) {
	var req OffsetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.ctrl.SetStartOffset(req.StartOffset); err != nil {
		writeError(w, "set start offset", err)
		return
	}
	h.writeSnapshot(w)
}

// TogglePlay handles POST /api/playback/toggle.
func (h *Handler) TogglePlay(w http.ResponseWriter, _ *http.Request) {
	if err := h.ctrl.TogglePlay(); err != nil {
		writeError(w, "toggle play", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetSpeed handles PUT /api/playback/speed.
func (h *Handler) SetSpeed(w http.ResponseWriter, r *http.Request) {
	var req SpeedRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.ctrl.SetSpeed(req.Rate); err != nil {
		writeError(w, "set speed", err)
		return
	}
	h.writeSnapshot(w)
}

// SetOverlay handles PUT /api/overlay.
func (h *Handler) SetOverlay(w http.ResponseWriter, r *http.Request) {
	var req OverlayRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.ctrl.SetOverlay(req.Enabled); err != nil {
		writeError(w, "set overlay", err)
		return
	}
	h.writeSnapshot(w)
}

// Key handles POST /api/keys.
func (h *Handler) Key(w http.ResponseWriter, r *http.Request) {
	var req KeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cmd, ok, err := h.ctrl.HandleKey(r.Context(), req.Key)
	if err != nil {
		writeError(w, "handle key", err)
		return
	}
	if !ok {
		slog.Debug("unbound key", slog.String("key", req.Key))
		writeJSON(w, http.StatusOK, map[string]any{"handled": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"handled": true, "command": cmd})
}
