package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/komaokuri/internal/settings"
)

const maxUploadBytes = 64 << 20 // 64 MB

// CaptureCompleter finishes a frame capture with the uploaded image.
type CaptureCompleter interface {
	CompleteCapture(id string, img io.Reader) (string, error)
}

// SaveFrame handles POST /api/frames. It asks the player to upload the
// displayed frame; the capture is completed by UploadFrame.
func (h *Handler) SaveFrame(w http.ResponseWriter, r *http.Request) {
	req, err := h.ctrl.SaveFrame(r.Context())
	if err != nil {
		writeError(w, "save frame", err)
		return
	}
	writeJSON(w, http.StatusAccepted, req)
}

// UploadFrame handles POST /api/frames/{id} (multipart/form-data, field "frame").
//
//	@Summary		Upload the image for a pending frame capture
//	@Tags			frames
//	@Accept			mpfd
//	@Produce		json
//	@Param			id		path		string	true	"Capture ID"
//	@Param			frame	formData	file	true	"PNG or JPEG image"
//	@Success		201		{object}	FrameUploadResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/frames/{id} [post]
func (h *Handler) UploadFrame(w http.ResponseWriter, r *http.Request) {
	if h.captures == nil {
		writeJSON(w, http.StatusNotFound, errorBody("frame export is disabled"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, _, err := r.FormFile("frame")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'frame' field in multipart form"))
		return
	}
	defer file.Close()

	path, err := h.captures.CompleteCapture(chi.URLParam(r, "id"), file)
	if err != nil {
		writeError(w, "upload frame", err)
		return
	}
	writeJSON(w, http.StatusCreated, FrameUploadResponse{Path: path})
}

// ExportSettings handles GET /api/settings.
func (h *Handler) ExportSettings(w http.ResponseWriter, r *http.Request) {
	doc := h.ctrl.Export()
	if r.URL.Query().Get("download") != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="review-settings.json"`)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := settings.Encode(w, doc); err != nil {
		writeError(w, "export settings", err)
	}
}

// ImportSettings handles PUT /api/settings.
//
//	@Summary		Import a settings document
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	session.Snapshot
//	@Failure		400	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/settings [put]
func (h *Handler) ImportSettings(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	doc, err := settings.Decode(r.Body)
	if err == nil {
		err = h.ctrl.Import(doc)
	}
	if err != nil {
		writeError(w, "import settings", err)
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.Snapshot())
}

// SaveSettings handles POST /api/settings/save. The document goes to the
// configured settings file.
func (h *Handler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	doc, err := h.ctrl.SaveData(r.Context())
	if err != nil {
		writeError(w, "save settings", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
