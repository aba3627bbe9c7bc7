// Package frameexport writes captured video frames to disk as PNG files,
// optionally downscaled and stamped with a position overlay.
package frameexport

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/starford/komaokuri/internal/apperr"
	"github.com/starford/komaokuri/internal/session"
)

// MaxUploadBytes caps the size of a captured frame.
const MaxUploadBytes = 64 << 20

// Exporter renders frames into a directory.
type Exporter struct {
	dir      string
	maxWidth int
	logger   *slog.Logger
}

// New creates an Exporter writing into dir. maxWidth <= 0 keeps the captured
// size.
func New(dir string, maxWidth int, logger *slog.Logger) (*Exporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{dir: dir, maxWidth: maxWidth, logger: logger}, nil
}

// Dir returns the export directory.
func (e *Exporter) Dir() string { return e.dir }

// WriteFrame decodes the captured image in r, renders it for req and writes
// it to the export directory. It returns the written path.
func (e *Exporter) WriteFrame(req session.FrameRequest, r io.Reader) (string, error) {
	src, format, err := image.Decode(io.LimitReader(r, MaxUploadBytes))
	if err != nil {
		return "", fmt.Errorf("%w: decode frame: %v", apperr.ErrInvalidInput, err)
	}

	img := Render(src, Options{
		MaxWidth:     e.maxWidth,
		Overlay:      req.Overlay,
		OverlayColor: req.OverlayColor,
		Label:        req.Label,
	})

	name := filepath.Base(req.FileName)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = session.FrameFileName(req.Time)
	}
	path := filepath.Join(e.dir, name)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode PNG: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write frame: %w", err)
	}

	b := img.Bounds()
	e.logger.Info("frame exported",
		slog.String("session_id", req.SessionID),
		slog.String("path", path),
		slog.String("source_format", format),
		slog.Int("width", b.Dx()),
		slog.Int("height", b.Dy()),
		slog.Bool("overlay", req.Overlay))
	return path, nil
}

// Options control Render.
type Options struct {
	MaxWidth     int
	Overlay      bool
	OverlayColor string
	Label        string
}

// Render downsizes src to MaxWidth (keeping the aspect ratio) and, when
// Overlay is set, draws a border and the label in OverlayColor.
func Render(src image.Image, opts Options) image.Image {
	img := src
	if b := src.Bounds(); opts.MaxWidth > 0 && b.Dx() > opts.MaxWidth {
		h := max(1, b.Dy()*opts.MaxWidth/b.Dx())
		img = resize(src, opts.MaxWidth, h)
	}
	if !opts.Overlay {
		return img
	}

	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.DrawImage(img, -b.Min.X, -b.Min.Y)

	color := opts.OverlayColor
	if color == "" {
		color = "#ff0000"
	}
	border := max(2, w/200)
	dc.SetHexColor(color)
	dc.SetLineWidth(border)
	dc.DrawRectangle(border/2, border/2, w-border, h-border)
	dc.Stroke()

	if opts.Label != "" {
		tw, th := dc.MeasureString(opts.Label)
		pad := 4.0
		dc.SetRGBA(0, 0, 0, 0.6)
		dc.DrawRectangle(border, border, tw+2*pad, th+2*pad)
		dc.Fill()
		dc.SetHexColor(color)
		dc.DrawStringAnchored(opts.Label, border+pad, border+pad+th/2, 0, 0.5)
	}
	return dc.Image()
}

func resize(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}
