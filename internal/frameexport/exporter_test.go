package frameexport

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/komaokuri/internal/apperr"
	"github.com/starford/komaokuri/internal/session"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return &buf
}

var blue = color.RGBA{0, 0, 255, 255}

func TestRender_Downscale(t *testing.T) {
	out := Render(solid(800, 400, blue), Options{MaxWidth: 400})
	if b := out.Bounds(); b.Dx() != 400 || b.Dy() != 200 {
		t.Fatalf("size = %dx%d, want 400x200", b.Dx(), b.Dy())
	}
	r, g, bl, _ := out.At(200, 100).RGBA()
	if r>>8 != 0 || g>>8 != 0 || bl>>8 != 255 {
		t.Errorf("centre pixel = %d,%d,%d", r>>8, g>>8, bl>>8)
	}
}

func TestRender_SmallerThanMaxWidthUnchanged(t *testing.T) {
	src := solid(100, 50, blue)
	if out := Render(src, Options{MaxWidth: 400}); out != image.Image(src) {
		t.Error("image below max width should be returned as is")
	}
}

func TestRender_OverlayBorder(t *testing.T) {
	out := Render(solid(400, 200, blue), Options{Overlay: true, OverlayColor: "#ff0000", Label: "1.500s"})
	r, _, b, _ := out.At(1, 100).RGBA()
	if r>>8 < 200 || b>>8 > 50 {
		t.Errorf("border pixel = r%d b%d, want overlay red", r>>8, b>>8)
	}
	r, _, b, _ = out.At(200, 150).RGBA()
	if r>>8 != 0 || b>>8 != 255 {
		t.Errorf("interior pixel = r%d b%d, want source blue", r>>8, b>>8)
	}
}

func TestWriteFrame(t *testing.T) {
	dir := t.TempDir()
	e, err := New(filepath.Join(dir, "frames"), 320, nil)
	if err != nil {
		t.Fatal(err)
	}

	req := session.FrameRequest{Time: 1.5, FileName: session.FrameFileName(1.5)}
	path, err := e.WriteFrame(req, encodePNG(t, solid(640, 360, blue)))
	if err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if filepath.Base(path) != "frame_1.500.png" {
		t.Errorf("path = %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 180 {
		t.Errorf("written size = %dx%d", b.Dx(), b.Dy())
	}
}

func TestWriteFrame_StaysInDir(t *testing.T) {
	dir := t.TempDir()
	e, _ := New(dir, 0, nil)
	req := session.FrameRequest{Time: 2, FileName: "../../escape.png"}
	path, err := e.WriteFrame(req, encodePNG(t, solid(4, 4, blue)))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("frame written outside export dir: %s", path)
	}
}

func TestWriteFrame_NotAnImage(t *testing.T) {
	e, _ := New(t.TempDir(), 0, nil)
	_, err := e.WriteFrame(session.FrameRequest{Time: 1}, strings.NewReader("not an image"))
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
