// Package settings defines the exportable review settings document and its
// on-disk store.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/komaokuri/internal/apperr"
	"github.com/starford/komaokuri/internal/keymap"
)

// Document is the portable state of a review session. Frame times are never
// stored: they are recomputed from the frame rate, duration and start offset.
type Document struct {
	Layers       []Layer         `json:"layers"`
	StartOffset  float64         `json:"startOffset"`
	ColorPalette ColorPalette    `json:"colorPalette"`
	Shortcuts    keymap.Bindings `json:"shortcuts"`
}

// Layer is the persisted part of a frame-rate layer.
type Layer struct {
	FrameRate        float64 `json:"frameRate"`
	BookmarkedFrames []int   `json:"bookmarkedFrames"`
}

// ColorPalette holds the timeline and overlay colours as hex strings.
type ColorPalette struct {
	Tick       string `yaml:"tick" json:"tick"`
	Bookmark   string `yaml:"bookmark" json:"bookmark"`
	Indicator  string `yaml:"indicator" json:"indicator"`
	Background string `yaml:"background" json:"background"`
	Overlay    string `yaml:"overlay" json:"overlay"`
}

// DefaultPalette returns the stock timeline colours.
func DefaultPalette() ColorPalette {
	return ColorPalette{
		Tick:       "#000000",
		Bookmark:   "#008000",
		Indicator:  "#ff0000",
		Background: "#dddddd",
		Overlay:    "#ff0000",
	}
}

// Validate validates the palette.
func (p ColorPalette) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Tick, validation.Required, is.HexColor),
		validation.Field(&p.Bookmark, validation.Required, is.HexColor),
		validation.Field(&p.Indicator, validation.Required, is.HexColor),
		validation.Field(&p.Background, validation.Required, is.HexColor),
		validation.Field(&p.Overlay, validation.Required, is.HexColor),
	)
}

// Validate validates one layer entry.
func (l Layer) Validate() error {
	if err := validation.ValidateStruct(&l,
		validation.Field(&l.FrameRate, validation.Required, validation.Min(0.0).Exclusive(), validation.Max(1000.0)),
		validation.Field(&l.BookmarkedFrames, validation.Each(validation.Min(0))),
	); err != nil {
		return err
	}
	if !slices.IsSorted(l.BookmarkedFrames) {
		return errors.New("bookmarkedFrames: must be in ascending order")
	}
	if len(slices.Compact(slices.Clone(l.BookmarkedFrames))) != len(l.BookmarkedFrames) {
		return errors.New("bookmarkedFrames: must not contain duplicates")
	}
	return nil
}

// Validate validates the whole document.
func (d Document) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Layers, validation.Required),
		validation.Field(&d.StartOffset, validation.Min(0.0)),
		validation.Field(&d.ColorPalette),
		validation.Field(&d.Shortcuts),
	)
}

// rawDocument distinguishes missing fields from zero values while decoding.
type rawDocument struct {
	Layers []struct {
		FrameRate        *float64 `json:"frameRate"`
		BookmarkedFrames *[]int   `json:"bookmarkedFrames"`
	} `json:"layers"`
	StartOffset  *float64        `json:"startOffset"`
	ColorPalette json.RawMessage `json:"colorPalette"`
	Shortcuts    json.RawMessage `json:"shortcuts"`
}

// Decode reads and validates a document. Missing layers or startOffset, and
// layers without a frameRate, are rejected. Palette and shortcut entries that
// are left out keep their defaults. Every failure wraps
// apperr.ErrMalformedSettings.
func Decode(r io.Reader) (Document, error) {
	var raw rawDocument
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return Document{}, fmt.Errorf("%w: %v", apperr.ErrMalformedSettings, err)
	}

	if raw.Layers == nil {
		return Document{}, fmt.Errorf("%w: layers is required", apperr.ErrMalformedSettings)
	}
	if raw.StartOffset == nil {
		return Document{}, fmt.Errorf("%w: startOffset is required", apperr.ErrMalformedSettings)
	}

	doc := Document{
		Layers:       make([]Layer, 0, len(raw.Layers)),
		StartOffset:  *raw.StartOffset,
		ColorPalette: DefaultPalette(),
		Shortcuts:    keymap.DefaultBindings(),
	}
	for i, l := range raw.Layers {
		if l.FrameRate == nil {
			return Document{}, fmt.Errorf("%w: layers[%d].frameRate is required", apperr.ErrMalformedSettings, i)
		}
		frames := []int{}
		if l.BookmarkedFrames != nil {
			frames = *l.BookmarkedFrames
		}
		doc.Layers = append(doc.Layers, Layer{FrameRate: *l.FrameRate, BookmarkedFrames: frames})
	}
	if err := decodeOnto(raw.ColorPalette, &doc.ColorPalette); err != nil {
		return Document{}, fmt.Errorf("%w: colorPalette: %v", apperr.ErrMalformedSettings, err)
	}
	if err := decodeOnto(raw.Shortcuts, &doc.Shortcuts); err != nil {
		return Document{}, fmt.Errorf("%w: shortcuts: %v", apperr.ErrMalformedSettings, err)
	}

	if err := doc.Validate(); err != nil {
		return Document{}, fmt.Errorf("%w: %v", apperr.ErrMalformedSettings, err)
	}
	return doc, nil
}

// decodeOnto overlays a JSON object on the defaults already in v.
func decodeOnto(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Encode writes the document as indented JSON.
func Encode(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
