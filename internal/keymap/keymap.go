// Package keymap maps raw key identifiers from the player to review actions.
package keymap

import (
	"fmt"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Action names a review command a key can trigger.
type Action string

// Actions.
const (
	PlayPause        Action = "play_pause"
	FrameForward     Action = "frame_forward"
	FrameBackward    Action = "frame_backward"
	BookmarkToggle   Action = "bookmark_toggle"
	BookmarkForward  Action = "bookmark_forward"
	BookmarkBackward Action = "bookmark_backward"
	LayerNext        Action = "layer_next"
	LayerPrev        Action = "layer_prev"
	LayerMoveUp      Action = "layer_move_up"
	LayerMoveDown    Action = "layer_move_down"
	SaveFrame        Action = "save_frame"
	SaveData         Action = "save_data"
	SpeedSlow        Action = "speed_slow"
	SpeedNormal      Action = "speed_normal"
	SpeedFast        Action = "speed_fast"
	SkipForward      Action = "skip_forward"
	SkipBackward     Action = "skip_backward"
	SelectLayer      Action = "select_layer"
)

// Command is a resolved key press. Layer is only set for SelectLayer.
type Command struct {
	Action Action `json:"action"`
	Layer  int    `json:"layer,omitempty"`
}

// Bindings holds one key per action. Keys are KeyboardEvent.key values,
// optionally prefixed with "Shift+", "Ctrl+" or "Alt+". The space bar is
// written as "Space".
type Bindings struct {
	PlayPause        string `yaml:"play_pause" json:"playPause"`
	FrameForward     string `yaml:"frame_forward" json:"frameForward"`
	FrameBackward    string `yaml:"frame_backward" json:"frameBackward"`
	BookmarkToggle   string `yaml:"bookmark_toggle" json:"bookmarkToggle"`
	BookmarkForward  string `yaml:"bookmark_forward" json:"bookmarkForward"`
	BookmarkBackward string `yaml:"bookmark_backward" json:"bookmarkBackward"`
	LayerNext        string `yaml:"layer_next" json:"layerNext"`
	LayerPrev        string `yaml:"layer_prev" json:"layerPrev"`
	LayerMoveUp      string `yaml:"layer_move_up" json:"layerMoveUp"`
	LayerMoveDown    string `yaml:"layer_move_down" json:"layerMoveDown"`
	SaveFrame        string `yaml:"save_frame" json:"saveFrame"`
	SaveData         string `yaml:"save_data" json:"saveData"`
	SpeedSlow        string `yaml:"speed_slow" json:"speedSlow"`
	SpeedNormal      string `yaml:"speed_normal" json:"speedNormal"`
	SpeedFast        string `yaml:"speed_fast" json:"speedFast"`
	SkipForward      string `yaml:"skip_forward" json:"skipForward"`
	SkipBackward     string `yaml:"skip_backward" json:"skipBackward"`

	// DirectLayerSelect maps the digit keys 1-9 to layers 0-8.
	DirectLayerSelect bool `yaml:"direct_layer_select" json:"directLayerSelect"`
}

// DefaultBindings returns the stock key layout.
func DefaultBindings() Bindings {
	return Bindings{
		PlayPause:         "Space",
		FrameForward:      "ArrowRight",
		FrameBackward:     "ArrowLeft",
		BookmarkToggle:    "b",
		BookmarkForward:   "]",
		BookmarkBackward:  "[",
		LayerNext:         "ArrowDown",
		LayerPrev:         "ArrowUp",
		LayerMoveUp:       "Shift+ArrowUp",
		LayerMoveDown:     "Shift+ArrowDown",
		SaveFrame:         "s",
		SaveData:          "d",
		SpeedSlow:         "z",
		SpeedNormal:       "x",
		SpeedFast:         "c",
		SkipForward:       ".",
		SkipBackward:      ",",
		DirectLayerSelect: true,
	}
}

func (b *Bindings) pairs() []struct {
	key    string
	action Action
} {
	return []struct {
		key    string
		action Action
	}{
		{b.PlayPause, PlayPause},
		{b.FrameForward, FrameForward},
		{b.FrameBackward, FrameBackward},
		{b.BookmarkToggle, BookmarkToggle},
		{b.BookmarkForward, BookmarkForward},
		{b.BookmarkBackward, BookmarkBackward},
		{b.LayerNext, LayerNext},
		{b.LayerPrev, LayerPrev},
		{b.LayerMoveUp, LayerMoveUp},
		{b.LayerMoveDown, LayerMoveDown},
		{b.SaveFrame, SaveFrame},
		{b.SaveData, SaveData},
		{b.SpeedSlow, SpeedSlow},
		{b.SpeedNormal, SpeedNormal},
		{b.SpeedFast, SpeedFast},
		{b.SkipForward, SkipForward},
		{b.SkipBackward, SkipBackward},
	}
}

// Validate checks that every action has a key and no key is bound twice.
func (b Bindings) Validate() error {
	if err := validation.ValidateStruct(&b,
		validation.Field(&b.PlayPause, validation.Required),
		validation.Field(&b.FrameForward, validation.Required),
		validation.Field(&b.FrameBackward, validation.Required),
		validation.Field(&b.BookmarkToggle, validation.Required),
		validation.Field(&b.BookmarkForward, validation.Required),
		validation.Field(&b.BookmarkBackward, validation.Required),
		validation.Field(&b.LayerNext, validation.Required),
		validation.Field(&b.LayerPrev, validation.Required),
		validation.Field(&b.LayerMoveUp, validation.Required),
		validation.Field(&b.LayerMoveDown, validation.Required),
		validation.Field(&b.SaveFrame, validation.Required),
		validation.Field(&b.SaveData, validation.Required),
		validation.Field(&b.SpeedSlow, validation.Required),
		validation.Field(&b.SpeedNormal, validation.Required),
		validation.Field(&b.SpeedFast, validation.Required),
		validation.Field(&b.SkipForward, validation.Required),
		validation.Field(&b.SkipBackward, validation.Required),
	); err != nil {
		return err
	}

	seen := make(map[string]Action)
	for _, p := range b.pairs() {
		k := Normalize(p.key)
		if prev, ok := seen[k]; ok {
			return fmt.Errorf("key %q bound to both %s and %s", p.key, prev, p.action)
		}
		if b.DirectLayerSelect && isDigit(k) {
			return fmt.Errorf("key %q for %s collides with direct layer select", p.key, p.action)
		}
		seen[k] = p.action
	}
	return nil
}

// Keymap resolves keys against a validated set of bindings.
type Keymap struct {
	table  map[string]Action
	digits bool
}

// New builds a Keymap. It returns an error if the bindings are invalid.
func New(b Bindings) (*Keymap, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	km := &Keymap{table: make(map[string]Action), digits: b.DirectLayerSelect}
	for _, p := range b.pairs() {
		km.table[Normalize(p.key)] = p.action
	}
	return km, nil
}

// Resolve returns the command bound to key.
func (k *Keymap) Resolve(key string) (Command, bool) {
	key = Normalize(key)
	if a, ok := k.table[key]; ok {
		return Command{Action: a}, true
	}
	if k.digits && isDigit(key) {
		n, _ := strconv.Atoi(key)
		return Command{Action: SelectLayer, Layer: n - 1}, true
	}
	return Command{}, false
}

// Normalize maps browser key values onto the binding notation.
func Normalize(key string) string {
	switch key {
	case " ", "Spacebar":
		return "Space"
	case "Right":
		return "ArrowRight"
	case "Left":
		return "ArrowLeft"
	case "Up":
		return "ArrowUp"
	case "Down":
		return "ArrowDown"
	}
	return key
}

func isDigit(key string) bool {
	return len(key) == 1 && key[0] >= '1' && key[0] <= '9'
}
