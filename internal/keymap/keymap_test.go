package keymap

import (
	"strings"
	"testing"
)

func TestDefaultBindings_Valid(t *testing.T) {
	b := DefaultBindings()
	if err := b.Validate(); err != nil {
		t.Fatalf("default bindings invalid: %v", err)
	}
}

func TestResolve(t *testing.T) {
	km, err := New(DefaultBindings())
	if err != nil {
		t.Fatal(err)
	}
	cases := map[string]Command{
		" ":             {Action: PlayPause},
		"Space":         {Action: PlayPause},
		"ArrowRight":    {Action: FrameForward},
		"Left":          {Action: FrameBackward},
		"b":             {Action: BookmarkToggle},
		"]":             {Action: BookmarkForward},
		"Shift+ArrowUp": {Action: LayerMoveUp},
		"3":             {Action: SelectLayer, Layer: 2},
	}
	for key, want := range cases {
		got, ok := km.Resolve(key)
		if !ok || got != want {
			t.Errorf("Resolve(%q) = %+v,%v want %+v", key, got, ok, want)
		}
	}
	if _, ok := km.Resolve("q"); ok {
		t.Error("unbound key resolved")
	}
	if _, ok := km.Resolve("0"); ok {
		t.Error("0 should not select a layer")
	}
}

func TestResolve_DirectSelectDisabled(t *testing.T) {
	b := DefaultBindings()
	b.DirectLayerSelect = false
	b.SpeedSlow = "1"
	km, err := New(b)
	if err != nil {
		t.Fatal(err)
	}
	if cmd, _ := km.Resolve("1"); cmd.Action != SpeedSlow {
		t.Errorf("1 = %+v, want speed_slow", cmd)
	}
	if _, ok := km.Resolve("2"); ok {
		t.Error("digits should not select layers when disabled")
	}
}

func TestValidate_Duplicate(t *testing.T) {
	b := DefaultBindings()
	b.SaveData = "s"
	err := b.Validate()
	if err == nil || !strings.Contains(err.Error(), "bound to both") {
		t.Errorf("err = %v, want duplicate error", err)
	}
}

func TestValidate_Empty(t *testing.T) {
	b := DefaultBindings()
	b.FrameForward = ""
	if err := b.Validate(); err == nil {
		t.Error("empty binding should fail")
	}
}

func TestValidate_DigitCollision(t *testing.T) {
	b := DefaultBindings()
	b.SaveFrame = "4"
	if _, err := New(b); err == nil {
		t.Error("digit binding should collide with direct layer select")
	}
}
