package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintFrames(t *testing.T) {
	var buf bytes.Buffer
	if err := printFrames(&buf, 24, 1, 0, 22, 0); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %q", lines)
	}
	if f := strings.Fields(lines[1]); f[0] != "22" || f[1] != "0.916667" || f[2] != "23.000" {
		t.Errorf("first row = %q", lines[1])
	}
	if f := strings.Fields(lines[3]); f[0] != "24" || f[1] != "1.000000" || f[2] != "25.000" {
		t.Errorf("last row = %q", lines[3])
	}
}

func TestPrintFrames_Limit(t *testing.T) {
	var buf bytes.Buffer
	if err := printFrames(&buf, 30, 10, 0.001, 0, 2); err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(buf.String(), "\n"); n != 3 {
		t.Errorf("got %d lines, want header and two frames:\n%s", n, buf.String())
	}
}

func TestPrintFrames_Invalid(t *testing.T) {
	var buf bytes.Buffer
	if err := printFrames(&buf, 0, 1, 0, 0, 0); err == nil {
		t.Error("zero rate should fail")
	}
	if err := printFrames(&buf, 24, 1, 0, 100, 0); err == nil {
		t.Error("from past the end should fail")
	}
}

func TestCommandTree(t *testing.T) {
	cmd := newCommand()
	want := map[string]bool{"serve": false, "mcp": false, "frames": false, "probe": false}
	for _, c := range cmd.Commands {
		if _, ok := want[c.Name]; ok {
			want[c.Name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}
