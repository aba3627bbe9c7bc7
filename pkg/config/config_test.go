package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Token string `yaml:"token"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("SAMPLE_TOKEN", "abc")
	path := writeFile(t, "port: 9000\ntoken: ${SAMPLE_TOKEN}\n")

	cfg := sample{Name: "default", Port: 1}
	if err := Load(path, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "default" || cfg.Port != 9000 || cfg.Token != "abc" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "port: 9000\nprot: 1\n")
	cfg := sample{}
	if err := Load(path, &cfg); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestLoad_EmptyFileValidatesDefaults(t *testing.T) {
	path := writeFile(t, "")
	cfg := sample{Port: 80}
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("empty file: %v", err)
	}
}

func TestLoad_Validation(t *testing.T) {
	path := writeFile(t, "port: 0\n")
	cfg := sample{Port: 80}
	err := Load(path, &cfg)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadOptional(t *testing.T) {
	cfg := sample{Port: 80}
	loaded, err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"), &cfg)
	if err != nil || loaded {
		t.Errorf("missing file: loaded=%v err=%v", loaded, err)
	}

	bad := sample{}
	if _, err := LoadOptional(filepath.Join(t.TempDir(), "missing.yaml"), &bad); err == nil {
		t.Error("invalid defaults should fail validation")
	}

	path := writeFile(t, "port: 81\n")
	loaded, err = LoadOptional(path, &cfg)
	if err != nil || !loaded || cfg.Port != 81 {
		t.Errorf("existing file: loaded=%v err=%v cfg=%+v", loaded, err, cfg)
	}
}
