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

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("CASEFOLIO_TEST_TOKEN", "s3cret")
	p := writeFile(t, "token: ${CASEFOLIO_TEST_TOKEN}\nport: ${CASEFOLIO_TEST_PORT:-9090}\n")

	cfg := sample{Name: "default"}
	if err := Load(p, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Token != "s3cret" || cfg.Port != 9090 || cfg.Name != "default" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	p := writeFile(t, "port: 1\nprot: 2\n")
	err := Load(p, &sample{})
	if err == nil || !strings.Contains(err.Error(), "prot") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestLoad_RunsValidator(t *testing.T) {
	p := writeFile(t, "port: 0\n")
	err := Load(p, &sample{})
	if err == nil || !strings.Contains(err.Error(), "config validation failed") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	p := writeFile(t, "")
	cfg := sample{Port: 80}
	if err := Load(p, &cfg); err != nil {
		t.Fatalf("empty file keeps defaults: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &sample{}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadOptional(t *testing.T) {
	cfg := sample{Port: 80}
	loaded, err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &cfg)
	if err != nil || loaded {
		t.Fatalf("missing file: loaded=%v err=%v", loaded, err)
	}

	bad := sample{}
	if _, err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &bad); err == nil {
		t.Fatal("defaults are still validated")
	}

	p := writeFile(t, "port: 81\n")
	loaded, err = LoadOptional(p, &cfg)
	if err != nil || !loaded || cfg.Port != 81 {
		t.Fatalf("present file: loaded=%v err=%v cfg=%+v", loaded, err, cfg)
	}
}
