package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func (s *sample) Validate() error {
	if s.Name == "" {
		return os.ErrInvalid
	}
	return nil
}

func TestLoad_ExpandsEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	t.Setenv("SAMPLE_NAME", "vault")
	_ = os.WriteFile(path, []byte("name: ${SAMPLE_NAME}\ncount: 3\n"), 0o644)

	var s sample
	if err := Load(path, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "vault" || s.Count != 3 {
		t.Errorf("got %+v", s)
	}
}

func TestLoad_ValidationFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	_ = os.WriteFile(path, []byte("count: 3\n"), 0o644)

	var s sample
	if err := Load(path, &s); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestSaveSection_KeepsOtherSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	orig := "auth:\n  token: ${SECRET}\ndigest:\n  sort: path\n"
	_ = os.WriteFile(path, []byte(orig), 0o644)

	if err := SaveSection(path, "digest", map[string]string{"sort": "name"}); err != nil {
		t.Fatalf("SaveSection: %v", err)
	}
	data, _ := os.ReadFile(path)
	got := string(data)
	if !strings.Contains(got, "token: ${SECRET}") {
		t.Errorf("other section rewritten:\n%s", got)
	}
	if !strings.Contains(got, "sort: name") || strings.Contains(got, "sort: path") {
		t.Errorf("digest section not replaced:\n%s", got)
	}
}

func TestSaveSection_AppendsAndCreates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "c.yaml")
	if err := SaveSection(path, "digest", sample{Name: "x", Count: 1}); err != nil {
		t.Fatalf("SaveSection: %v", err)
	}
	var s struct {
		Digest sample `yaml:"digest"`
	}
	if err := Load(path, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Digest.Name != "x" || s.Digest.Count != 1 {
		t.Errorf("round trip = %+v", s.Digest)
	}
}

func TestSaveSection_RejectsNonMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	_ = os.WriteFile(path, []byte("- a\n- b\n"), 0o644)
	if err := SaveSection(path, "digest", 1); err == nil {
		t.Fatal("expected error for a sequence document")
	}
}
