package terminology

import (
	"os"
	"path/filepath"
	"testing"
)

func writeValueSets(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "valuesets.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write value sets: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeValueSets(t, `{
		"http://example.org/vs/anemia": [
			{"system": "SNOMED-CT", "code": "271737000", "display": "Anemia"},
			{"system": "SNOMED-CT", "code": "234347009", "display": "Iron deficiency anemia"}
		],
		"http://example.org/vs/reasons": [
			{"system": "SNOMED-CT", "code": "44054006", "display": "Diabetes"}
		]
	}`)

	r := NewRegistry()
	if err := r.LoadFile(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	r.Seal()

	if got := len(r.URIs()); got != 2 {
		t.Fatalf("expected 2 value sets, got %d", got)
	}
	c, err := r.Resolve("http://example.org/vs/reasons", 42)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if c.Code != "44054006" {
		t.Errorf("expected the single expansion code, got %+v", c)
	}
}

func TestLoadFile_EmptyExpansion(t *testing.T) {
	path := writeValueSets(t, `{"http://example.org/vs/empty": []}`)

	r := NewRegistry()
	if err := r.LoadFile(path); err == nil {
		t.Fatal("expected error for an empty expansion")
	}
}

func TestLoadFile_BadJSON(t *testing.T) {
	path := writeValueSets(t, `{"http://example.org/vs/x": [`)

	r := NewRegistry()
	if err := r.LoadFile(path); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	r := NewRegistry()
	if err := r.LoadFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for a missing file")
	}
}
