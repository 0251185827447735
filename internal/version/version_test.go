package version

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRender_JSON(t *testing.T) {
	out := Render(false, "json")

	var info map[string]any
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("Render(json) is not JSON: %v (%q)", err, out)
	}
	if !strings.Contains(out, Version) || !strings.Contains(out, Commit) {
		t.Errorf("Render(json) = %q, missing build metadata", out)
	}
}

func TestRender_Short(t *testing.T) {
	if out := strings.TrimSpace(Render(true, "json")); !strings.Contains(out, Version) {
		t.Errorf("Render(short) = %q, want version %q", out, Version)
	}
}
