package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func capture(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	w.Close()
	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestLines_ContainTagAndMessage(t *testing.T) {
	out := capture(t, func() {
		Info("Catalog", "loading")
		Success("Catalog", "ready")
		Warn("ESI", "slow response")
		Error("DB", "open failed")
	})
	for _, want := range []string{"Catalog", "loading", "ready", "ESI", "slow response", "DB", "open failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBanner_VersionFallback(t *testing.T) {
	out := capture(t, func() {
		Banner("v1.2.0")
	})
	if !strings.Contains(out, "v1.2.0") {
		t.Errorf("banner missing version:\n%s", out)
	}
	out = capture(t, func() {
		Banner("")
	})
	if !strings.Contains(out, "dev") {
		t.Errorf("empty version should render as dev:\n%s", out)
	}
}

func TestSectionStatsServer_NoPanic(t *testing.T) {
	out := capture(t, func() {
		Section("Catalog Statistics")
		Stats("Systems", 8437)
		Stats("Wormholes", 2604)
		Server("127.0.0.1:13270")
	})
	if !strings.Contains(out, "8437") || !strings.Contains(out, "127.0.0.1:13270") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
