package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	_ = w.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("read: %v", err)
	}
	return buf.String()
}

func TestInfoWritesJSONWithFields(t *testing.T) {
	Init("info", "json")
	out := captureStdout(t, func() {
		Info("reconcile.tick", map[string]any{"jobs": 3, "err": errors.New("boom")})
	})

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &payload); err != nil {
		t.Fatalf("decode: %v (%q)", err, out)
	}
	if payload["msg"] != "reconcile.tick" {
		t.Fatalf("unexpected msg: %v", payload["msg"])
	}
	if payload["level"] != "info" {
		t.Fatalf("unexpected level: %v", payload["level"])
	}
	if payload["jobs"] != float64(3) {
		t.Fatalf("unexpected jobs: %v", payload["jobs"])
	}
	if payload["err"] != "boom" {
		t.Fatalf("unexpected err: %v", payload["err"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("missing ts")
	}
}

func TestDebugSuppressedAtInfoLevel(t *testing.T) {
	Init("info", "json")
	out := captureStdout(t, func() {
		Debug("hidden", nil)
	})
	if strings.TrimSpace(out) != "" {
		t.Fatalf("expected no output, got %q", out)
	}
}
