package health

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func up(context.Context) ComponentHealth {
	return ComponentHealth{Status: StatusUp}
}

func down(context.Context) ComponentHealth {
	return ComponentHealth{Status: StatusDown, Message: "gone"}
}

func TestChecker_Aggregate(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]Check
		want   Status
	}{
		{"none", nil, StatusUp},
		{"all up", map[string]Check{"a": up, "b": up}, StatusUp},
		{"degraded", map[string]Check{"a": up, "b": OptionalCheck(down)}, StatusDegraded},
		{"down wins", map[string]Check{"a": down, "b": OptionalCheck(down), "c": up}, StatusDown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChecker()
			for name, check := range tt.checks {
				c.Register(name, check)
			}
			report := c.Run(context.Background())
			if report.Status != tt.want {
				t.Errorf("Status = %s, want %s", report.Status, tt.want)
			}
			if len(report.Components) != len(tt.checks) {
				t.Errorf("got %d components, want %d", len(report.Components), len(tt.checks))
			}
		})
	}
}

func TestPingCheck(t *testing.T) {
	ok := PingCheck(func(context.Context) error { return nil })(context.Background())
	if ok.Status != StatusUp {
		t.Errorf("Status = %s, want up", ok.Status)
	}
	bad := PingCheck(func(context.Context) error { return errors.New("refused") })(context.Background())
	if bad.Status != StatusDown || bad.Message != "refused" {
		t.Errorf("got %+v", bad)
	}
}

func TestWritableDirCheck(t *testing.T) {
	dir := t.TempDir()
	got := WritableDirCheck(filepath.Join(dir, "sub", "repository.ser"))(context.Background())
	if got.Status != StatusUp {
		t.Fatalf("Status = %s (%s), want up", got.Status, got.Message)
	}
	entries, err := os.ReadDir(filepath.Join(dir, "sub"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("check file left behind: %v", entries)
	}

	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	got = WritableDirCheck(filepath.Join(blocker, "repository.ser"))(context.Background())
	if got.Status != StatusDown {
		t.Errorf("Status = %s, want down under a regular file", got.Status)
	}
}

func TestReport_WriteJSON(t *testing.T) {
	c := NewChecker()
	c.Register("snapshot", up)
	var buf bytes.Buffer
	if err := c.Run(context.Background()).WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}
	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if decoded.Components["snapshot"].Status != StatusUp {
		t.Errorf("decoded = %+v", decoded)
	}
}
