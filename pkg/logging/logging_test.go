package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"info", slog.LevelInfo, false},
		{" DEBUG ", slog.LevelDebug, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"trace", 0, true},
	}
	for _, tt := range tests {
		got, err := parseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVerbosityLevel(t *testing.T) {
	tests := []struct {
		v    Verbosity
		want string
	}{
		{Quiet, LevelWarn},
		{Normal, LevelInfo},
		{Verbose, LevelDebug},
	}
	for _, tt := range tests {
		if got := tt.v.Level(); got != tt.want {
			t.Errorf("%s.Level() = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestConfigure_FiltersBelowLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger, err := Configure(&buf, Quiet.Level())
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	slog.Warn("shown", "step", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info record written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "step=2") {
		t.Errorf("warn record missing: %q", out)
	}
}

func TestConfigure_InvalidLevel(t *testing.T) {
	if _, err := Configure(&bytes.Buffer{}, "loud"); err == nil {
		t.Fatal("expected error for invalid level")
	}
}
