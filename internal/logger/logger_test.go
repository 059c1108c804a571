package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   zapcore.Level
		wantOK bool
	}{
		{"debug", zapcore.DebugLevel, true},
		{" WARN ", zapcore.WarnLevel, true},
		{"error", zapcore.ErrorLevel, true},
		{"", zapcore.InfoLevel, false},
		{"loud", zapcore.InfoLevel, false},
	}
	for _, tt := range tests {
		got, ok := parseLevel(tt.in)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("parseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestChildLoggers(t *testing.T) {
	log := NewNop().Named("seeder").With(String("file", "projects.yaml"))
	log.Info("reloaded", Int("created", 2))
	if err := log.Sync(); err != nil {
		t.Errorf("Sync() error = %v", err)
	}
}
