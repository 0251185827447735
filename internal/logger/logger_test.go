package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		opts      Options
		wantDebug bool
		wantErr   bool
	}{
		{name: "json default", opts: Options{Service: "study-planner-api"}},
		{name: "json debug", opts: Options{Format: "JSON", Debug: true}, wantDebug: true},
		{name: "console", opts: Options{Format: FormatConsole}},
		{name: "console debug", opts: Options{Format: FormatConsole, Debug: true}, wantDebug: true},
		{name: "unknown format", opts: Options{Format: "xml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			log, err := New(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := log.Core().Enabled(zapcore.DebugLevel); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if !log.Core().Enabled(zapcore.InfoLevel) {
				t.Error("info should always be enabled")
			}
		})
	}
}

func TestSync_NilLogger(t *testing.T) {
	t.Parallel()

	if err := Sync(nil); err != nil {
		t.Errorf("Sync(nil) error = %v", err)
	}
}
