package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/tilesmith/pkg/observability"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{
			name:    "info at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Info("test") },
			wantLog: true,
		},
		{
			name:    "debug at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Debug("test") },
			wantLog: false,
		},
		{
			name:    "debug at debug level",
			level:   log.DebugLevel,
			logFunc: func(l *log.Logger) { l.Debug("test") },
			wantLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.level)
			tt.logFunc(logger)

			gotLog := buf.Len() > 0
			if gotLog != tt.wantLog {
				t.Errorf("got log output = %v, want %v", gotLog, tt.wantLog)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	time.Sleep(10 * time.Millisecond)
	prog.done("test completed")

	if !bytes.Contains(buf.Bytes(), []byte("test completed")) {
		t.Errorf("progress.done() output = %q", buf.String())
	}
}

func TestRegisterHooks(t *testing.T) {
	t.Cleanup(observability.Reset)
	ctx := context.Background()

	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	c.RegisterHooks()
	observability.Cache().OnCacheHit(ctx, "document")
	if buf.Len() != 0 {
		t.Errorf("hooks registered at info level: %q", buf.String())
	}

	c.SetLogLevel(LogDebug)
	c.RegisterHooks()
	observability.Cache().OnCacheMiss(ctx, "document")
	observability.Output().OnWrite(ctx, "out/32x32/stone.png", 120, time.Millisecond, nil)
	observability.Output().OnWrite(ctx, "out/32x32/ore.png", 0, 0, errors.New("disk full"))

	got := buf.String()
	for _, want := range []string{"cache miss", "wrote", "stone.png", "write failed", "disk full"} {
		if !strings.Contains(got, want) {
			t.Errorf("log missing %q:\n%s", want, got)
		}
	}
}
