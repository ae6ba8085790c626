package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
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

			if gotLog := buf.Len() > 0; gotLog != tt.wantLog {
				t.Errorf("got log output = %v, want %v", gotLog, tt.wantLog)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	time.Sleep(10 * time.Millisecond)
	prog.done("Resolved 2 subprojects")

	if !strings.Contains(buf.String(), "Resolved 2 subprojects (") {
		t.Errorf("progress output = %q", buf.String())
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) == nil {
		t.Fatal("loggerFromContext should return the default logger when none is set")
	}

	custom := newLogger(io.Discard, log.InfoLevel)
	if got := loggerFromContext(withLogger(context.Background(), custom)); got != custom {
		t.Error("loggerFromContext should return the attached logger")
	}
}

func TestProgressHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.DebugLevel)
	spin := newSpinnerTo(context.Background(), io.Discard, "Discovering subprojects...")
	h := newProgressHooks(spin, logger)
	ctx := context.Background()

	h.OnDiscover(ctx, 10, 2)
	if got := spin.Message(); got != "Resolving subprojects 0/2" {
		t.Errorf("after discover message = %q", got)
	}
	h.OnResolveStart(ctx, "abc", "svc")
	h.OnResolveComplete(ctx, "abc", "maven", "lockfile_parsing", 3, time.Millisecond)
	h.OnResolveComplete(ctx, "def", "", "", 0, time.Millisecond)
	if got := spin.Message(); got != "Resolving subprojects 2/2" {
		t.Errorf("after completion message = %q", got)
	}

	h.OnDynamicFallback(ctx, "svc/pom.xml", errors.New("mvn exited 1"))
	out := buf.String()
	for _, want := range []string{"discovered subprojects", "resolved", "unresolved", "falling back to lockfile", "svc/pom.xml"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestProgressHooksWithoutSpinner(t *testing.T) {
	h := newProgressHooks(nil, newLogger(io.Discard, log.InfoLevel))
	h.OnDiscover(context.Background(), 1, 1)
	h.OnResolveComplete(context.Background(), "id", "pypi", "lockfile_parsing", 1, 0)
}
