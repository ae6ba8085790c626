package cli

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, e.g.
// "Resolved 4 subprojects, 1 unresolved (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// progressHooks reports resolution progress on a spinner and the logger.
type progressHooks struct {
	spinner *Spinner
	logger  *log.Logger
	total   atomic.Int64
	done    atomic.Int64
}

func newProgressHooks(s *Spinner, l *log.Logger) *progressHooks {
	return &progressHooks{spinner: s, logger: l}
}

func (h *progressHooks) OnDiscover(_ context.Context, candidates, subprojects int) {
	h.total.Store(int64(subprojects))
	h.logger.Debug("discovered subprojects", "candidates", candidates, "subprojects", subprojects)
	h.update()
}

func (h *progressHooks) OnResolveStart(_ context.Context, id, rootDir string) {
	h.logger.Debug("resolving", "root", displayRoot(rootDir), "id", id[:min(12, len(id))])
}

func (h *progressHooks) OnResolveComplete(_ context.Context, id, ecosystem, method string, dependencies int, d time.Duration) {
	h.done.Add(1)
	if ecosystem == "" {
		h.logger.Debug("unresolved", "id", id[:min(12, len(id))], "took", d.Round(time.Millisecond))
	} else {
		h.logger.Debug("resolved", "ecosystem", ecosystem, "method", method, "dependencies", dependencies, "took", d.Round(time.Millisecond))
	}
	h.update()
}

func (h *progressHooks) OnDynamicFallback(_ context.Context, manifestPath string, err error) {
	h.logger.Warn("falling back to lockfile", "manifest", manifestPath, "reason", err)
}

func (h *progressHooks) update() {
	if h.spinner == nil {
		return
	}
	h.spinner.Update(fmt.Sprintf("Resolving subprojects %d/%d", h.done.Load(), h.total.Load()))
}

// ctxKey is the type for context keys used in this package.
type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
