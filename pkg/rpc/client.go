package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/depresolve/pkg/deps"
)

// Status classifies the outcome of a dynamic resolution call.
type Status int

const (
	// StatusOK means the resolver returned dependencies.
	StatusOK Status = iota
	// StatusErr means the resolver answered with errors, or the answer
	// could not be understood.
	StatusErr
	// StatusTimeout means the call exceeded its deadline.
	StatusTimeout
	// StatusAbsent means no answer arrived (transport failure).
	StatusAbsent
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusErr:
		return "error"
	case StatusTimeout:
		return "timeout"
	case StatusAbsent:
		return "absent"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result is the outcome of [Client.Resolve]. Ecosystem and Dependencies
// are set only when Status is StatusOK. Errors may be empty for any status.
type Result struct {
	Status       Status
	Ecosystem    deps.Ecosystem
	Dependencies []deps.FoundDependency
	Errors       []deps.DependencyError
}

// OK reports whether the call succeeded.
func (r Result) OK() bool { return r.Status == StatusOK }

// Transport delivers one encoded request and returns the encoded response.
type Transport interface {
	RoundTrip(ctx context.Context, request []byte) ([]byte, error)
}

// Client performs dynamic resolution calls. It holds no state across calls
// and is safe for concurrent use if its Transport is.
type Client struct {
	Transport Transport
	// Timeout bounds each call. Zero means the caller's context alone.
	Timeout time.Duration
	Logger  *log.Logger
}

// Resolve sends src to the resolver. Transport failures and timeouts are
// logged and reported through Result.Status; they are never returned as
// errors.
func (c *Client) Resolve(ctx context.Context, src deps.DependencySource) Result {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	id := uuid.NewString()
	path := SourcePath(src)
	body, err := json.Marshal(Request{ID: id, Source: src})
	if err != nil {
		return failed(path, deps.InvalidResponse, "encode request: "+err.Error())
	}

	c.logger().Debug("dynamic resolution", "id", id, "source", path)
	raw, err := c.Transport.RoundTrip(ctx, body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.logger().Warn("dynamic resolution timed out", "source", path, "timeout", c.Timeout)
			return Result{Status: StatusTimeout}
		}
		c.logger().Warn("dynamic resolution unavailable", "source", path, "err", err)
		return Result{Status: StatusAbsent}
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return failed(path, deps.InvalidResponse, "decode response: "+err.Error())
	}
	if resp.ID != id {
		return failed(path, deps.InvalidResponse, fmt.Sprintf("response id %q does not match request %q", resp.ID, id))
	}

	switch {
	case resp.OK != nil:
		eco, err := deps.ParseEcosystem(string(resp.OK.Ecosystem))
		if err != nil {
			return failed(path, deps.InvalidResponse, err.Error())
		}
		return Result{
			Status:       StatusOK,
			Ecosystem:    eco,
			Dependencies: resp.OK.Dependencies,
			Errors:       recordErrors(resp.OK.Errors),
		}
	case resp.Error != nil:
		return Result{Status: StatusErr, Errors: recordErrors(resp.Error.Errors)}
	}
	return failed(path, deps.InvalidResponse, "response has neither ok nor error")
}

func (c *Client) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

// SourcePath is the path resolution errors for src are scoped to: the
// manifest when there is one, otherwise the first display path.
func SourcePath(src deps.DependencySource) string {
	if m, ok := deps.ManifestOf(src); ok {
		return m.Path
	}
	if paths := src.DisplayPaths(); len(paths) > 0 {
		return paths[0]
	}
	return ""
}

func failed(path string, kind deps.ResolutionErrorKind, msg string) Result {
	return Result{
		Status: StatusErr,
		Errors: []deps.DependencyError{deps.ResolutionError{Path: path, Kind: kind, Message: msg}},
	}
}

func recordErrors(records []deps.ErrorRecord) []deps.DependencyError {
	if len(records) == 0 {
		return nil
	}
	out := make([]deps.DependencyError, len(records))
	for i, r := range records {
		out[i] = r.Err()
	}
	return out
}
