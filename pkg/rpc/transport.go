package rpc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os/exec"
	"strings"
	"time"

	"github.com/matzehuels/depresolve/pkg/buildinfo"
	"github.com/matzehuels/depresolve/pkg/httputil"
	"github.com/matzehuels/depresolve/pkg/observability"
)

// ResolvePath is the worker endpoint that accepts resolution requests.
const ResolvePath = "/v1/resolve"

// ExecTransport runs a worker command per request, writing the request to
// its stdin and reading the response from its stdout.
type ExecTransport struct {
	Command string
	Args    []string
	// Dir is the working directory; empty means the current directory.
	Dir string
	Env []string
}

func (t *ExecTransport) RoundTrip(ctx context.Context, request []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, t.Command, t.Args...)
	cmd.Dir = t.Dir
	if len(t.Env) > 0 {
		cmd.Env = append(cmd.Environ(), t.Env...)
	}
	cmd.Stdin = bytes.NewReader(append(request, '\n'))
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", t.Command, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", t.Command, err)
	}
	return stdout.Bytes(), nil
}

// HTTPTransport posts requests to a worker's [ResolvePath] endpoint.
// Network errors and retryable statuses are retried with exponential
// backoff.
type HTTPTransport struct {
	BaseURL string
	Client  *http.Client
	// Retries is the number of attempts; values below one mean one.
	Retries int
	// Backoff is the delay before the first retry.
	Backoff time.Duration
}

func (t *HTTPTransport) RoundTrip(ctx context.Context, request []byte) ([]byte, error) {
	endpoint, err := url.JoinPath(t.BaseURL, ResolvePath)
	if err != nil {
		return nil, fmt.Errorf("resolver url: %w", err)
	}
	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	policy := httputil.DefaultPolicy
	policy.Attempts = t.Retries
	if t.Backoff > 0 {
		policy.Delay = t.Backoff
	}

	var body []byte
	err = httputil.Retry(ctx, policy, func(int) error {
		var postErr error
		body, postErr = t.post(ctx, client, endpoint, request)
		return postErr
	})
	return body, err
}

func (t *HTTPTransport) post(ctx context.Context, client *http.Client, endpoint string, request []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(request))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, http.MethodPost, host, path)
	start := time.Now()

	resp, err := client.Do(req)
	if err != nil {
		hooks.OnError(ctx, http.MethodPost, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &httputil.RetryableError{Err: err}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, http.MethodPost, host, path, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &httputil.RetryableError{Err: err}
	}
	switch {
	case httputil.RetryableStatus(resp.StatusCode):
		return nil, &httputil.RetryableError{Err: fmt.Errorf("resolver returned %s", resp.Status)}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("resolver returned %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	return data, nil
}
