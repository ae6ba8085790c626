// Package worker is the process that answers dynamic resolution requests.
//
// A [Resolver] runs the package manager configured for a manifest kind in
// the manifest's directory, then parses the lockfile it writes with the
// same static parsers the scanner uses. Results are cached by request and
// manifest content. [NewHandler] and [ServeStdio] expose a Resolver over
// HTTP and over stdin/stdout.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/depresolve/pkg/cache"
	"github.com/matzehuels/depresolve/pkg/deps"
	derrors "github.com/matzehuels/depresolve/pkg/errors"
	"github.com/matzehuels/depresolve/pkg/observability"
	"github.com/matzehuels/depresolve/pkg/rpc"
)

// RunFunc executes a tool command in dir.
type RunFunc func(ctx context.Context, dir, name string, args ...string) error

// Resolver computes dependencies for manifests under Root.
type Resolver struct {
	// Root is the repository directory request paths are relative to.
	Root    string
	Tools   map[deps.ManifestKind]Tool
	Parsers map[deps.LockfileKind]deps.Parser
	// ToolTimeout bounds a single tool run; zero means no bound beyond the
	// request context.
	ToolTimeout time.Duration
	Cache       cache.Cache
	Keyer       cache.Keyer
	TTL         time.Duration
	Logger      *log.Logger
	// Run defaults to executing the command with os/exec.
	Run RunFunc
}

// Resolve answers one request. Failures are reported in the response;
// the returned value is always well-formed.
func (r *Resolver) Resolve(ctx context.Context, req rpc.Request) rpc.Response {
	if req.Source == nil {
		return rpc.Fail(req.ID, deps.ResolutionError{Kind: deps.InvalidResponse, Message: "request has no source"})
	}
	if err := derrors.ValidateSource(req.Source); err != nil {
		return rpc.Fail(req.ID, deps.ResolutionError{
			Path:    rpc.SourcePath(req.Source),
			Kind:    deps.InvalidResponse,
			Message: derrors.UserMessage(err),
		})
	}
	manifest, ok := deps.ManifestOf(req.Source)
	if !ok {
		return rpc.Fail(req.ID, deps.ResolutionError{
			Path:    rpc.SourcePath(req.Source),
			Kind:    deps.UnsupportedManifest,
			Message: "dynamic resolution needs a manifest",
		})
	}
	tool, ok := r.Tools[manifest.Kind]
	if !ok {
		return rpc.Fail(req.ID, deps.ResolutionError{
			Path:    manifest.Path,
			Kind:    deps.UnsupportedManifest,
			Message: fmt.Sprintf("no resolver tool for %s", manifest.Kind),
		})
	}
	parse, ok := r.Parsers[tool.Lockfile]
	if !ok {
		return rpc.Fail(req.ID, deps.ResolutionError{
			Path:    manifest.Path,
			Kind:    deps.UnsupportedManifest,
			Message: fmt.Sprintf("no parser for %s", tool.Lockfile),
		})
	}

	key, err := r.cacheKey(req.Source, manifest)
	if err != nil {
		return rpc.Fail(req.ID, deps.ResolutionError{Path: manifest.Path, Kind: deps.ToolFailure, Message: err.Error()})
	}
	if ok, resp := r.lookup(ctx, key, req.ID); ok {
		return resp
	}

	dir := path.Dir(manifest.Path)
	if err := r.runTool(ctx, tool, dir); err != nil {
		kind := deps.ToolFailure
		if errors.Is(err, context.DeadlineExceeded) {
			kind = deps.Timeout
		}
		r.logger().Warn("resolver tool failed", "manifest", manifest.Path, "tool", tool.Command, "err", err)
		return rpc.Fail(req.ID, deps.ResolutionError{Path: manifest.Path, Kind: kind, Message: err.Error()})
	}

	found, perrs := parse(os.DirFS(r.Root), path.Join(dir, tool.Output), manifest.Path)
	eco := tool.Lockfile.Ecosystem()
	for i := range found {
		found[i].Ecosystem = eco
	}
	resp := rpc.Succeed(req.ID, eco, found, deps.ParserErrors(perrs))
	r.store(ctx, key, resp.OK)
	r.logger().Debug("resolved manifest", "manifest", manifest.Path, "dependencies", len(found), "errors", len(perrs))
	return resp
}

func (r *Resolver) runTool(ctx context.Context, tool Tool, dir string) error {
	if r.ToolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.ToolTimeout)
		defer cancel()
	}
	run := r.Run
	if run == nil {
		run = execRun
	}
	err := run(ctx, filepath.Join(r.Root, filepath.FromSlash(dir)), tool.Command, tool.Args...)
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%s: %w", tool.Command, ctx.Err())
	}
	return err
}

func execRun(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// cacheKey hashes the wire form of src together with the contents of every
// file it references that exists.
func (r *Resolver) cacheKey(src deps.DependencySource, manifest deps.Manifest) (string, error) {
	wire, err := json.Marshal(src)
	if err != nil {
		return "", err
	}
	fsys := os.DirFS(r.Root)
	var content bytes.Buffer
	for _, p := range deps.ReferencedPaths(src) {
		data, err := fs.ReadFile(fsys, p)
		if errors.Is(err, fs.ErrNotExist) && p != manifest.Path {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("read %s: %w", p, err)
		}
		content.WriteString(p)
		content.WriteByte(0)
		content.Write(data)
	}
	return r.keyer().ResolutionKey(wire, cache.Hash(content.Bytes())), nil
}

func (r *Resolver) lookup(ctx context.Context, key, id string) (bool, rpc.Response) {
	if r.Cache == nil {
		return false, rpc.Response{}
	}
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.logger().Warn("cache read failed", "err", err)
		return false, rpc.Response{}
	}
	if !hit {
		hooks.OnCacheMiss(ctx, "resolve")
		return false, rpc.Response{}
	}
	var ok rpc.Success
	if err := json.Unmarshal(data, &ok); err != nil {
		r.logger().Warn("discarding corrupt cache entry", "err", err)
		_ = r.Cache.Delete(ctx, key)
		return false, rpc.Response{}
	}
	hooks.OnCacheHit(ctx, "resolve")
	return true, rpc.Response{ID: id, OK: &ok}
}

func (r *Resolver) store(ctx context.Context, key string, ok *rpc.Success) {
	if r.Cache == nil || ok == nil {
		return
	}
	data, err := json.Marshal(ok)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		r.logger().Warn("cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "resolve", len(data))
}

func (r *Resolver) keyer() cache.Keyer {
	if r.Keyer != nil {
		return r.Keyer
	}
	return cache.NewDefaultKeyer()
}

func (r *Resolver) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}
