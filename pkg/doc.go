// Package pkg holds the depresolve libraries.
//
// # Overview
//
// depresolve finds the dependency units of a repository and works out what
// each one depends on:
//
//  1. [walk] lists candidate files, skipping vendored and excluded trees
//  2. [deps/matcher] groups candidates into subprojects by priority-ordered matchers
//  3. [resolve] resolves each subproject from its lockfile or through a worker
//  4. [report] turns the result into JSON, text-ready summaries and DOT graphs
//
// Dynamic resolution crosses a process boundary: [rpc] is the client side and
// [worker] the server that runs package managers, caching answers in [cache].
//
// # Data flow
//
//	repository tree
//	     ↓
//	[walk] candidates
//	     ↓
//	[deps/matcher] subprojects
//	     ↓
//	[resolve] lockfile parsers (pkg/deps/<ecosystem>) or [rpc] → [worker]
//	     ↓
//	[report] JSON / DOT / SVG
//
// # Quick Start
//
//	fsys := os.DirFS(root)
//	candidates, _ := walk.Candidates(fsys, walk.Options{})
//	res, err := resolve.ResolveAll(ctx, candidates, resolve.Options{
//	    Dispatcher: resolve.NewDispatcher(fsys, nil, logger),
//	})
//	rep := report.Build(root, time.Now(), res)
package pkg
