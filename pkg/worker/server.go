package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/depresolve/pkg/deps"
	"github.com/matzehuels/depresolve/pkg/rpc"
)

// maxRequestBytes bounds a request body; sources are a handful of paths.
const maxRequestBytes = 1 << 20

// NewHandler serves r over HTTP:
//
//	POST /v1/resolve  rpc.Request -> rpc.Response
//	GET  /healthz     liveness
func NewHandler(r *Resolver, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = log.Default()
	}
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(requestLogger(logger))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "ok\n")
	})
	router.Post(rpc.ResolvePath, func(w http.ResponseWriter, req *http.Request) {
		var rr rpc.Request
		dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxRequestBytes))
		if err := dec.Decode(&rr); err != nil {
			http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, r.Resolve(req.Context(), rr))
	})
	return router
}

func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			next.ServeHTTP(ww, req)
			logger.Debug("request", "method", req.Method, "path", req.URL.Path,
				"status", ww.Status(), "id", middleware.GetReqID(req.Context()))
		})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ServeStdio reads one JSON request per line from in and writes one JSON
// response per line to out until in is exhausted or ctx is done. A line
// that does not decode is answered with a failure carrying an empty id.
func ServeStdio(ctx context.Context, r *Resolver, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), maxRequestBytes)
	enc := json.NewEncoder(out)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var req rpc.Request
		var resp rpc.Response
		if err := json.Unmarshal(line, &req); err != nil {
			resp = rpc.Fail("", deps.ResolutionError{Kind: deps.InvalidResponse, Message: "invalid request: " + err.Error()})
		} else {
			resp = r.Resolve(ctx, req)
		}
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	return sc.Err()
}
