// Package rpc implements the dynamic resolution protocol: a request carrying
// a serialized dependency source and a response carrying either the
// resolved dependencies or the errors that prevented resolution.
//
// Requests and responses are single JSON documents:
//
//	{"id": "6f1c…", "source": {"type": "manifest_only", "manifest": {...}}}
//	{"id": "6f1c…", "ok": {"ecosystem": "maven", "dependencies": [...], "errors": []}}
//	{"id": "6f1c…", "error": {"errors": [{"type": "resolution", ...}]}}
//
// [Client] sends requests over a [Transport]; the worker side lives in
// package worker.
package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/depresolve/pkg/deps"
)

// Request asks the resolver to compute dependencies for Source.
type Request struct {
	ID     string
	Source deps.DependencySource
}

type wireRequest struct {
	ID     string          `json:"id"`
	Source json.RawMessage `json:"source"`
}

func (r Request) MarshalJSON() ([]byte, error) {
	if r.Source == nil {
		return nil, fmt.Errorf("rpc request %s has no source", r.ID)
	}
	src, err := r.Source.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireRequest{ID: r.ID, Source: src})
}

func (r *Request) UnmarshalJSON(data []byte) error {
	var w wireRequest
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	src, err := deps.DecodeSource(w.Source)
	if err != nil {
		return err
	}
	r.ID, r.Source = w.ID, src
	return nil
}

// Response answers a Request. Exactly one of OK and Error is set.
type Response struct {
	ID    string   `json:"id"`
	OK    *Success `json:"ok,omitempty"`
	Error *Failure `json:"error,omitempty"`
}

// Success carries resolved dependencies and any non-fatal errors.
type Success struct {
	Ecosystem    deps.Ecosystem         `json:"ecosystem"`
	Dependencies []deps.FoundDependency `json:"dependencies"`
	Errors       []deps.ErrorRecord     `json:"errors"`
}

// Failure carries the errors that prevented resolution.
type Failure struct {
	Errors []deps.ErrorRecord `json:"errors"`
}

// Succeed builds a successful response.
func Succeed(id string, eco deps.Ecosystem, found []deps.FoundDependency, errs []deps.DependencyError) Response {
	if found == nil {
		found = []deps.FoundDependency{}
	}
	return Response{ID: id, OK: &Success{Ecosystem: eco, Dependencies: found, Errors: deps.Records(errs)}}
}

// Fail builds a failed response.
func Fail(id string, errs ...deps.DependencyError) Response {
	return Response{ID: id, Error: &Failure{Errors: deps.Records(errs)}}
}
