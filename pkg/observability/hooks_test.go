package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	r := NoopResolutionHooks{}
	r.OnDiscover(ctx, 12, 3)
	r.OnResolveStart(ctx, "abc", "services/api")
	r.OnResolveComplete(ctx, "abc", "npm", "lockfile_parsing", 42, time.Second)
	r.OnDynamicFallback(ctx, "pom.xml", errors.New("mvn not found"))

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "resolution")
	c.OnCacheMiss(ctx, "resolution")
	c.OnCacheSet(ctx, "resolution", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "resolver:8080", "/v1/resolve")
	h.OnResponse(ctx, "POST", "resolver:8080", "/v1/resolve", 200, time.Second)
	h.OnError(ctx, "POST", "resolver:8080", "/v1/resolve", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Resolution().(NoopResolutionHooks); !ok {
		t.Error("Resolution() should return NoopResolutionHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customResolution := &testResolutionHooks{}
	SetResolutionHooks(customResolution)
	if Resolution() != customResolution {
		t.Error("SetResolutionHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Resolution().(NoopResolutionHooks); !ok {
		t.Error("Reset() should restore NoopResolutionHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testResolutionHooks{}
	SetResolutionHooks(custom)
	SetResolutionHooks(nil)

	if Resolution() != custom {
		t.Error("SetResolutionHooks(nil) should be ignored")
	}

	Reset()
}

type testResolutionHooks struct{ NoopResolutionHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
