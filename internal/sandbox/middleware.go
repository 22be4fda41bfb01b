package sandbox

import (
	"net/http"

	"github.com/google/uuid"
)

// OwnerHeader is the fixed HTTP header name carrying an encoded owner
// identity.
const OwnerHeader = "x-ps3-sandbox-owner"

// handlerNamespace is a fixed namespace used to derive a stable task
// identity for a request's underlying connection. Go hands each accepted
// connection its own goroutine (and, per keep-alive connection, a stream of
// requests), unlike the pooled worker processes the interceptor was
// originally designed around; deriving the task identity from the remote
// address lets a client that reuses a single connection to make several
// requests be recognized as the same handler task across them, so
// force_allow rebinding is exercised the same way a reused worker would.
var handlerNamespace = uuid.MustParse("6f6e1eb2-9a5f-4b8e-8e15-1a935d5d5c39")

// HandlerTask derives the handler task identity for r.
func HandlerTask(r *http.Request) TaskID {
	return TaskID(uuid.NewSHA1(handlerNamespace, []byte(r.RemoteAddr)))
}

// Intercept implements the allowance interceptor: if the owner header is
// present, decode it and register the handler task as allowed under that
// owner, rebinding via force_allow if the task is already bound elsewhere.
// It returns the request to use for the remainder of the handling, with the
// handler task bound to its context; on any failure it returns r unchanged
// and the request proceeds without a sandbox binding.
func Intercept(registry *Registry, r *http.Request) *http.Request {
	raw := r.Header.Get(OwnerHeader)
	if raw == "" {
		return r
	}
	owner, err := registry.DecodeMetadata(raw)
	if err != nil {
		return r
	}
	child := HandlerTask(r)

	if current, ok := registry.LookupOwner(child); ok {
		if current == owner {
			return r.WithContext(WithTask(r.Context(), child))
		}
		if err := registry.ForceAllow(owner, child); err != nil {
			return r
		}
		return r.WithContext(WithTask(r.Context(), child))
	}

	if err := registry.Allow(owner, child); err != nil {
		return r
	}
	return r.WithContext(WithTask(r.Context(), child))
}

// Middleware wraps next with the allowance interceptor.
func Middleware(registry *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, Intercept(registry, r))
		})
	}
}
