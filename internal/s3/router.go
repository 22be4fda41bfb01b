package s3

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"
)

type contextKey string

const requestIDContextKey contextKey = "request_id"

// RouterConfig configures NewRouter.
type RouterConfig struct {
	Handler func(http.ResponseWriter, *http.Request, RequestTarget, Operation)
}

// NewRouter builds the top-level HTTP handler: request-ID tagging, target
// parsing, operation resolution, then dispatch to cfg.Handler. Unmatched
// operations return a plain 404, matching S3's own unrouted-request
// behavior rather than a structured XML error.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		target, err := ParseRequestTarget(r)
		if err != nil {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		operation := ResolveOperation(r.Method, target, ParseDispatchQuery(r.URL.Query()), r.Header)
		if operation == OperationUnknown {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		cfg.Handler(w, r, target, operation)
	})

	return requestIDMiddleware(mux)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := GenerateRequestID()
		ctx := context.WithValue(r.Context(), requestIDContextKey, reqID)
		w.Header().Set("X-Request-Id", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GenerateRequestID() string {
	var entropy [8]byte
	if _, err := rand.Read(entropy[:]); err != nil {
		return fmt.Sprintf("req-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("req-%d-%s", time.Now().UnixNano(), hex.EncodeToString(entropy[:]))
}

func RequestIDFromContext(ctx context.Context) string {
	if value, ok := ctx.Value(requestIDContextKey).(string); ok {
		return value
	}
	return ""
}
