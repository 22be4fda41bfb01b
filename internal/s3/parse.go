package s3

import (
	"errors"
	"net/http"
	"strings"
)

var ErrInvalidRequestPath = errors.New("invalid s3 request path")

// RequestTarget identifies the bucket and object key a request addresses.
// Only path-style addressing is supported: bucket and key are the first
// and remaining path segments.
type RequestTarget struct {
	Bucket string
	Key    string
}

// ParseRequestTarget splits the request path into a bucket and a key. Key
// segments after the bucket are joined with `/` to reconstruct the object
// key, matching the S3 path-style convention.
func ParseRequestTarget(r *http.Request) (RequestTarget, error) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "" {
		return RequestTarget{}, nil
	}
	parts := strings.SplitN(path, "/", 2)
	bucket := parts[0]
	key := ""
	if len(parts) > 1 {
		key = parts[1]
	}
	if !IsValidBucketName(bucket) {
		return RequestTarget{}, ErrInvalidRequestPath
	}
	return RequestTarget{Bucket: bucket, Key: key}, nil
}

// DispatchQuery captures the query-string flags that affect operation
// resolution.
type DispatchQuery struct {
	HasListType bool
	ListType    string
	HasDelete   bool
	Prefix      string
}

// ParseDispatchQuery extracts DispatchQuery from a parsed query string.
func ParseDispatchQuery(q map[string][]string) DispatchQuery {
	return DispatchQuery{
		HasListType: hasQuery(q, "list-type"),
		ListType:    firstQuery(q, "list-type"),
		HasDelete:   hasQuery(q, "delete"),
		Prefix:      firstQuery(q, "prefix"),
	}
}

func firstQuery(q map[string][]string, key string) string {
	if values, ok := q[key]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

func hasQuery(q map[string][]string, key string) bool {
	_, ok := q[key]
	return ok
}
