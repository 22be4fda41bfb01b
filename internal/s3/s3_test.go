package s3

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseRequestTarget(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest(http.MethodGet, "http://storage.local/test-bucket/dir/file.txt", nil)
	target, err := ParseRequestTarget(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if target.Bucket != "test-bucket" || target.Key != "dir/file.txt" {
		t.Fatalf("unexpected target: %+v", target)
	}
}

func TestParseRequestTargetBucketOnly(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest(http.MethodGet, "http://storage.local/test-bucket", nil)
	target, err := ParseRequestTarget(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if target.Bucket != "test-bucket" || target.Key != "" {
		t.Fatalf("unexpected target: %+v", target)
	}
}

func TestParseRequestTargetRejectsInvalidBucket(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest(http.MethodGet, "http://storage.local/UpperCase/key.txt", nil)
	if _, err := ParseRequestTarget(r); err != ErrInvalidRequestPath {
		t.Fatalf("got %v, want ErrInvalidRequestPath", err)
	}
}

func TestParseRequestTargetRoot(t *testing.T) {
	t.Parallel()
	r := httptest.NewRequest(http.MethodGet, "http://storage.local/", nil)
	target, err := ParseRequestTarget(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if target.Bucket != "" || target.Key != "" {
		t.Fatalf("unexpected target: %+v", target)
	}
}

func TestResolveOperationServiceLevel(t *testing.T) {
	t.Parallel()
	got := ResolveOperation(http.MethodGet, RequestTarget{}, DispatchQuery{}, http.Header{})
	if got != OperationListBuckets {
		t.Fatalf("GET /: got %v, want OperationListBuckets", got)
	}
}

func TestResolveOperationObjectLevel(t *testing.T) {
	t.Parallel()
	target := RequestTarget{Bucket: "test-bucket", Key: "file.txt"}

	cases := []struct {
		method  string
		headers http.Header
		want    Operation
	}{
		{http.MethodPut, http.Header{}, OperationPutObject},
		{http.MethodPut, http.Header{"X-Amz-Copy-Source": []string{"/src/key"}}, OperationCopyObject},
		{http.MethodGet, http.Header{}, OperationGetObject},
		{http.MethodHead, http.Header{}, OperationHeadObject},
		{http.MethodDelete, http.Header{}, OperationDeleteObject},
	}
	for _, c := range cases {
		got := ResolveOperation(c.method, target, DispatchQuery{}, c.headers)
		if got != c.want {
			t.Fatalf("%s object: got %v, want %v", c.method, got, c.want)
		}
	}
}

func TestResolveOperationBatchDelete(t *testing.T) {
	t.Parallel()
	target := RequestTarget{Bucket: "test-bucket"}
	got := ResolveOperation(http.MethodPost, target, DispatchQuery{HasDelete: true}, http.Header{})
	if got != OperationBatchDelete {
		t.Fatalf("got %v, want OperationBatchDelete", got)
	}
	got = ResolveOperation(http.MethodPost, target, DispatchQuery{}, http.Header{})
	if got != OperationUnknown {
		t.Fatalf("post without ?delete: got %v, want OperationUnknown", got)
	}
}

func TestResolveOperationUnmatched(t *testing.T) {
	t.Parallel()
	got := ResolveOperation(http.MethodPatch, RequestTarget{Bucket: "b"}, DispatchQuery{}, http.Header{})
	if got != OperationUnknown {
		t.Fatalf("got %v, want OperationUnknown", got)
	}
}
