package integration

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"ps3/internal/api"
	"ps3/internal/storage"
)

// CompatEnv runs a real ps3 service behind an httptest server so
// off-the-shelf S3 clients (aws-sdk-go-v2, rclone) can be driven against
// it without any faked network transport. The server carries no
// authentication, matching the unauthenticated storage design.
type CompatEnv struct {
	t       *testing.T
	handler http.Handler
	server  *httptest.Server
}

func NewCompatEnv(t *testing.T) *CompatEnv {
	t.Helper()
	backend := storage.NewFSBackend(t.TempDir())
	if err := backend.Init(t.Context()); err != nil {
		t.Fatalf("backend init: %v", err)
	}
	facade, err := storage.NewFacade(backend)
	if err != nil {
		t.Fatalf("NewFacade: %v", err)
	}
	svc := &api.Service{Storage: facade}
	h := svc.Handler()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &CompatEnv{t: t, handler: h, server: srv}
}

func (e *CompatEnv) BaseURL() string { return e.server.URL }

func (e *CompatEnv) MustReq(t *testing.T, method, path string, body io.Reader, want int) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "http://storage.local"+path, body)
	res := httptest.NewRecorder()
	e.handler.ServeHTTP(res, req)
	if res.Code != want {
		t.Fatalf("unexpected status=%d want=%d path=%s body=%s", res.Code, want, path, res.Body.String())
	}
	return res
}

func (e *CompatEnv) Upload(bucket, key, value string) {
	e.MustReq(e.t, http.MethodPut, "/"+bucket, nil, http.StatusOK)
	e.MustReq(e.t, http.MethodPut, "/"+bucket+"/"+key, bytes.NewBufferString(value), http.StatusOK)
}
