// Package api wires the storage facade and sandbox registry into the S3
// protocol adapter: HTTP routing, request parsing, and XML response
// shaping.
package api

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/xml"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ps3/internal/s3"
	"ps3/internal/s3err"
	"ps3/internal/sandbox"
	"ps3/internal/storage"
)

// Service dispatches parsed S3 operations against a storage facade.
type Service struct {
	Storage  *storage.Facade
	Registry *sandbox.Registry
	Logger   *slog.Logger

	// Now overrides the clock; nil means time.Now. It drives request timing
	// in log output and the LastModified timestamp of a CopyObjectResult;
	// list and bucket timestamps come from the backend's own recorded times.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Handler builds the complete HTTP handler: request-ID tagging and routing
// (from internal/s3), the sandbox allowance interceptor, and request
// logging, wrapped around the dispatch table.
func (s *Service) Handler() http.Handler {
	router := s3.NewRouter(s3.RouterConfig{Handler: s.dispatch})
	var handler http.Handler = router
	if s.Registry != nil {
		handler = sandbox.Middleware(s.Registry)(handler)
	}
	return s.logRequests(handler)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Service) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		if s.Logger == nil {
			return
		}
		level := slog.LevelInfo
		if sw.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.Logger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration_ms", s.now().Sub(start).Milliseconds(),
			"request_id", s3.RequestIDFromContext(r.Context()),
		)
	})
}

// headWriter suppresses body writes so a GET-shaped handler can service a
// HEAD request; headers and the status code still pass through untouched.
type headWriter struct {
	http.ResponseWriter
}

func (w *headWriter) Write(p []byte) (int, error) {
	return len(p), nil
}

func (s *Service) dispatch(w http.ResponseWriter, r *http.Request, target s3.RequestTarget, op s3.Operation) {
	ctx := r.Context()
	switch op {
	case s3.OperationListBuckets:
		s.handleListBuckets(w, ctx)
	case s3.OperationCreateBucket:
		s.handleCreateBucket(w, ctx, target.Bucket)
	case s3.OperationDeleteBucket:
		s.handleDeleteBucket(w, ctx, target.Bucket)
	case s3.OperationHeadBucket:
		s.handleListObjects(&headWriter{w}, r, ctx, target.Bucket)
	case s3.OperationListObjects:
		s.handleListObjects(w, r, ctx, target.Bucket)
	case s3.OperationBatchDelete:
		s.handleBatchDelete(w, r, ctx, target.Bucket)
	case s3.OperationPutObject:
		s.handlePutObject(w, r, ctx, target.Bucket, target.Key)
	case s3.OperationCopyObject:
		s.handleCopyObject(w, r, ctx, target.Bucket, target.Key)
	case s3.OperationGetObject:
		s.handleGetObject(w, ctx, target.Bucket, target.Key)
	case s3.OperationHeadObject:
		s.handleGetObject(&headWriter{w}, ctx, target.Bucket, target.Key)
	case s3.OperationDeleteObject:
		s.handleDeleteObject(w, ctx, target.Bucket, target.Key)
	default:
		s3err.WriteNotFound(w)
	}
}

func (s *Service) writeError(w http.ResponseWriter, err error) {
	if apiErr, ok := s3err.MapError(err); ok {
		s3err.Write(w, apiErr)
		return
	}
	if s.Logger != nil {
		s.Logger.Error("internal failure", "error", err)
	}
	s3err.WriteInternalError(w)
}

func writeXML(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, xml.Header)
	_ = xml.NewEncoder(w).Encode(v)
}

func formatS3Time(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

type ownerXML struct {
	ID          string `xml:"ID"`
	DisplayName string `xml:"DisplayName"`
}

type listAllMyBucketsResult struct {
	XMLName xml.Name    `xml:"ListAllMyBucketsResult"`
	Owner   ownerXML    `xml:"Owner"`
	Buckets []bucketXML `xml:"Buckets>Bucket"`
}

type bucketXML struct {
	Name         string `xml:"Name"`
	CreationDate string `xml:"CreationDate"`
}

func (s *Service) handleListBuckets(w http.ResponseWriter, ctx context.Context) {
	buckets, err := s.Storage.ListBuckets(ctx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	result := listAllMyBucketsResult{Owner: ownerXML{ID: "ps3", DisplayName: "ps3"}}
	for _, b := range buckets {
		result.Buckets = append(result.Buckets, bucketXML{
			Name:         b.Name,
			CreationDate: formatS3Time(b.CreationDate),
		})
	}
	writeXML(w, http.StatusOK, result)
}

func (s *Service) handleCreateBucket(w http.ResponseWriter, ctx context.Context, bucket string) {
	if err := s.Storage.CreateBucket(ctx, bucket); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/"+bucket)
	w.WriteHeader(http.StatusOK)
}

func (s *Service) handleDeleteBucket(w http.ResponseWriter, ctx context.Context, bucket string) {
	if err := s.Storage.DeleteBucket(ctx, bucket); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type listObjectContents struct {
	Key          string `xml:"Key"`
	LastModified string `xml:"LastModified"`
	ETag         string `xml:"ETag,omitempty"`
	Size         int64  `xml:"Size"`
}

type listBucketResult struct {
	XMLName  xml.Name             `xml:"ListBucketResult"`
	Name     string               `xml:"Name"`
	Prefix   string               `xml:"Prefix"`
	KeyCount string               `xml:"KeyCount,omitempty"`
	Contents []listObjectContents `xml:"Contents"`
}

func (s *Service) handleListObjects(w http.ResponseWriter, r *http.Request, ctx context.Context, bucket string) {
	objects, err := s.Storage.ListObjects(ctx, bucket)
	if err != nil {
		s.writeError(w, err)
		return
	}
	query := r.URL.Query()
	prefix := query.Get("prefix")
	filtered := filterByPrefix(objects, prefix)

	result := listBucketResult{Name: bucket, Prefix: prefix}
	for _, o := range filtered {
		result.Contents = append(result.Contents, listObjectContents{
			Key:          o.Key,
			LastModified: formatS3Time(o.LastModified),
			// ETag is omitted: computing it would require reading every
			// object's payload back, which list_objects deliberately avoids.
			Size: o.Size,
		})
	}
	if query.Get("list-type") == "2" {
		result.KeyCount = strconv.Itoa(len(filtered))
	}
	writeXML(w, http.StatusOK, result)
}

func filterByPrefix(objects []storage.ObjectInfo, prefix string) []storage.ObjectInfo {
	if prefix == "" {
		return objects
	}
	out := make([]storage.ObjectInfo, 0, len(objects))
	for _, o := range objects {
		if strings.HasPrefix(o.Key, prefix) {
			out = append(out, o)
		}
	}
	return out
}

func (s *Service) handlePutObject(w http.ResponseWriter, r *http.Request, ctx context.Context, bucket, key string) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		s3err.WriteInternalError(w)
		return
	}
	if err := s.Storage.PutObject(ctx, bucket, key, data); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("ETag", quoteETag(data))
	w.WriteHeader(http.StatusOK)
}

func quoteETag(data []byte) string {
	sum := md5.Sum(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

type copyObjectResult struct {
	XMLName      xml.Name `xml:"CopyObjectResult"`
	ETag         string   `xml:"ETag"`
	LastModified string   `xml:"LastModified"`
}

// parseCopySource splits an x-amz-copy-source header value ("/bucket/key"
// or "bucket/key") into its source bucket and key.
func parseCopySource(raw string) (bucket, key string) {
	trimmed := strings.TrimPrefix(raw, "/")
	parts := strings.SplitN(trimmed, "/", 2)
	bucket = parts[0]
	if len(parts) > 1 {
		key = parts[1]
	}
	return bucket, key
}

func (s *Service) handleCopyObject(w http.ResponseWriter, r *http.Request, ctx context.Context, destBucket, destKey string) {
	srcBucket, srcKey := parseCopySource(r.Header.Get("X-Amz-Copy-Source"))

	data, _, err := s.Storage.GetObject(ctx, srcBucket, srcKey)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.Storage.PutObject(ctx, destBucket, destKey, data); err != nil {
		s.writeError(w, err)
		return
	}
	writeXML(w, http.StatusOK, copyObjectResult{
		ETag:         quoteETag(data),
		LastModified: formatS3Time(s.now()),
	})
}

func (s *Service) handleGetObject(w http.ResponseWriter, ctx context.Context, bucket, key string) {
	data, _, err := s.Storage.GetObject(ctx, bucket, key)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Service) handleDeleteObject(w http.ResponseWriter, ctx context.Context, bucket, key string) {
	err := s.Storage.DeleteObject(ctx, bucket, key)
	if err != nil && err != storage.ErrNoSuchKey && err != storage.ErrNoSuchBucket {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type deleteRequestObject struct {
	Key string `xml:"Key"`
}

type deleteRequest struct {
	XMLName xml.Name              `xml:"Delete"`
	Objects []deleteRequestObject `xml:"Object"`
}

type deletedEntry struct {
	Key string `xml:"Key"`
}

type deleteResult struct {
	XMLName xml.Name       `xml:"DeleteResult"`
	Deleted []deletedEntry `xml:"Deleted"`
}

func (s *Service) handleBatchDelete(w http.ResponseWriter, r *http.Request, ctx context.Context, bucket string) {
	var req deleteRequest
	if err := xml.NewDecoder(r.Body).Decode(&req); err != nil {
		s3err.WriteInternalError(w)
		return
	}
	result := deleteResult{}
	for _, obj := range req.Objects {
		// Individual failures (including no_such_key) are ignored; every
		// requested key is reported as deleted.
		_ = s.Storage.DeleteObject(ctx, bucket, obj.Key)
		result.Deleted = append(result.Deleted, deletedEntry{Key: obj.Key})
	}
	writeXML(w, http.StatusOK, result)
}
