package s3err

import (
	"encoding/xml"
	"net/http/httptest"
	"strings"
	"testing"

	"ps3/internal/storage"
)

func TestWriteProducesErrorXML(t *testing.T) {
	t.Parallel()
	w := httptest.NewRecorder()
	Write(w, NoSuchBucket)
	if w.Code != 404 {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/xml") {
		t.Fatalf("unexpected content type: %s", ct)
	}

	var parsed struct {
		XMLName xml.Name `xml:"Error"`
		Code    string   `xml:"Code"`
		Message string   `xml:"Message"`
	}
	if err := xml.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if parsed.Code != "NoSuchBucket" {
		t.Fatalf("unexpected code: %s", parsed.Code)
	}
}

func TestWriteInternalErrorIsPlainText(t *testing.T) {
	t.Parallel()
	w := httptest.NewRecorder()
	WriteInternalError(w)
	if w.Code != 500 {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "<Error>") {
		t.Fatalf("expected plain text body, got %q", w.Body.String())
	}
}

func TestMapError(t *testing.T) {
	t.Parallel()
	cases := []struct {
		err  error
		code string
	}{
		{storage.ErrBucketExists, "BucketAlreadyExists"},
		{storage.ErrNoSuchBucket, "NoSuchBucket"},
		{storage.ErrBucketNotEmpty, "BucketNotEmpty"},
		{storage.ErrNoSuchKey, "NoSuchKey"},
	}
	for _, c := range cases {
		apiErr, ok := MapError(c.err)
		if !ok {
			t.Fatalf("expected %v to map to a taxonomy error", c.err)
		}
		if apiErr.Code != c.code {
			t.Fatalf("got %s, want %s", apiErr.Code, c.code)
		}
	}
}

func TestMapErrorFallsThroughForUnknownErrors(t *testing.T) {
	t.Parallel()
	if _, ok := MapError(nil); ok {
		t.Fatalf("expected nil error to fall outside the taxonomy")
	}
}
