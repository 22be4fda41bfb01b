// Package s3err maps storage errors onto the S3 wire error format: a
// uniform XML document for known taxonomy errors, and a plain-text body
// for anything else.
package s3err

import (
	"encoding/xml"
	"errors"
	"net/http"

	"ps3/internal/storage"
)

// APIError is a named entry in the error taxonomy.
type APIError struct {
	Code       string
	Message    string
	StatusCode int
}

func (e APIError) Error() string {
	return e.Code + ": " + e.Message
}

var (
	BucketAlreadyExists = APIError{Code: "BucketAlreadyExists", Message: "The requested bucket name already exists.", StatusCode: http.StatusConflict}
	NoSuchBucket        = APIError{Code: "NoSuchBucket", Message: "The specified bucket does not exist.", StatusCode: http.StatusNotFound}
	BucketNotEmpty      = APIError{Code: "BucketNotEmpty", Message: "The bucket you tried to delete is not empty.", StatusCode: http.StatusConflict}
	NoSuchKey           = APIError{Code: "NoSuchKey", Message: "The specified key does not exist.", StatusCode: http.StatusNotFound}
)

type errorDocument struct {
	XMLName xml.Name `xml:"Error"`
	Code    string   `xml:"Code"`
	Message string   `xml:"Message"`
}

// Write emits the uniform XML error document for a taxonomy error.
func Write(w http.ResponseWriter, apiErr APIError) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(apiErr.StatusCode)
	_, _ = w.Write([]byte(xml.Header))
	_ = xml.NewEncoder(w).Encode(errorDocument{Code: apiErr.Code, Message: apiErr.Message})
}

// WriteInternalError emits the plain-text 500 body used for any failure
// outside the taxonomy; backend-specific error text is never leaked.
func WriteInternalError(w http.ResponseWriter) {
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// WriteNotFound emits the plain-text 404 body used for unmatched routes.
func WriteNotFound(w http.ResponseWriter) {
	http.Error(w, "Not Found", http.StatusNotFound)
}

// MapError resolves err to a taxonomy APIError. ok is false when err falls
// outside the taxonomy, in which case the caller should use
// WriteInternalError rather than Write.
func MapError(err error) (apiErr APIError, ok bool) {
	switch {
	case errors.Is(err, storage.ErrBucketExists):
		return BucketAlreadyExists, true
	case errors.Is(err, storage.ErrNoSuchBucket):
		return NoSuchBucket, true
	case errors.Is(err, storage.ErrBucketNotEmpty):
		return BucketNotEmpty, true
	case errors.Is(err, storage.ErrNoSuchKey):
		return NoSuchKey, true
	default:
		return APIError{}, false
	}
}
