package s3

import "net/http"

// Operation identifies a resolved S3 API call.
type Operation string

const (
	OperationUnknown      Operation = "Unknown"
	OperationListBuckets  Operation = "ListBuckets"
	OperationCreateBucket Operation = "CreateBucket"
	OperationDeleteBucket Operation = "DeleteBucket"
	OperationHeadBucket   Operation = "HeadBucket"
	OperationListObjects  Operation = "ListObjects"
	OperationBatchDelete  Operation = "BatchDelete"
	OperationPutObject    Operation = "PutObject"
	OperationCopyObject   Operation = "CopyObject"
	OperationGetObject    Operation = "GetObject"
	OperationHeadObject   Operation = "HeadObject"
	OperationDeleteObject Operation = "DeleteObject"
)

// ResolveOperation maps an HTTP method, request target, and query flags to
// the S3 operation that services it.
func ResolveOperation(method string, target RequestTarget, query DispatchQuery, headers http.Header) Operation {
	if target.Bucket == "" {
		if method == http.MethodGet {
			return OperationListBuckets
		}
		return OperationUnknown
	}

	if target.Key == "" {
		switch method {
		case http.MethodPut:
			return OperationCreateBucket
		case http.MethodDelete:
			return OperationDeleteBucket
		case http.MethodHead:
			return OperationHeadBucket
		case http.MethodGet:
			return OperationListObjects
		case http.MethodPost:
			if query.HasDelete {
				return OperationBatchDelete
			}
			return OperationUnknown
		}
		return OperationUnknown
	}

	switch method {
	case http.MethodPut:
		if headers.Get("X-Amz-Copy-Source") != "" {
			return OperationCopyObject
		}
		return OperationPutObject
	case http.MethodGet:
		return OperationGetObject
	case http.MethodHead:
		return OperationHeadObject
	case http.MethodDelete:
		return OperationDeleteObject
	default:
		return OperationUnknown
	}
}
