package sandbox

import "errors"

// Sandbox-only errors, surfaced to callers of the registry API. None of
// these are part of the storage error taxonomy; the memory backend returns
// them unchanged and the S3 adapter answers them with a generic 500.
var (
	ErrNotFound        = errors.New("sandbox: not found")
	ErrAlreadyOwner    = errors.New("sandbox: already owner")
	ErrAlreadyAllowed  = errors.New("sandbox: already allowed")
	ErrAlreadyShared   = errors.New("sandbox: already shared")
	ErrNotOwner        = errors.New("sandbox: not owner")
	ErrUnavailable     = errors.New("sandbox: unavailable")
	ErrStartOwnerTimeout = errors.New("sandbox: start_owner timed out waiting for checkout")
	ErrInvalidMetadata = errors.New("sandbox: invalid encoded metadata")
)
