package fetch

import "errors"

// Fetch errors. Callers classify any fetch failure as a transfer error.
var (
	// ErrStatus is returned for a non-2xx response.
	ErrStatus = errors.New("unexpected status")
	// ErrNoContentLength is returned when a streamed resource does not declare its size.
	ErrNoContentLength = errors.New("response has no content length")
)
