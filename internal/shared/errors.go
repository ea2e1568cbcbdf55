package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Stream pipeline errors
	ErrInvalidVideoID     = fmt.Errorf("invalid video ID")
	ErrUpstreamFetch      = fmt.Errorf("upstream fetch failed")
	ErrDownloadIncomplete = fmt.Errorf("download incomplete")
	ErrTranscodeFailed    = fmt.Errorf("transcode failed")

	// Storage errors
	ErrNotFound = fmt.Errorf("not found")
	ErrStorage  = fmt.Errorf("storage operation failed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
