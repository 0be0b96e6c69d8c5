package wallet

import "errors"

var (
	// ErrServiceNotReady means no wallet context has been registered for
	// the requested network. Local and non-retryable until StartService
	// completes.
	ErrServiceNotReady = errors.New("wallet service not ready for network")

	// ErrInvalidArguments means the caller passed an empty message or an
	// unknown network identifier.
	ErrInvalidArguments = errors.New("invalid arguments")

	// ErrServiceStart wraps connectivity or initialization failures during
	// StartService. The caller may retry the whole start.
	ErrServiceStart = errors.New("wallet service failed to start")
)
