package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/easyhttp/packages/capture"
	easyhttp "github.com/abdul-hamid-achik/easyhttp/packages/http"
	"github.com/abdul-hamid-achik/easyhttp/packages/stress"
)

// Exit codes for the easyhttp CLI
const (
	// ExitSuccess indicates the request (or run) succeeded
	ExitSuccess = 0

	// ExitFailure indicates an error status, a failed check or a failed threshold
	ExitFailure = 1

	// ExitRequestError indicates the request could not be built
	ExitRequestError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

var (
	errUsage  = errors.New("usage")
	errConfig = errors.New("config")
	// errFailed marks a completed exchange that did not pass a check.
	errFailed = errors.New("check failed")
)

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errUsage):
		return ExitUsageError
	case errors.Is(err, errConfig), errors.Is(err, stress.ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, easyhttp.ErrTransport):
		return ExitNetworkError
	case errors.Is(err, easyhttp.ErrInvalidURL), errors.Is(err, easyhttp.ErrEncode), errors.Is(err, capture.ErrCapture):
		return ExitRequestError
	default:
		return ExitFailure
	}
}
