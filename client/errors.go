package gateway_client

import (
	"errors"
	"fmt"
	"strings"
)

// Typed errors for the gateway's response classes. Operations branch on
// these with errors.As; everything else is wrapped with eris and treated as
// a plain fault.

// AuthenticationError means the login endpoint answered without a usable
// bearer token.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// UnauthorizedError is an HTTP 401. The client retries the call once after
// re-authenticating; if this error reaches a caller the retry already
// happened.
type UnauthorizedError struct {
	Challenge string // WWW-Authenticate header text
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("401 Unauthorized: %s", e.Challenge)
}

// BadRequestError carries the gateway's concatenated error messages for an
// HTTP 400.
type BadRequestError struct {
	Messages []string
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("400 Bad Request, errors: %s", strings.Join(e.Messages, ", "))
}

// ForbiddenError carries the gateway's concatenated error messages for an
// HTTP 403.
type ForbiddenError struct {
	Messages []string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("403 Forbidden, errors: %s", strings.Join(e.Messages, ", "))
}

// NotFoundError carries the gateway's message field for an HTTP 404.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("404 Error: %q", e.Message)
}

// HTTPError is any other unclassified status code, with the raw body for
// diagnostics.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unhandled HTTP response code %d: %q", e.StatusCode, e.Body)
}

// ErrorClass names the error's classification for structured failure
// descriptors handed to callbacks. Empty for untyped errors.
func ErrorClass(err error) string {
	var (
		authErr      *AuthenticationError
		unauthorized *UnauthorizedError
		badRequest   *BadRequestError
		forbidden    *ForbiddenError
		notFound     *NotFoundError
		httpErr      *HTTPError
	)
	switch {
	case errors.As(err, &authErr):
		return "AuthenticationFailure"
	case errors.As(err, &unauthorized):
		return "Unauthorized"
	case errors.As(err, &badRequest):
		return "BadRequest"
	case errors.As(err, &forbidden):
		return "Forbidden"
	case errors.As(err, &notFound):
		return "NotFound"
	case errors.As(err, &httpErr):
		return "HTTPError"
	default:
		return ""
	}
}

// IsTerminalSubmissionError reports whether a transport error ends a payment
// workflow. Unauthorized here means the one-shot re-auth retry already
// failed; BadRequest is never retried to avoid double-submitting money
// movement.
func IsTerminalSubmissionError(err error) bool {
	var (
		unauthorized *UnauthorizedError
		badRequest   *BadRequestError
	)
	return errors.As(err, &unauthorized) || errors.As(err, &badRequest)
}
