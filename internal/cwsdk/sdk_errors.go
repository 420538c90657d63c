package cwsdk

import (
	"errors"
	"fmt"

	"resty.dev/v3"
)

var (
	ErrNoServerURL  = errors.New("cwsdk: server url missing")
	ErrPairNotFound = errors.New("cwsdk: pair not found")
	ErrPinExpired   = errors.New("cwsdk: plex pin expired")
	ErrStreamClosed = errors.New("cwsdk: stream closed")
)

const (
	CodeInvalidRequest = "E_INVALID_REQUEST" // bad or invalid request
	CodeNotFound       = "E_NOT_FOUND"       // resource not found
	CodeRateLimited    = "E_RATE_LIMITED"    // rate limit exceeded
	CodeInternalError  = "E_INTERNAL_ERROR"  // internal server error
	CodeUnknownError   = "E_UNKNOWN_ERR"     // unknown error
)

// APIError represents a structured CrossWatch backend error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cwsdk: api error: %s: %s", e.Code, e.Message)
}

// handleAPIError folds transport and backend errors into one return value.
func handleAPIError(res *resty.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("cwsdk: %s: %w", op, err)
	}
	if res.IsError() {
		if apiErr, ok := res.Error().(*APIError); ok && apiErr.Code != "" {
			return fmt.Errorf("cwsdk: %s: %w", op, apiErr)
		}
		return fmt.Errorf("cwsdk: %s: http %d: %s", op, res.StatusCode(), res.String())
	}
	return nil
}
