package api

import (
	"errors"
	"fmt"
)

// ErrRequestFailed is the only error kind the client reports. Network
// failures, non-2xx statuses, malformed bodies and backend error payloads
// all match it via errors.Is.
var ErrRequestFailed = errors.New("request failed")

// RequestError carries the detail of a failed call for the diagnostic log.
type RequestError struct {
	Op        string // client operation, e.g. "insights"
	Method    string
	URL       string
	Status    int    // HTTP status, 0 if no response was received
	RequestID string // value sent as X-Request-ID
	Err       error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s %s: status %d: %v", e.Op, e.Method, e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Method, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Is makes every RequestError match ErrRequestFailed.
func (e *RequestError) Is(target error) bool {
	return target == ErrRequestFailed
}
