package catapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

// User-facing messages. These are the only thing that crosses the gateway
// boundary; callers never see the typed errors below.
const (
	MsgEmptyResult  = "No cat images found"
	MsgNetwork      = "Network error. Please check your internet connection"
	msgHTTPPrefix   = "Failed to fetch cat images: "
	msgUnexpected   = "An unexpected error occurred: "
	msgUnknownError = "Unknown error"
)

// ErrEmptyResult indicates a successful response that carried no images.
var ErrEmptyResult = errors.New("no cat images found")

// HTTPError indicates a non-2xx response.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.URL)
}

// NetworkError indicates a transport failure: connection, DNS or timeout.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// UnexpectedError wraps anything that is neither an HTTP nor a network failure.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string {
	if e.Err == nil {
		return "unexpected error"
	}
	return e.Err.Error()
}

func (e *UnexpectedError) Unwrap() error { return e.Err }

// Class is the coarse error category, used for metrics and log sampling keys.
type Class string

const (
	ClassNone       Class = "none"
	ClassHTTP       Class = "http"
	ClassNetwork    Class = "network"
	ClassEmpty      Class = "empty"
	ClassUnexpected Class = "unexpected"
)

// Classify returns the category of err.
func Classify(err error) Class {
	if err == nil {
		return ClassNone
	}
	var httpErr *HTTPError
	var netErr *NetworkError
	switch {
	case errors.Is(err, ErrEmptyResult):
		return ClassEmpty
	case errors.As(err, &httpErr):
		return ClassHTTP
	case errors.As(err, &netErr):
		return ClassNetwork
	default:
		return ClassUnexpected
	}
}

// Message collapses err into the string published in GalleryState.Error.
func Message(err error) string {
	var httpErr *HTTPError
	switch Classify(err) {
	case ClassNone:
		return ""
	case ClassEmpty:
		return MsgEmptyResult
	case ClassHTTP:
		errors.As(err, &httpErr)
		return fmt.Sprintf("%s%d", msgHTTPPrefix, httpErr.StatusCode)
	case ClassNetwork:
		return MsgNetwork
	}

	text := err.Error()
	var unexpected *UnexpectedError
	if errors.As(err, &unexpected) && unexpected.Err != nil {
		text = unexpected.Err.Error()
	}
	if strings.TrimSpace(text) == "" {
		text = msgUnknownError
	}
	return msgUnexpected + text
}

// classifyTransportError wraps an error returned by http.Client.Do.
func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return &UnexpectedError{Err: err}
	}
	if isNetworkFailure(err) {
		return &NetworkError{Err: err}
	}
	return &UnexpectedError{Err: err}
}

func isNetworkFailure(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "tls handshake")
}
