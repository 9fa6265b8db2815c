package command

import (
	"errors"
	"fmt"
)

// Kind classifies why a command failed.
type Kind string

const (
	KindConnection Kind = "connection"
	KindTimeout    Kind = "timeout"
	KindStatus     Kind = "status"
	KindDecode     Kind = "decode"
	KindEncode     Kind = "encode"
)

// Sentinel errors matched by errors.Is against an *Error of the same kind.
var (
	ErrConnection = errors.New("connection failed")
	ErrTimeout    = errors.New("request timed out")
	ErrStatus     = errors.New("unexpected status")
	ErrDecode     = errors.New("malformed response body")
	ErrEncode     = errors.New("unencodable request body")
)

// Error is the failure of a single command.
type Error struct {
	Kind       Kind
	Method     string
	URL        string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("%s %s: bad status %d: %s", e.Method, e.URL, e.StatusCode, bodySnippet(e.Body))
	case KindDecode:
		return fmt.Sprintf("%s %s: decode response: %v", e.Method, e.URL, e.Err)
	case KindEncode:
		return fmt.Sprintf("%s %s: encode request: %v", e.Method, e.URL, e.Err)
	default:
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.URL, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the sentinel that corresponds to e.Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrConnection:
		return e.Kind == KindConnection
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrStatus:
		return e.Kind == KindStatus
	case ErrDecode:
		return e.Kind == KindDecode
	case ErrEncode:
		return e.Kind == KindEncode
	}
	return false
}

func bodySnippet(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
