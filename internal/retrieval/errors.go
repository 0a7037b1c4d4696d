package retrieval

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies an upstream failure for the HTTP facade.
type Kind int

const (
	KindBadRequest Kind = iota
	KindUnauthorized
	KindNotFound
	KindServerError
	KindTimeout
	KindUnreachable
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindServerError:
		return "server_error"
	case KindTimeout:
		return "timeout"
	case KindUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Error is a tagged upstream failure. StatusCode and Body hold the upstream
// response verbatim when one was received, so the facade can pass it through.
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("retrieval %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("retrieval %s: %s: upstream status %d", e.Op, e.Kind, e.StatusCode)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func classifyStatus(status int) Kind {
	switch {
	case status == 401 || status == 403:
		return KindUnauthorized
	case status == 404:
		return KindNotFound
	case status >= 500:
		return KindServerError
	default:
		return KindBadRequest
	}
}

func wrapTransport(op string, err error) *Error {
	kind := KindUnreachable
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		kind = KindTimeout
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
