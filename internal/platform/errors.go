package platform

import (
	"errors"
	"fmt"
)

// Kind classifies a failed platform call.
type Kind int

const (
	// KindOther covers network, rate limit and unknown failures.
	KindOther Kind = iota
	// KindNotFound: the target is already gone.
	KindNotFound
	// KindForbidden: the bot lacks permission.
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	default:
		return "other"
	}
}

var (
	// ErrNotFound matches errors of KindNotFound.
	ErrNotFound = errors.New("platform: not found")
	// ErrForbidden matches errors of KindForbidden.
	ErrForbidden = errors.New("platform: forbidden")
)

// Error is a platform call failure decoded at the client boundary.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindNotFound:
		return target == ErrNotFound
	case KindForbidden:
		return target == ErrForbidden
	}
	return false
}

// NewError creates a platform error of the given kind.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf classifies any error; errors not produced by a client are KindOther.
func KindOf(err error) Kind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	}
	return KindOther
}
