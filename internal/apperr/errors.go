/*
 * file: errors.go
 * package: apperr
 * description:
 *     Typed error kinds shared across the game-coordination kernel. The
 *     protocol boundary collapses every kind to a bare NACK; these types
 *     exist so the dispatcher and logs can tell them apart.
 */

package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation failed.
type Kind int

const (
	IllegalState Kind = iota
	NotFound
	Conflict
	IllegalMove
	CapacityExceeded
	IO
)

func (k Kind) String() string {
	switch k {
	case IllegalState:
		return "illegal_state"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case IllegalMove:
		return "illegal_move"
	case CapacityExceeded:
		return "capacity_exceeded"
	case IO:
		return "io"
	default:
		return "unknown"
	}
}

// Error wraps an optional underlying cause with a Kind so callers can
// branch with errors.As while the dispatcher only needs the Kind to
// decide ACK vs NACK.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with no wrapped cause.
func New(op string, kind Kind) error {
	return &Error{Op: op, Kind: kind}
}

// Wrap builds an *Error carrying an underlying cause.
func Wrap(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf extracts the Kind from err, defaulting to IO for errors that
// did not originate from this package (e.g. raw socket errors).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return IO
}
