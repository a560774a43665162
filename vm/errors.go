package vm

import (
	"errors"
	"fmt"

	"ember/types"
)

var (
	// ErrDestroyed is returned by every call on a destroyed VM
	ErrDestroyed = errors.New("vm destroyed")
	// ErrInteractive is returned when cloning an interactive VM
	ErrInteractive = errors.New("interactive vm cannot be cloned")
	// ErrBusy is returned when a host entry point is re-entered while running
	ErrBusy = errors.New("vm is busy")
	// ErrNoCode is returned by Start before anything was compiled
	ErrNoCode = errors.New("no compiled code")
	// ErrUnknownEvent is returned when posting a deleted or foreign event
	ErrUnknownEvent = errors.New("unknown event")
	// ErrAddon wraps failures of builtin module and addon hooks
	ErrAddon = errors.New("addon initialization failed")
)

// ErrorKind classifies errors surfaced to the host
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindMemory
	KindUnhandledRejection
	KindAddon
)

func (k ErrorKind) String() string {
	switch k {
	case KindRuntime:
		return "runtime"
	case KindMemory:
		return "memory"
	case KindUnhandledRejection:
		return "unhandled rejection"
	case KindAddon:
		return "addon"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a script exception that reached the host. Value is the thrown
// value, also left in the exception slot.
type Error struct {
	Kind    ErrorKind
	Message string
	Value   types.Value
}

func (e *Error) Error() string {
	return e.Message
}

// IsMemory reports whether err is an out-of-memory error
func IsMemory(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindMemory
}
