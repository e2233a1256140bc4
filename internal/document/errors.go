package document

import "errors"

var (
	// ErrCommandRejected is returned when a command does not apply in the current context.
	ErrCommandRejected = errors.New("command rejected")
	// ErrDetached is returned for updates addressed to a node that no longer exists.
	ErrDetached    = errors.New("node detached")
	ErrOutOfRange  = errors.New("position out of range")
	ErrUnknownType = errors.New("unknown node type")
)
