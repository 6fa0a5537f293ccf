package core

import (
	"errors"
	"fmt"
)

var (
	// ErrFull is returned by Create when every slot is active
	ErrFull = errors.New("entity table full")

	// ErrOutOfRange is returned when a raw id is not below Capacity
	ErrOutOfRange = errors.New("entity id out of range")

	// ErrInactive is returned when a raw id names a slot that is not active
	ErrInactive = errors.New("entity not active")

	// ErrStopped is returned by blocking pipeline calls once the pipeline stops
	ErrStopped = errors.New("pipeline stopped")

	// ErrHandshakeTimeout is returned when a completion wait exceeds its deadline
	ErrHandshakeTimeout = errors.New("handshake timed out")

	// ErrShutdownTimeout is returned when workers fail to join within the shutdown bound
	ErrShutdownTimeout = errors.New("shutdown timed out")
)

// PanicError carries a recovered worker panic and the stack at the point of recovery
type PanicError struct {
	Worker string
	Value  any
	Stack  []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s worker panicked: %v", e.Worker, e.Value)
}
