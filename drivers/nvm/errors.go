package nvm

import (
	"errors"
	"fmt"

	"nvflash/hal"
)

var (
	// ErrInvalidRange indicates an offset/length outside the region, or a
	// write/erase that is not word aligned.
	ErrInvalidRange = errors.New("nvm: invalid range")
	// ErrProgramFailed indicates the program primitive reported an error.
	ErrProgramFailed = errors.New("nvm: program failed")
	// ErrEraseFailed indicates the fill primitive reported an error.
	ErrEraseFailed = errors.New("nvm: erase failed")
	// ErrReadFailed indicates a bus-attached array could not be read.
	ErrReadFailed = errors.New("nvm: read failed")
	// ErrInvalidConfig indicates a geometry that violates the region invariants.
	ErrInvalidConfig = errors.New("nvm: invalid config")
	// ErrNoPageLayout indicates the page layout capability is disabled.
	ErrNoPageLayout = errors.New("nvm: page layout not enabled")
)

// RangeError describes a rejected request.
type RangeError struct {
	Op        string
	Off       int64
	Len       int64
	Size      int64
	Unaligned bool
}

func (e *RangeError) Error() string {
	if e.Unaligned {
		return fmt.Sprintf("nvm: %s off=%d len=%d: not a multiple of %d bytes", e.Op, e.Off, e.Len, WordSize)
	}
	return fmt.Sprintf("nvm: %s off=%d len=%d: outside region of %d bytes", e.Op, e.Off, e.Len, e.Size)
}

func (e *RangeError) Unwrap() error { return ErrInvalidRange }

// StatusError carries the status code of a failed primitive.
type StatusError struct {
	Op     string
	Addr   uintptr
	Words  int
	Status hal.Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("nvm: %s at 0x%x (%d words): %s", e.Op, e.Addr, e.Words, e.Status)
}

func (e *StatusError) Unwrap() error {
	if e.Op == opErase {
		return ErrEraseFailed
	}
	return ErrProgramFailed
}

const (
	opRead  = "read"
	opWrite = "write"
	opErase = "erase"
)
