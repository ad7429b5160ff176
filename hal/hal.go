package hal

import "errors"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// Pin is a minimal output pin abstraction (LEDs, chip selects).
type Pin interface {
	High()
	Low()
}

var ErrNotImplemented = errors.New("not implemented")

// ProgramKey unlocks the vendor program and fill primitives.
const ProgramKey uint32 = 0x12344321

// WordSize is the unit the program and fill primitives operate on.
const WordSize = 4

// ErasedWord is the content of an erased word.
const ErasedWord uint32 = 0xFFFFFFFF

// Programmer is the vendor primitive that programs and fills the array.
//
// Addresses are absolute (base of the array included). Both calls return
// StatusOK or a vendor-defined code; they never partially report success.
type Programmer interface {
	Program(key uint32, src []uint32, dst uintptr, words int) Status
	Fill(key uint32, pattern uint32, dst uintptr, words int) Status
}

// MemoryMap gives read access to the array.
//
// On-chip memories are mapped into the address space and never fail;
// bus-attached ones may.
type MemoryMap interface {
	Load(dst []byte, addr uintptr) error
}

// NVM is a non-volatile memory array: directly readable, programmable
// through the vendor primitive.
type NVM interface {
	Programmer
	MemoryMap
}

// Array is an NVM that knows where it is mapped and how large it is. Host
// backends implement it so a HAL can describe them.
type Array interface {
	NVM
	Base() uintptr
	Size() int64
}

// IRQState is the interrupt-enable state captured by Interrupts.Disable.
type IRQState uintptr

// Interrupts masks and restores maskable interrupts on the executing core.
type Interrupts interface {
	Disable() IRQState
	Restore(state IRQState)
}

// NVMInfo is the static description of the on-board array.
type NVMInfo struct {
	Base           uintptr
	Size           int64
	WriteBlockSize int64
	EraseBlockSize int64
}

// Flash provides raw access to non-volatile memory.
//
// It is intentionally low-level: addresses and erase blocks only.
type Flash interface {
	SizeBytes() uint32
	EraseBlockBytes() uint32
	ReadAt(p []byte, off uint32) (int, error)
	WriteAt(p []byte, off uint32) (int, error)
	Erase(off, size uint32) error
}

// HAL provides the only contact point between the drivers and the hardware.
type HAL interface {
	Logger() Logger
	LED() Pin
	Interrupts() Interrupts
	NVM() NVM
	NVMInfo() NVMInfo
}
