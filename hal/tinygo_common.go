//go:build tinygo && baremetal

package hal

import (
	"machine"
	"runtime/interrupt"
	"unsafe"
)

type serialLogger struct {
	s machine.Serialer
}

func (l *serialLogger) WriteLineString(s string) {
	for i := 0; i < len(s); i++ {
		l.s.WriteByte(s[i])
	}
	l.s.WriteByte('\r')
	l.s.WriteByte('\n')
}

func (l *serialLogger) WriteLineBytes(b []byte) {
	for i := 0; i < len(b); i++ {
		l.s.WriteByte(b[i])
	}
	l.s.WriteByte('\r')
	l.s.WriteByte('\n')
}

type pinLED struct {
	pin machine.Pin
}

func (l *pinLED) High() { l.pin.High() }
func (l *pinLED) Low()  { l.pin.Low() }

type nullPin struct{}

func (nullPin) High() {}
func (nullPin) Low()  {}

// coreInterrupts masks interrupts on the executing core (PRIMASK on Cortex-M).
type coreInterrupts struct{}

func (coreInterrupts) Disable() IRQState {
	return IRQState(interrupt.Disable())
}

func (coreInterrupts) Restore(state IRQState) {
	interrupt.Restore(interrupt.State(state))
}

// mappedMemory reads the array through the processor's address space.
type mappedMemory struct{}

func (mappedMemory) Load(dst []byte, addr uintptr) error {
	if len(dst) == 0 {
		return nil
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(addr)), len(dst))
	copy(dst, src)
	return nil
}
