//go:build tinygo && baremetal && !rp2040 && !rp2350

package hal

import "machine"

type stubHAL struct {
	logger *serialLogger
}

// New returns a HAL for boards without a supported array. The logger writes to
// the default serial port; NVM calls fail.
func New() HAL {
	return &stubHAL{logger: &serialLogger{s: machine.Serial}}
}

func (h *stubHAL) Logger() Logger         { return h.logger }
func (h *stubHAL) LED() Pin               { return nullPin{} }
func (h *stubHAL) Interrupts() Interrupts { return coreInterrupts{} }
func (h *stubHAL) NVM() NVM               { return stubNVM{} }
func (h *stubHAL) NVMInfo() NVMInfo       { return NVMInfo{} }
