//go:build !tinygo || !baremetal

package hal

import "sync/atomic"

const (
	irqMasked  IRQState = 0
	irqEnabled IRQState = 1
)

// HostInterrupts models the global interrupt-enable flag of a single core.
type HostInterrupts struct {
	enabled  atomic.Bool
	disables atomic.Uint64
}

// NewHostInterrupts returns a controller with interrupts enabled.
func NewHostInterrupts() *HostInterrupts {
	irq := &HostInterrupts{}
	irq.enabled.Store(true)
	return irq
}

// Disable masks interrupts and returns the prior state.
func (irq *HostInterrupts) Disable() IRQState {
	irq.disables.Add(1)
	if irq.enabled.Swap(false) {
		return irqEnabled
	}
	return irqMasked
}

// Restore sets the interrupt-enable flag from a state returned by Disable.
func (irq *HostInterrupts) Restore(state IRQState) {
	irq.enabled.Store(state == irqEnabled)
}

// Enabled reports whether interrupts are currently enabled.
func (irq *HostInterrupts) Enabled() bool { return irq.enabled.Load() }

// SetEnabled forces the interrupt-enable flag.
func (irq *HostInterrupts) SetEnabled(on bool) { irq.enabled.Store(on) }

// Disables returns how many times Disable was called.
func (irq *HostInterrupts) Disables() uint64 { return irq.disables.Load() }
