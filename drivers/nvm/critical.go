package nvm

import "nvflash/hal"

// criticalSection masks interrupts for the lifetime of the value.
//
// exit restores the state captured on entry, not "enabled", so nesting
// inside a caller that already masked interrupts leaves them masked.
type criticalSection struct {
	irq   hal.Interrupts
	prior hal.IRQState
}

func enterCritical(irq hal.Interrupts) criticalSection {
	return criticalSection{irq: irq, prior: irq.Disable()}
}

func (cs criticalSection) exit() {
	cs.irq.Restore(cs.prior)
}
