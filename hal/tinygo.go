//go:build tinygo && baremetal && (rp2040 || rp2350)

package hal

import (
	"machine"
)

type tinyGoHAL struct {
	logger *serialLogger
	led    *pinLED
	irq    coreInterrupts
	nvm    rp2NVM
}

// New returns a Pico / Pico 2 HAL implementation.
//
// UART: UART0 on GP0 (TX) / GP1 (RX), 115200 8N1. The array is the flash
// data region behind the program image.
func New() HAL {
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})

	ledPin := machine.LED
	ledPin.Configure(machine.PinConfig{Mode: machine.PinOutput})

	return &tinyGoHAL{
		logger: &serialLogger{s: uart},
		led:    &pinLED{pin: ledPin},
		nvm:    newRP2NVM(),
	}
}

func (h *tinyGoHAL) Logger() Logger         { return h.logger }
func (h *tinyGoHAL) LED() Pin               { return h.led }
func (h *tinyGoHAL) Interrupts() Interrupts { return h.irq }
func (h *tinyGoHAL) NVM() NVM               { return h.nvm }

func (h *tinyGoHAL) NVMInfo() NVMInfo {
	return NVMInfo{
		Base:           h.nvm.base,
		Size:           machine.Flash.Size(),
		WriteBlockSize: machine.Flash.WriteBlockSize(),
		EraseBlockSize: machine.Flash.EraseBlockSize(),
	}
}
