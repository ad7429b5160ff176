//go:build !tinygo

package hal

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"tinygo.org/x/drivers"
)

const (
	spiMRAMDefaultSize  = 512 * 1024 // MR25H40
	spiMRAMDefaultClock = 10 * physic.MegaHertz
)

type periphSPI struct {
	c spi.Conn
}

// NewPeriphSPI adapts a periph.io SPI connection (Linux spidev, FTDI
// bridges) to the drivers.SPI interface used by SPIMRAM.
func NewPeriphSPI(c spi.Conn) drivers.SPI {
	return periphSPI{c: c}
}

func (p periphSPI) Tx(w, r []byte) error {
	if r == nil {
		r = make([]byte, len(w))
	}
	return p.c.Tx(w, r)
}

func (p periphSPI) Transfer(b byte) (byte, error) {
	r := []byte{0}
	if err := p.c.Tx([]byte{b}, r); err != nil {
		return 0, err
	}
	return r[0], nil
}

// PinOut is the part of gpio.PinOut a chip select needs.
type PinOut interface {
	Out(l gpio.Level) error
}

type periphPin struct {
	p PinOut
}

// NewPeriphPin adapts a periph.io output pin to Pin. Errors from the pin are
// dropped; a chip select that cannot be driven shows up as a bus fault.
func NewPeriphPin(p PinOut) Pin {
	return periphPin{p: p}
}

func (p periphPin) High() { _ = p.p.Out(gpio.High) }

func (p periphPin) Low() { _ = p.p.Out(gpio.Low) }

// PeriphMRAM is an SPIMRAM on a periph.io SPI port it owns.
type PeriphMRAM struct {
	*SPIMRAM
	port spi.PortCloser
}

// OpenPeriphMRAM opens the SPI port registered under port (for example
// "/dev/spidev0.0" once periph host drivers are loaded) in mode 0 and
// returns an array of size bytes mapped at base.
//
// cs names a GPIO used as chip select. If empty, the port drives chip select
// itself for every transaction.
func OpenPeriphMRAM(port, cs string, base uintptr, size int64, clock physic.Frequency) (*PeriphMRAM, error) {
	var pin Pin = nullCS{}
	if cs != "" {
		p := gpioreg.ByName(cs)
		if p == nil {
			return nil, fmt.Errorf("spi mram: no gpio %q", cs)
		}
		pin = NewPeriphPin(p)
	}

	pc, err := spireg.Open(port)
	if err != nil {
		return nil, fmt.Errorf("spi mram: open %s: %w", port, err)
	}
	c, err := pc.Connect(clock, spi.Mode0, 8)
	if err != nil {
		_ = pc.Close()
		return nil, fmt.Errorf("spi mram: connect %s: %w", port, err)
	}
	m, err := NewSPIMRAM(NewPeriphSPI(c), pin, base, size)
	if err != nil {
		_ = pc.Close()
		return nil, err
	}
	return &PeriphMRAM{SPIMRAM: m, port: pc}, nil
}

// Close releases the SPI port.
func (m *PeriphMRAM) Close() error {
	return m.port.Close()
}

// openEnvSPI opens the array described by NVFLASH_SPI_CS and
// NVFLASH_SPI_SIZE on port.
func openEnvSPI(port string, base uintptr) (*PeriphMRAM, error) {
	size := int64(spiMRAMDefaultSize)
	if v := os.Getenv("NVFLASH_SPI_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("NVFLASH_SPI_SIZE: %w", err)
		}
		size = n
	}
	if port == "" {
		return nil, errors.New("spi mram: empty port name")
	}
	return OpenPeriphMRAM(port, os.Getenv("NVFLASH_SPI_CS"), base, size, spiMRAMDefaultClock)
}

type nullCS struct{}

func (nullCS) High() {}
func (nullCS) Low()  {}
