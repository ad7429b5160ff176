package hal

import (
	"fmt"
	"sync"

	"tinygo.org/x/drivers"
)

// MR25H-style serial MRAM command set.
const (
	mramCmdWRSR  = 0x01 // Write STATUS register
	mramCmdWRITE = 0x02
	mramCmdREAD  = 0x03
	mramCmdWRDI  = 0x04 // Write disable
	mramCmdRDSR  = 0x05 // Read STATUS register
	mramCmdWREN  = 0x06 // Write enable

	mramStatusWEL = 0x02
	mramStatusBP  = 0x0C // block protect bits

	mramHeaderBytes = 4 // opcode + 24-bit address
	mramChunkBytes  = 256
	mramMaxSize     = 1 << 24
)

// SPIMRAM is an external serial MRAM used as the array.
//
// MRAM needs no erase, so Fill is a plain pattern write; Program still
// refuses to run unless the write-enable latch could be set. Bus access is
// serialized internally so that loads do not interleave with programs on
// the wire.
type SPIMRAM struct {
	mu   sync.Mutex
	bus  drivers.SPI
	cs   Pin
	base uintptr
	size int64
}

// NewSPIMRAM returns an array of size bytes on bus, mapped at base.
func NewSPIMRAM(bus drivers.SPI, cs Pin, base uintptr, size int64) (*SPIMRAM, error) {
	if bus == nil || cs == nil {
		return nil, fmt.Errorf("spi mram: nil bus or chip select")
	}
	if size <= 0 || size > mramMaxSize || size%WordSize != 0 {
		return nil, fmt.Errorf("spi mram: invalid size %d", size)
	}
	cs.High()
	return &SPIMRAM{bus: bus, cs: cs, base: base, size: size}, nil
}

// Base returns the address the first byte is mapped at.
func (m *SPIMRAM) Base() uintptr { return m.base }

// Size returns the array size in bytes.
func (m *SPIMRAM) Size() int64 { return m.size }

// Status reads the STATUS register.
func (m *SPIMRAM) Status() (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readStatus()
}

// Unprotect clears the block protect bits.
func (m *SPIMRAM) Unprotect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.tx([]byte{mramCmdWREN}, nil); err != nil {
		return err
	}
	return m.tx([]byte{mramCmdWRSR, 0x00}, nil)
}

func (m *SPIMRAM) Program(key uint32, src []uint32, dst uintptr, words int) Status {
	if key != ProgramKey {
		return StatusBadKey
	}
	if words > len(src) {
		return StatusBadAddress
	}
	off, s := m.offset(dst, words)
	if !s.OK() {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(off, words, func(i int) uint32 { return src[i] })
}

func (m *SPIMRAM) Fill(key uint32, pattern uint32, dst uintptr, words int) Status {
	if key != ProgramKey {
		return StatusBadKey
	}
	off, s := m.offset(dst, words)
	if !s.OK() {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.write(off, words, func(int) uint32 { return pattern })
}

func (m *SPIMRAM) Load(dst []byte, addr uintptr) error {
	if addr < m.base || int64(addr-m.base)+int64(len(dst)) > m.size {
		return fmt.Errorf("spi mram read at 0x%x len %d: out of range", addr, len(dst))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	off := uint32(addr - m.base)
	for len(dst) > 0 {
		n := len(dst)
		if n > mramChunkBytes {
			n = mramChunkBytes
		}
		buf := make([]byte, mramHeaderBytes+n)
		putHeader(buf, mramCmdREAD, off)
		if err := m.tx(buf, buf); err != nil {
			return fmt.Errorf("spi mram read at 0x%x: %w", addr, err)
		}
		copy(dst, buf[mramHeaderBytes:])
		dst = dst[n:]
		off += uint32(n)
		addr += uintptr(n)
	}
	return nil
}

// write must be called with m.mu held.
func (m *SPIMRAM) write(off uint32, words int, word func(int) uint32) Status {
	defer m.tx([]byte{mramCmdWRDI}, nil)

	for i := 0; i < words; {
		n := words - i
		if n > mramChunkBytes/WordSize {
			n = mramChunkBytes / WordSize
		}
		if s := m.writeEnable(); !s.OK() {
			return s
		}
		buf := make([]byte, mramHeaderBytes+n*WordSize)
		putHeader(buf, mramCmdWRITE, off)
		for j := 0; j < n; j++ {
			w := word(i + j)
			p := buf[mramHeaderBytes+j*WordSize:]
			p[0] = byte(w)
			p[1] = byte(w >> 8)
			p[2] = byte(w >> 16)
			p[3] = byte(w >> 24)
		}
		if err := m.tx(buf, nil); err != nil {
			return StatusBus
		}
		i += n
		off += uint32(n * WordSize)
	}
	return StatusOK
}

func (m *SPIMRAM) writeEnable() Status {
	if err := m.tx([]byte{mramCmdWREN}, nil); err != nil {
		return StatusBus
	}
	st, err := m.readStatus()
	if err != nil {
		return StatusBus
	}
	if st&mramStatusWEL == 0 {
		return StatusWriteProtected
	}
	return StatusOK
}

func (m *SPIMRAM) readStatus() (byte, error) {
	buf := []byte{mramCmdRDSR, 0}
	if err := m.tx(buf, buf); err != nil {
		return 0, err
	}
	return buf[1], nil
}

func (m *SPIMRAM) offset(dst uintptr, words int) (uint32, Status) {
	if dst%WordSize != 0 {
		return 0, StatusUnaligned
	}
	if words < 0 || dst < m.base || int64(dst-m.base)+int64(words)*WordSize > m.size {
		return 0, StatusBadAddress
	}
	return uint32(dst - m.base), StatusOK
}

// tx runs one command with chip select asserted.
func (m *SPIMRAM) tx(w, r []byte) error {
	m.cs.Low()
	err := m.bus.Tx(w, r)
	m.cs.High()
	return err
}

func putHeader(buf []byte, cmd byte, off uint32) {
	buf[0] = cmd
	buf[1] = byte(off >> 16)
	buf[2] = byte(off >> 8)
	buf[3] = byte(off)
}
