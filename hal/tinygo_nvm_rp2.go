//go:build tinygo && baremetal && (rp2040 || rp2350)

package hal

import (
	"encoding/binary"
	"machine"
)

// rp2NVM drives the XIP flash data region through machine.Flash.
//
// machine.Flash offsets are relative to the data region start; reads go
// through the XIP mapping directly.
type rp2NVM struct {
	mappedMemory
	base uintptr
}

func newRP2NVM() rp2NVM {
	return rp2NVM{base: machine.FlashDataStart()}
}

func (n rp2NVM) offset(dst uintptr, words int) (int64, Status) {
	if dst%WordSize != 0 {
		return 0, StatusUnaligned
	}
	if dst < n.base || int64(dst-n.base)+int64(words)*WordSize > machine.Flash.Size() {
		return 0, StatusBadAddress
	}
	return int64(dst - n.base), StatusOK
}

func (n rp2NVM) Program(key uint32, src []uint32, dst uintptr, words int) Status {
	if key != ProgramKey {
		return StatusBadKey
	}
	if words > len(src) {
		return StatusBadAddress
	}
	off, s := n.offset(dst, words)
	if !s.OK() {
		return s
	}
	buf := make([]byte, words*WordSize)
	for i := 0; i < words; i++ {
		binary.LittleEndian.PutUint32(buf[i*WordSize:], src[i])
	}
	if _, err := machine.Flash.WriteAt(buf, off); err != nil {
		return StatusBus
	}
	return StatusOK
}

func (n rp2NVM) Fill(key uint32, pattern uint32, dst uintptr, words int) Status {
	if key != ProgramKey {
		return StatusBadKey
	}
	off, s := n.offset(dst, words)
	if !s.OK() {
		return s
	}
	size := int64(words) * WordSize
	if size == 0 {
		return StatusOK
	}

	bs := machine.Flash.EraseBlockSize()
	if pattern == ErasedWord {
		if off%bs != 0 || size%bs != 0 {
			return StatusUnaligned
		}
		if err := machine.Flash.EraseBlocks(off/bs, size/bs); err != nil {
			return StatusBus
		}
		return StatusOK
	}

	buf := make([]byte, size)
	for i := 0; i < words; i++ {
		binary.LittleEndian.PutUint32(buf[i*WordSize:], pattern)
	}
	if _, err := machine.Flash.WriteAt(buf, off); err != nil {
		return StatusBus
	}
	return StatusOK
}
