package nvm

import (
	"fmt"

	"nvflash/hal"
)

// WordSize is the granularity of the program and fill primitives.
const WordSize = hal.WordSize

// DefaultEraseValue is the byte an erased array reads back as.
const DefaultEraseValue = 0xFF

// Config is the static description of one array.
type Config struct {
	// Base is the address the first byte of the region is mapped at.
	Base uintptr
	// Size is the region size in bytes.
	Size int64
	// WriteBlockSize is the minimum program unit reported to callers.
	WriteBlockSize int64
	// EraseBlockSize is the page size.
	EraseBlockSize int64
	// EraseValue is the byte value of erased memory.
	EraseValue byte

	// PageLayout enables the page layout accessors.
	PageLayout bool
	// MaskIRQOnErase runs erases inside the interrupt-masked critical
	// section as well. Off by default, matching Apollo MRAM.
	MaskIRQOnErase bool
	// SerializeReads makes reads wait for an in-flight write or erase.
	SerializeReads bool
}

// Apollo4P describes the application MRAM of an Ambiq Apollo4 Plus, above
// the secure bootloader.
var Apollo4P = Config{
	Base:           0x00018000,
	Size:           0x1E8000,
	WriteBlockSize: 16,
	EraseBlockSize: 8192,
	EraseValue:     DefaultEraseValue,
	PageLayout:     true,
}

// ConfigFromInfo builds a Config from a board description.
func ConfigFromInfo(info hal.NVMInfo) Config {
	return Config{
		Base:           info.Base,
		Size:           info.Size,
		WriteBlockSize: info.WriteBlockSize,
		EraseBlockSize: info.EraseBlockSize,
		EraseValue:     DefaultEraseValue,
		PageLayout:     true,
	}
}

// Validate checks the geometry invariants.
func (c Config) Validate() error {
	switch {
	case c.Size <= 0:
		return fmt.Errorf("%w: size %d", ErrInvalidConfig, c.Size)
	case c.WriteBlockSize <= 0:
		return fmt.Errorf("%w: write block size %d", ErrInvalidConfig, c.WriteBlockSize)
	case c.EraseBlockSize <= 0:
		return fmt.Errorf("%w: erase block size %d", ErrInvalidConfig, c.EraseBlockSize)
	case c.Size%c.EraseBlockSize != 0:
		return fmt.Errorf("%w: size %d not a multiple of erase block size %d", ErrInvalidConfig, c.Size, c.EraseBlockSize)
	case c.EraseBlockSize%c.WriteBlockSize != 0:
		return fmt.Errorf("%w: erase block size %d not a multiple of write block size %d", ErrInvalidConfig, c.EraseBlockSize, c.WriteBlockSize)
	case c.EraseBlockSize%WordSize != 0:
		return fmt.Errorf("%w: erase block size %d not a multiple of the %d-byte word", ErrInvalidConfig, c.EraseBlockSize, WordSize)
	case c.Base%WordSize != 0:
		return fmt.Errorf("%w: base 0x%x not word aligned", ErrInvalidConfig, c.Base)
	}
	return nil
}

// fillPattern replicates the erase value into a word.
func (c Config) fillPattern() uint32 {
	return uint32(c.EraseValue) * 0x01010101
}
