package nvm

import (
	"fmt"
	"math"

	"nvflash/hal"
)

// Flash adapts a Device to the hal.Flash contract used by the littlefs
// layer: 32-bit offsets, erase in whole erase blocks.
type Flash struct {
	d *Device
}

var _ hal.Flash = Flash{}

// AsFlash returns d as a hal.Flash. Regions that do not fit 32-bit offsets
// are rejected with ErrInvalidConfig.
func (d *Device) AsFlash() (Flash, error) {
	if d.cfg.Size > math.MaxUint32 {
		return Flash{}, fmt.Errorf("%w: %d-byte region exceeds 32-bit flash offsets", ErrInvalidConfig, d.cfg.Size)
	}
	return Flash{d: d}, nil
}

func (f Flash) SizeBytes() uint32 { return uint32(f.d.cfg.Size) }

func (f Flash) EraseBlockBytes() uint32 { return uint32(f.d.cfg.EraseBlockSize) }

// ReadAt reads up to the end of the region, like io.ReaderAt at EOF.
func (f Flash) ReadAt(p []byte, off uint32) (int, error) {
	size := f.d.cfg.Size
	if int64(off) >= size {
		return 0, &RangeError{Op: opRead, Off: int64(off), Len: int64(len(p)), Size: size}
	}
	if maxN := size - int64(off); int64(len(p)) > maxN {
		p = p[:maxN]
	}
	if err := f.d.Read(int64(off), p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (f Flash) WriteAt(p []byte, off uint32) (int, error) {
	if err := f.d.Write(int64(off), p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (f Flash) Erase(off, size uint32) error {
	if size == 0 {
		return nil
	}
	bs := uint32(f.d.cfg.EraseBlockSize)
	if off%bs != 0 || size%bs != 0 {
		return fmt.Errorf("%w: erase off=%d size=%d not aligned to %d-byte blocks", ErrInvalidRange, off, size, bs)
	}
	return f.d.Erase(int64(off), int64(size))
}
