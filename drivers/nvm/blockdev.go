package nvm

import (
	"fmt"

	"tinygo.org/x/tinyfs"
)

// BlockDevice exposes a Device as a tinyfs block device so that littlefs or
// FAT can be mounted on it.
type BlockDevice struct {
	d *Device
}

var _ tinyfs.BlockDevice = (*BlockDevice)(nil)

// NewBlockDevice wraps d.
func NewBlockDevice(d *Device) *BlockDevice {
	return &BlockDevice{d: d}
}

func (b *BlockDevice) ReadAt(buf []byte, off int64) (int, error) {
	if err := b.d.Read(off, buf); err != nil {
		return 0, err
	}
	return len(buf), nil
}

func (b *BlockDevice) WriteAt(buf []byte, off int64) (int, error) {
	if err := b.d.Write(off, buf); err != nil {
		return 0, err
	}
	return len(buf), nil
}

func (b *BlockDevice) Size() int64 { return b.d.cfg.Size }

func (b *BlockDevice) WriteBlockSize() int64 { return b.d.cfg.WriteBlockSize }

func (b *BlockDevice) EraseBlockSize() int64 { return b.d.cfg.EraseBlockSize }

// EraseBlocks erases length blocks starting at block start.
func (b *BlockDevice) EraseBlocks(start, length int64) error {
	bs := b.d.cfg.EraseBlockSize
	blocks := b.d.cfg.Size / bs
	if start < 0 || length < 0 || start > blocks || length > blocks-start {
		return &RangeError{Op: opErase, Off: start * bs, Len: length * bs, Size: b.d.cfg.Size}
	}
	if err := b.d.Erase(start*bs, length*bs); err != nil {
		return fmt.Errorf("erase blocks %d+%d: %w", start, length, err)
	}
	return nil
}
