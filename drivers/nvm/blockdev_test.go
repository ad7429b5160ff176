package nvm

import (
	"bytes"
	"errors"
	"testing"

	"tinygo.org/x/tinyfs"

	"nvflash/hal"
)

func TestBlockDevice(t *testing.T) {
	d, _, _ := newTestDevice(t, testConfig())
	var dev tinyfs.BlockDevice = NewBlockDevice(d)

	if dev.Size() != 262144 || dev.WriteBlockSize() != 16 || dev.EraseBlockSize() != 8192 {
		t.Fatalf("geometry = %d/%d/%d", dev.Size(), dev.WriteBlockSize(), dev.EraseBlockSize())
	}
	if err := dev.EraseBlocks(2, 2); err != nil {
		t.Fatalf("EraseBlocks() err = %v", err)
	}

	data := bytes.Repeat([]byte{0xA1, 0xB2, 0xC3, 0xD4}, 8)
	if n, err := dev.WriteAt(data, 3*8192); err != nil || n != len(data) {
		t.Fatalf("WriteAt() = %d, %v", n, err)
	}
	got := make([]byte, len(data)+4)
	if n, err := dev.ReadAt(got, 3*8192); err != nil || n != len(got) {
		t.Fatalf("ReadAt() = %d, %v", n, err)
	}
	if !bytes.Equal(got[:len(data)], data) || !bytes.Equal(got[len(data):], []byte{0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Fatalf("ReadAt() = % x", got)
	}

	// Block 1 was never erased.
	if _, err := dev.WriteAt(data, 8192); !errors.Is(err, ErrProgramFailed) {
		t.Fatalf("WriteAt() unerased block err = %v; want ErrProgramFailed", err)
	}
}

func TestBlockDeviceEraseRange(t *testing.T) {
	d, mem, _ := newTestDevice(t, testConfig())
	dev := NewBlockDevice(d)

	for _, c := range [][2]int64{{-1, 1}, {0, 33}, {31, 2}, {33, 0}} {
		if err := dev.EraseBlocks(c[0], c[1]); !errors.Is(err, ErrInvalidRange) {
			t.Fatalf("EraseBlocks(%d, %d) err = %v; want ErrInvalidRange", c[0], c[1], err)
		}
	}
	if err := dev.EraseBlocks(32, 0); err != nil {
		t.Fatalf("EraseBlocks(32, 0) err = %v", err)
	}
	if st := mem.Stats(); st.Fills != 0 {
		t.Fatalf("Fills = %d; want 0", st.Fills)
	}
}

func TestFlashAdapter(t *testing.T) {
	d, _, _ := newTestDevice(t, testConfig())
	f, err := d.AsFlash()
	if err != nil {
		t.Fatalf("AsFlash() err = %v", err)
	}

	if f.SizeBytes() != 262144 || f.EraseBlockBytes() != 8192 {
		t.Fatalf("geometry = %d/%d", f.SizeBytes(), f.EraseBlockBytes())
	}
	if err := f.Erase(100, 8192); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("Erase(unaligned) err = %v; want ErrInvalidRange", err)
	}
	if err := f.Erase(262144-8192, 8192); err != nil {
		t.Fatalf("Erase(last block) err = %v", err)
	}
	if n, err := f.WriteAt([]byte{1, 2, 3, 4}, 262140); err != nil || n != 4 {
		t.Fatalf("WriteAt() = %d, %v", n, err)
	}

	buf := make([]byte, 16)
	n, err := f.ReadAt(buf, 262136)
	if err != nil || n != 8 {
		t.Fatalf("ReadAt() near end = %d, %v; want 8, nil", n, err)
	}
	if !bytes.Equal(buf[:8], []byte{0xFF, 0xFF, 0xFF, 0xFF, 1, 2, 3, 4}) {
		t.Fatalf("ReadAt() = % x", buf[:8])
	}
	if _, err := f.ReadAt(buf, 262144); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("ReadAt(end) err = %v; want ErrInvalidRange", err)
	}
}

// sparseNVM backs nothing; it lets a device describe a region too large to
// allocate.
type sparseNVM struct{}

func (sparseNVM) Program(uint32, []uint32, uintptr, int) hal.Status { return hal.StatusOK }
func (sparseNVM) Fill(uint32, uint32, uintptr, int) hal.Status      { return hal.StatusOK }
func (sparseNVM) Load([]byte, uintptr) error                         { return nil }

func TestAsFlashRejectsLargeRegion(t *testing.T) {
	cfg := testConfig()
	cfg.Base = 0
	cfg.Size = 1 << 33
	d, err := New(cfg, sparseNVM{}, hal.NewHostInterrupts())
	if err != nil {
		t.Fatalf("New() err = %v", err)
	}
	if _, err := d.AsFlash(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("AsFlash() on 8 GiB region err = %v; want ErrInvalidConfig", err)
	}

	cfg.Size = 1<<32 - cfg.EraseBlockSize
	d, err = New(cfg, sparseNVM{}, hal.NewHostInterrupts())
	if err != nil {
		t.Fatalf("New() err = %v", err)
	}
	f, err := d.AsFlash()
	if err != nil {
		t.Fatalf("AsFlash() just under 4 GiB err = %v", err)
	}
	if int64(f.SizeBytes()) != cfg.Size {
		t.Fatalf("SizeBytes() = %d; want %d", f.SizeBytes(), cfg.Size)
	}
}
