//go:build !tinygo || !baremetal

package hal

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// Op identifies a primitive invocation passed to a HostMRAM hook.
type Op uint8

const (
	OpProgram Op = iota + 1
	OpFill
)

func (op Op) String() string {
	switch op {
	case OpProgram:
		return "program"
	case OpFill:
		return "fill"
	default:
		return "unknown"
	}
}

// HostStats counts primitive invocations on a HostMRAM.
type HostStats struct {
	Programs int
	Fills    int
	Loads    int
}

type backingStore interface {
	io.ReaderAt
	io.WriterAt
}

type memStore []byte

func (m memStore) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(m)) {
		return 0, os.ErrInvalid
	}
	n := copy(p, m[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m memStore) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(m)) {
		return 0, os.ErrInvalid
	}
	return copy(m[off:], p), nil
}

// HostMRAM simulates an on-chip array and its vendor primitive on the host.
//
// Programming requires every target word to read as ErasedWord, so fresh
// zero-filled arrays must be erased before the first write.
type HostMRAM struct {
	mu    sync.Mutex
	store backingStore
	f     *os.File
	base  uintptr
	size  int64

	hook     func(Op)
	failNext Status
	stats    HostStats
}

// NewHostMRAM returns an in-memory array of size bytes at base, every byte set to fill.
func NewHostMRAM(base uintptr, size int64, fill byte) *HostMRAM {
	mem := make(memStore, size)
	if fill != 0 {
		for i := range mem {
			mem[i] = fill
		}
	}
	return &HostMRAM{store: mem, base: base, size: size}
}

// OpenHostMRAM opens (creating if needed) a file-backed array.
//
// New files are truncated to size and read back as zeros (unerased). An
// existing non-empty file must be exactly size bytes.
func OpenHostMRAM(path string, base uintptr, size int64) (*HostMRAM, error) {
	if size <= 0 || size%WordSize != 0 {
		return nil, fmt.Errorf("mram image %q: invalid size %d", path, size)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open mram image %q: %w", path, err)
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat mram image %q: %w", path, err)
	}
	switch {
	case st.Size() == 0:
		if err := f.Truncate(size); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("truncate mram image %q to %d: %w", path, size, err)
		}
	case st.Size() != size:
		_ = f.Close()
		return nil, fmt.Errorf("mram image %q is %d bytes, want %d", path, st.Size(), size)
	}

	return &HostMRAM{store: f, f: f, base: base, size: size}, nil
}

// Close releases the backing file, if any.
func (m *HostMRAM) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.f == nil {
		return nil
	}
	err := m.f.Close()
	m.f = nil
	m.store = nil
	return err
}

// Base returns the absolute address of the first byte.
func (m *HostMRAM) Base() uintptr { return m.base }

// Size returns the array size in bytes.
func (m *HostMRAM) Size() int64 { return m.size }

// SetHook installs fn to be called inside every Program and Fill, before the
// array is touched. Passing nil removes it.
func (m *HostMRAM) SetHook(fn func(Op)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hook = fn
}

// FailNext makes the next Program or Fill return s without touching the array.
func (m *HostMRAM) FailNext(s Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = s
}

// Stats returns invocation counters.
func (m *HostMRAM) Stats() HostStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Program writes words from src to dst. The hook runs without the array lock
// held so that tests can block inside it.
func (m *HostMRAM) Program(key uint32, src []uint32, dst uintptr, words int) Status {
	m.enter(OpProgram)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Programs++
	if s := m.check(key, dst, words); !s.OK() {
		return s
	}
	if words > len(src) {
		return StatusBadAddress
	}

	off := int64(dst - m.base)
	buf := make([]byte, words*WordSize)
	if _, err := m.store.ReadAt(buf, off); err != nil && !errors.Is(err, io.EOF) {
		return StatusBus
	}
	for i := 0; i < words; i++ {
		if binary.LittleEndian.Uint32(buf[i*WordSize:]) != ErasedWord {
			return StatusNotErased
		}
	}
	for i := 0; i < words; i++ {
		binary.LittleEndian.PutUint32(buf[i*WordSize:], src[i])
	}
	if _, err := m.store.WriteAt(buf, off); err != nil {
		return StatusBus
	}
	return StatusOK
}

// Fill writes pattern into words consecutive words at dst.
func (m *HostMRAM) Fill(key uint32, pattern uint32, dst uintptr, words int) Status {
	m.enter(OpFill)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Fills++
	if s := m.check(key, dst, words); !s.OK() {
		return s
	}

	buf := make([]byte, words*WordSize)
	for i := 0; i < words; i++ {
		binary.LittleEndian.PutUint32(buf[i*WordSize:], pattern)
	}
	if _, err := m.store.WriteAt(buf, int64(dst-m.base)); err != nil {
		return StatusBus
	}
	return StatusOK
}

// Load copies len(dst) bytes starting at addr.
func (m *HostMRAM) Load(dst []byte, addr uintptr) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Loads++
	if m.store == nil {
		return ErrNotImplemented
	}
	if addr < m.base || int64(addr-m.base)+int64(len(dst)) > m.size {
		return fmt.Errorf("mram load at 0x%x len %d: %w", addr, len(dst), os.ErrInvalid)
	}
	if _, err := m.store.ReadAt(dst, int64(addr-m.base)); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("mram load at 0x%x: %w", addr, err)
	}
	return nil
}

func (m *HostMRAM) enter(op Op) {
	m.mu.Lock()
	hook := m.hook
	m.mu.Unlock()
	if hook != nil {
		hook(op)
	}
}

// check must be called with m.mu held.
func (m *HostMRAM) check(key uint32, dst uintptr, words int) Status {
	if s := m.failNext; !s.OK() {
		m.failNext = StatusOK
		return s
	}
	if m.store == nil {
		return StatusBus
	}
	if key != ProgramKey {
		return StatusBadKey
	}
	if dst%WordSize != 0 {
		return StatusUnaligned
	}
	if words < 0 || dst < m.base || int64(dst-m.base)+int64(words)*WordSize > m.size {
		return StatusBadAddress
	}
	return StatusOK
}
