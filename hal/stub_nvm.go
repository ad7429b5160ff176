//go:build tinygo && baremetal && !rp2040 && !rp2350

package hal

type stubNVM struct{}

func (stubNVM) Program(key uint32, src []uint32, dst uintptr, words int) Status {
	_ = key
	_ = src
	_ = dst
	_ = words
	return StatusBus
}

func (stubNVM) Fill(key uint32, pattern uint32, dst uintptr, words int) Status {
	_ = key
	_ = pattern
	_ = dst
	_ = words
	return StatusBus
}

func (stubNVM) Load(dst []byte, addr uintptr) error {
	_ = dst
	_ = addr
	return ErrNotImplemented
}
