package nvm

// validRange reports whether [off, off+n) lies within a region of size bytes.
// Reads, writes and erases share it. Word alignment for writes and erases is
// enforced separately by checkAligned, after the zero-length short cut.
func validRange(size, off, n int64) bool {
	if off < 0 || n < 0 {
		return false
	}
	if off > size || n > size-off {
		return false
	}
	return true
}

func checkAligned(op string, off, n int64) error {
	if off%WordSize != 0 || n%WordSize != 0 {
		return &RangeError{Op: op, Off: off, Len: n, Unaligned: true}
	}
	return nil
}
