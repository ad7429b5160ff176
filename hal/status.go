package hal

import "fmt"

// Status is the code returned by the vendor program/fill primitives.
//
// Zero is success; every other value is opaque to the driver.
type Status int32

const (
	StatusOK Status = iota
	StatusBadKey
	StatusBadAddress
	StatusNotErased
	StatusUnaligned
	StatusBus
	StatusWriteProtected
)

// OK reports whether s is StatusOK.
func (s Status) OK() bool { return s == StatusOK }

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusBadKey:
		return "bad program key"
	case StatusBadAddress:
		return "address out of array"
	case StatusNotErased:
		return "target not erased"
	case StatusUnaligned:
		return "unaligned address"
	case StatusBus:
		return "bus error"
	case StatusWriteProtected:
		return "write protected"
	default:
		return fmt.Sprintf("status %d", int32(s))
	}
}
