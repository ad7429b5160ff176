package kernel

import "strconv"

// Endpoint identifies a message destination.
type Endpoint uint8

const (
	EPKernel Endpoint = iota
	EPLogger
	EPStorage
	EPApp

	numStaticEndpoints
)

// MaxEndpoints bounds the number of mailboxes a System owns, static
// endpoints included.
const MaxEndpoints = 16

func (e Endpoint) String() string {
	switch e {
	case EPKernel:
		return "kernel"
	case EPLogger:
		return "logger"
	case EPStorage:
		return "storage"
	case EPApp:
		return "app"
	default:
		return "ep" + strconv.Itoa(int(e))
	}
}
