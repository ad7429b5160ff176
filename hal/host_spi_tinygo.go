//go:build tinygo && !baremetal

package hal

import "errors"

// openEnvSPI has no periph.io port registry to draw on under TinyGo.
func openEnvSPI(port string, base uintptr) (Array, error) {
	return nil, errors.New("spi mram: not supported in this build")
}
