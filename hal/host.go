//go:build !tinygo || !baremetal

package hal

import (
	"fmt"
	"os"
	"sync"
)

const (
	hostNVMDefaultPath     = "nvflash.img"
	hostNVMBase            = 0x00018000
	hostNVMSizeBytes       = 0x1E8000
	hostNVMWriteBlockBytes = 16
	hostNVMEraseBlockBytes = 8192
)

type hostHAL struct {
	logger *hostLogger
	led    *hostLED
	irq    *HostInterrupts
	nvm    Array

	writeBlock int64
	eraseBlock int64
}

// New returns a host HAL implementation.
//
// If NVFLASH_SPI names a SPI port the array is an external MRAM on it (see
// OpenEnvSPIMRAM). Otherwise the array is backed by the file named in
// NVFLASH_PATH (default nvflash.img). If neither can be used an in-memory
// array is substituted and a line is logged.
func New() HAL {
	logger := &hostLogger{w: os.Stdout}

	if port := os.Getenv("NVFLASH_SPI"); port != "" {
		m, err := openEnvSPI(port, hostNVMBase)
		if err == nil {
			return NewHost(logger, m)
		}
		logger.WriteLineString(fmt.Sprintf("hal: %v; using image file", err))
	}

	path := os.Getenv("NVFLASH_PATH")
	if path == "" {
		path = hostNVMDefaultPath
	}
	nvm, err := OpenHostMRAM(path, hostNVMBase, hostNVMSizeBytes)
	if err != nil {
		logger.WriteLineString(fmt.Sprintf("hal: %v; using volatile array", err))
		nvm = NewHostMRAM(hostNVMBase, hostNVMSizeBytes, 0)
	}

	return NewHost(logger, nvm)
}

// NewHost returns a host HAL around an existing array with the Apollo
// block geometry. A nil logger writes to stdout.
func NewHost(logger Logger, nvm Array) HAL {
	return NewHostBlocks(logger, nvm, hostNVMWriteBlockBytes, hostNVMEraseBlockBytes)
}

// NewHostBlocks is NewHost with an explicit write and erase block size.
func NewHostBlocks(logger Logger, nvm Array, writeBlock, eraseBlock int64) HAL {
	l, ok := logger.(*hostLogger)
	if !ok {
		l = &hostLogger{w: os.Stdout, fwd: logger}
	}
	return &hostHAL{
		logger:     l,
		led:        &hostLED{logger: l},
		irq:        NewHostInterrupts(),
		nvm:        nvm,
		writeBlock: writeBlock,
		eraseBlock: eraseBlock,
	}
}

func (h *hostHAL) Logger() Logger         { return h.logger }
func (h *hostHAL) LED() Pin               { return h.led }
func (h *hostHAL) Interrupts() Interrupts { return h.irq }
func (h *hostHAL) NVM() NVM               { return h.nvm }

func (h *hostHAL) NVMInfo() NVMInfo {
	return NVMInfo{
		Base:           h.nvm.Base(),
		Size:           h.nvm.Size(),
		WriteBlockSize: h.writeBlock,
		EraseBlockSize: h.eraseBlock,
	}
}

type hostLogger struct {
	mu  sync.Mutex
	w   *os.File
	fwd Logger
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fwd != nil {
		l.fwd.WriteLineString(s)
		return
	}
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fwd != nil {
		l.fwd.WriteLineBytes(b)
		return
	}
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

type hostLED struct {
	mu     sync.Mutex
	on     bool
	logger *hostLogger
}

func (l *hostLED) High() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.on = true
	l.logger.WriteLineString("led: HIGH")
}

func (l *hostLED) Low() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.on = false
	l.logger.WriteLineString("led: LOW")
}
