package nvm

import (
	"sync"
	"testing"

	"nvflash/hal"
)

const testBase = 0x1000000

func testConfig() Config {
	return Config{
		Base:           testBase,
		Size:           256 * 1024,
		WriteBlockSize: 16,
		EraseBlockSize: 8192,
		EraseValue:     DefaultEraseValue,
		PageLayout:     true,
	}
}

func newTestDevice(t *testing.T, cfg Config, opts ...Option) (*Device, *hal.HostMRAM, *hal.HostInterrupts) {
	t.Helper()
	mem := hal.NewHostMRAM(cfg.Base, cfg.Size, 0)
	irq := hal.NewHostInterrupts()
	d, err := New(cfg, mem, irq, opts...)
	if err != nil {
		t.Fatalf("New() err = %v", err)
	}
	return d, mem, irq
}

type lineLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *lineLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, s)
}

func (l *lineLogger) WriteLineBytes(b []byte) { l.WriteLineString(string(b)) }

func (l *lineLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}
