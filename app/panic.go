package app

import (
	"fmt"
	"runtime/debug"
	"strings"

	"nvflash/hal"
)

// guard runs fn, turning a panic into an error after logging it with its
// stack. The LED is driven low so a wedged board is visible.
func guard(h hal.HAL, task string, fn func() error) (err error) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		if l := h.Logger(); l != nil {
			l.WriteLineString(fmt.Sprintf("nvflash panic: task=%s panic=%v", task, v))
			for _, line := range strings.Split(string(debug.Stack()), "\n") {
				if line == "" {
					continue
				}
				l.WriteLineString(line)
			}
		}
		if led := h.LED(); led != nil {
			led.Low()
		}
		err = fmt.Errorf("app: task %s panicked: %v", task, v)
	}()
	return fn()
}
