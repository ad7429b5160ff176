package nvm

import "nvflash/hal"

// Option configures a Device.
type Option func(*Device)

// WithLogger sets the logger used to report primitive failures.
func WithLogger(l hal.Logger) Option {
	return func(d *Device) {
		d.log = l
	}
}

// WithName sets the device name used in log lines.
func WithName(name string) Option {
	return func(d *Device) {
		d.name = name
	}
}
