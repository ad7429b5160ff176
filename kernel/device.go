package kernel

import (
	"errors"
	"fmt"
	"sort"
)

// InitLevel orders device initialization during boot.
type InitLevel uint8

const (
	PreKernel1 InitLevel = iota
	PreKernel2
	PostKernel
	Application

	numInitLevels
)

func (l InitLevel) String() string {
	switch l {
	case PreKernel1:
		return "PRE_KERNEL_1"
	case PreKernel2:
		return "PRE_KERNEL_2"
	case PostKernel:
		return "POST_KERNEL"
	case Application:
		return "APPLICATION"
	default:
		return "unknown"
	}
}

var (
	// ErrDuplicateDevice is returned when a device name is defined twice.
	ErrDuplicateDevice = errors.New("kernel: duplicate device")
	// ErrBadInitLevel is returned for levels outside PreKernel1..Application.
	ErrBadInitLevel = errors.New("kernel: bad init level")
)

type device struct {
	name     string
	level    InitLevel
	priority int
	seq      int
	api      any
	init     func() error

	done  bool
	ready bool
	err   error
}

// DeviceInfo describes a defined device.
type DeviceInfo struct {
	Name     string
	Level    InitLevel
	Priority int
	Ready    bool
	Err      error
}

// DefineDevice registers a device. initFn runs once, at level, ordered by
// priority and then by definition order. A nil initFn makes the device ready
// as soon as its level runs.
func (s *System) DefineDevice(name string, level InitLevel, priority int, api any, initFn func() error) error {
	if level >= numInitLevels {
		return fmt.Errorf("%w: %d", ErrBadInitLevel, level)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateDevice, name)
	}
	d := &device{
		name:     name,
		level:    level,
		priority: priority,
		seq:      len(s.devices),
		api:      api,
		init:     initFn,
	}
	s.devices = append(s.devices, d)
	s.byName[name] = d
	return nil
}

// InitLevel runs the pending initializers of one level. Failures leave the
// device not ready and are joined into the returned error.
func (s *System) InitLevel(level InitLevel) error {
	if level >= numInitLevels {
		return fmt.Errorf("%w: %d", ErrBadInitLevel, level)
	}

	s.mu.Lock()
	var pending []*device
	for _, d := range s.devices {
		if d.level == level && !d.done {
			d.done = true
			pending = append(pending, d)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(pending, func(i, j int) bool {
		if pending[i].priority != pending[j].priority {
			return pending[i].priority < pending[j].priority
		}
		return pending[i].seq < pending[j].seq
	})

	var errs []error
	for _, d := range pending {
		var err error
		if d.init != nil {
			err = d.init()
		}
		s.mu.Lock()
		d.ready = err == nil
		d.err = err
		s.mu.Unlock()
		if err != nil {
			errs = append(errs, fmt.Errorf("kernel: init %s at %s: %w", d.name, level, err))
		}
	}
	return errors.Join(errs...)
}

// Boot runs every init level in order.
func (s *System) Boot() error {
	var errs []error
	for l := PreKernel1; l < numInitLevels; l++ {
		if err := s.InitLevel(l); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Device returns the API of a ready device.
func (s *System) Device(name string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.byName[name]
	if !ok || !d.ready {
		return nil, false
	}
	return d.api, true
}

// Devices lists every defined device in definition order.
func (s *System) Devices() []DeviceInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DeviceInfo, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, DeviceInfo{
			Name:     d.name,
			Level:    d.level,
			Priority: d.priority,
			Ready:    d.ready,
			Err:      d.err,
		})
	}
	return out
}
