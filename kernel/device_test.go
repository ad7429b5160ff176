package kernel

import (
	"errors"
	"strings"
	"testing"
)

func TestBootOrder(t *testing.T) {
	s := NewSystem()
	var order []string
	def := func(name string, level InitLevel, prio int) {
		t.Helper()
		fn := func() error {
			order = append(order, name)
			return nil
		}
		if err := s.DefineDevice(name, level, prio, name, fn); err != nil {
			t.Fatalf("DefineDevice(%q) err = %v", name, err)
		}
	}
	def("app", Application, 0)
	def("mram0", PostKernel, 50)
	def("clock", PreKernel1, 10)
	def("uart", PostKernel, 10)
	def("spi", PostKernel, 50)
	def("pinmux", PreKernel1, 0)

	if _, ok := s.Device("mram0"); ok {
		t.Fatal("Device() returned a device before boot")
	}
	if err := s.Boot(); err != nil {
		t.Fatalf("Boot() err = %v", err)
	}

	want := "pinmux clock uart mram0 spi app"
	if got := strings.Join(order, " "); got != want {
		t.Fatalf("init order = %q, want %q", got, want)
	}
	api, ok := s.Device("mram0")
	if !ok || api.(string) != "mram0" {
		t.Fatalf("Device(mram0) = %v, %v", api, ok)
	}

	// Initializers run once.
	if err := s.Boot(); err != nil {
		t.Fatalf("second Boot() err = %v", err)
	}
	if len(order) != 6 {
		t.Fatalf("second Boot() ran %d initializers again", len(order)-6)
	}
}

func TestBootFailureLeavesDeviceNotReady(t *testing.T) {
	s := NewSystem()
	errBus := errors.New("bus fault")
	if err := s.DefineDevice("mram0", PostKernel, 50, struct{}{}, func() error { return errBus }); err != nil {
		t.Fatalf("DefineDevice() err = %v", err)
	}
	if err := s.DefineDevice("gpio", PostKernel, 40, struct{}{}, nil); err != nil {
		t.Fatalf("DefineDevice() err = %v", err)
	}

	err := s.Boot()
	if !errors.Is(err, errBus) {
		t.Fatalf("Boot() err = %v, want bus fault", err)
	}
	if !strings.Contains(err.Error(), "mram0") {
		t.Fatalf("Boot() err = %q, want device name", err)
	}
	if _, ok := s.Device("mram0"); ok {
		t.Fatal("Device(mram0) ok = true after failed init")
	}
	if _, ok := s.Device("gpio"); !ok {
		t.Fatal("Device(gpio) ok = false, want ready")
	}

	infos := s.Devices()
	if len(infos) != 2 || infos[0].Name != "mram0" || infos[0].Ready || !errors.Is(infos[0].Err, errBus) {
		t.Fatalf("Devices() = %+v", infos)
	}
}

func TestDefineDeviceRejects(t *testing.T) {
	s := NewSystem()
	if err := s.DefineDevice("mram0", PostKernel, 0, nil, nil); err != nil {
		t.Fatalf("DefineDevice() err = %v", err)
	}
	if err := s.DefineDevice("mram0", Application, 0, nil, nil); !errors.Is(err, ErrDuplicateDevice) {
		t.Fatalf("DefineDevice() duplicate err = %v, want ErrDuplicateDevice", err)
	}
	if err := s.DefineDevice("x", numInitLevels, 0, nil, nil); !errors.Is(err, ErrBadInitLevel) {
		t.Fatalf("DefineDevice() bad level err = %v, want ErrBadInitLevel", err)
	}
	if err := s.InitLevel(numInitLevels); !errors.Is(err, ErrBadInitLevel) {
		t.Fatalf("InitLevel() bad level err = %v, want ErrBadInitLevel", err)
	}
	if _, ok := s.Device("missing"); ok {
		t.Fatal("Device(missing) ok = true")
	}
}
