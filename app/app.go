package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"nvflash/drivers/nvm"
	"nvflash/hal"
	"nvflash/internal/buildinfo"
	"nvflash/kernel"
	"nvflash/services/storage"
)

// DeviceName is the name the on-board array is registered under.
const DeviceName = "mram0"

// DevicePriority is the POST_KERNEL priority of the array.
const DevicePriority = 50

type Config struct {
	// MaskIRQOnErase and SerializeReads are passed to the driver.
	MaskIRQOnErase bool
	SerializeReads bool
}

// System is a booted kernel with the array driver and its storage service.
type System struct {
	h   hal.HAL
	k   *kernel.System
	log *kernel.Logger
	dev *nvm.Device
	svc *storage.Service
}

// New defines the array device, boots the kernel and builds the storage
// service. The array is usable through Device as soon as New returns; the
// service answers requests once Start runs.
func New(h hal.HAL, cfg Config) (*System, error) {
	k := kernel.NewSystem()
	log := k.Logger(kernel.EPApp)

	ncfg := nvm.ConfigFromInfo(h.NVMInfo())
	ncfg.MaskIRQOnErase = cfg.MaskIRQOnErase
	ncfg.SerializeReads = cfg.SerializeReads

	dev, err := nvm.New(ncfg, h.NVM(), h.Interrupts(), nvm.WithName(DeviceName), nvm.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	// The initializer probes the first word so an unmapped array fails boot.
	err = k.DefineDevice(DeviceName, kernel.PostKernel, DevicePriority, dev, func() error {
		var probe [nvm.WordSize]byte
		return dev.Read(0, probe[:])
	})
	if err != nil {
		return nil, err
	}
	if err := k.Boot(); err != nil {
		return nil, fmt.Errorf("app: boot: %w", err)
	}
	if _, ok := k.Device(DeviceName); !ok {
		return nil, fmt.Errorf("app: device %s not ready", DeviceName)
	}

	s := &System{
		h:   h,
		k:   k,
		log: log,
		dev: dev,
		svc: storage.NewService(k, kernel.EPStorage, dev, k.Logger(kernel.EPStorage)),
	}
	log.WriteLineString(fmt.Sprintf("nvflash %s: %s ready, %d bytes in %d pages", buildinfo.Short(), DeviceName, dev.Size(), dev.PageCount()))
	return s, nil
}

func (s *System) Kernel() *kernel.System    { return s.k }
func (s *System) Device() *nvm.Device       { return s.dev }
func (s *System) Service() *storage.Service { return s.svc }

// Logger returns the logger that forwards to the log pump.
func (s *System) Logger() hal.Logger { return s.log }

// Client returns a new client of the storage service.
func (s *System) Client() (*storage.Client, error) {
	return storage.NewClient(s.k, s.svc.Endpoint())
}

// Start runs the log pump and the storage service until ctx is done. The
// returned function waits for both and reports the first failure other than
// cancellation.
func (s *System) Start(ctx context.Context) func() error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return guard(s.h, "logger", func() error { return s.k.PumpLogs(ctx, s.h.Logger()) })
	})
	g.Go(func() error {
		return guard(s.h, "storage", func() error { return s.svc.Serve(ctx) })
	})
	if led := s.h.LED(); led != nil {
		led.High()
	}
	return func() error {
		err := g.Wait()
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	}
}

// Run boots the system and blocks forever (TinyGo/native entrypoint).
func Run(h hal.HAL) {
	s, err := New(h, Config{})
	if err != nil {
		if l := h.Logger(); l != nil {
			l.WriteLineString(err.Error())
		}
		if led := h.LED(); led != nil {
			led.Low()
		}
		select {}
	}
	wait := s.Start(context.Background())
	if err := wait(); err != nil {
		if l := h.Logger(); l != nil {
			l.WriteLineString(err.Error())
		}
	}
	select {}
}
