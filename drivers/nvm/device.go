package nvm

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"nvflash/hal"
)

// State is the externally observable driver state.
type State uint8

const (
	// StateIdle means no write or erase is in flight.
	StateIdle State = iota
	// StateBusy means a write or erase holds the serializer.
	StateBusy
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// Parameters are the properties higher layers need to program the device.
type Parameters struct {
	WriteBlockSize int64
	EraseValue     byte
}

// Device is one array instance. It is safe for concurrent use.
type Device struct {
	cfg   Config
	mem   hal.NVM
	irq   hal.Interrupts
	sem   *serializer
	pages []PageLayout

	log  hal.Logger
	name string
}

// New validates cfg and returns a Device in the idle state.
func New(cfg Config, mem hal.NVM, irq hal.Interrupts, opts ...Option) (*Device, error) {
	if mem == nil {
		return nil, errors.New("nvm: nil array")
	}
	if irq == nil {
		return nil, errors.New("nvm: nil interrupt controller")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Device{
		cfg:  cfg,
		mem:  mem,
		irq:  irq,
		sem:  newSerializer(),
		name: "nvm",
	}
	if cfg.PageLayout {
		d.pages = []PageLayout{{
			PageCount: cfg.Size / cfg.EraseBlockSize,
			PageSize:  cfg.EraseBlockSize,
		}}
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Name returns the device name.
func (d *Device) Name() string { return d.name }

// Config returns the region description.
func (d *Device) Config() Config { return d.cfg }

// Size returns the region size in bytes.
func (d *Device) Size() int64 { return d.cfg.Size }

// State reports whether a write or erase is in flight.
func (d *Device) State() State {
	if d.sem.held() {
		return StateBusy
	}
	return StateIdle
}

// Parameters returns the write block size and erase value.
func (d *Device) Parameters() Parameters {
	return Parameters{
		WriteBlockSize: d.cfg.WriteBlockSize,
		EraseValue:     d.cfg.EraseValue,
	}
}

// Read copies len(p) bytes at off into p.
func (d *Device) Read(off int64, p []byte) error {
	return d.ReadContext(context.Background(), off, p)
}

// ReadContext is Read with a context; ctx only matters when reads are
// serialized against writes.
func (d *Device) ReadContext(ctx context.Context, off int64, p []byte) error {
	n := int64(len(p))
	if !validRange(d.cfg.Size, off, n) {
		return &RangeError{Op: opRead, Off: off, Len: n, Size: d.cfg.Size}
	}
	if n == 0 {
		return nil
	}

	if d.cfg.SerializeReads {
		if err := d.sem.acquire(ctx); err != nil {
			return fmt.Errorf("nvm: read off=%d: %w", off, err)
		}
		defer d.sem.release()
	}

	if err := d.mem.Load(p, d.cfg.Base+uintptr(off)); err != nil {
		return fmt.Errorf("%w: off=%d len=%d: %w", ErrReadFailed, off, n, err)
	}
	return nil
}

// Write programs p at off. The target must have been erased.
//
// off and len(p) must be multiples of WordSize. Write blocks until no other
// write or erase is in flight.
func (d *Device) Write(off int64, p []byte) error {
	return d.WriteContext(context.Background(), off, p)
}

// WriteContext is Write with a cancellable wait for the serializer. Once the
// primitive has been invoked it runs to completion regardless of ctx.
func (d *Device) WriteContext(ctx context.Context, off int64, p []byte) error {
	n := int64(len(p))
	if !validRange(d.cfg.Size, off, n) {
		return &RangeError{Op: opWrite, Off: off, Len: n, Size: d.cfg.Size}
	}
	if n == 0 {
		return nil
	}
	if err := checkAligned(opWrite, off, n); err != nil {
		return err
	}

	words := make([]uint32, n/WordSize)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(p[i*WordSize:])
	}
	addr := d.cfg.Base + uintptr(off)

	if err := d.sem.acquire(ctx); err != nil {
		return fmt.Errorf("nvm: write off=%d: %w", off, err)
	}
	defer d.sem.release()

	if s := d.program(words, addr); !s.OK() {
		return d.failed(opWrite, addr, len(words), s)
	}
	return nil
}

// Erase sets n bytes at off to the erase value.
//
// off and n must be multiples of WordSize. Erase-block alignment is the
// caller's business; the fill primitive works on words.
func (d *Device) Erase(off, n int64) error {
	return d.EraseContext(context.Background(), off, n)
}

// EraseContext is Erase with a cancellable wait for the serializer.
func (d *Device) EraseContext(ctx context.Context, off, n int64) error {
	if !validRange(d.cfg.Size, off, n) {
		return &RangeError{Op: opErase, Off: off, Len: n, Size: d.cfg.Size}
	}
	if n == 0 {
		return nil
	}
	if err := checkAligned(opErase, off, n); err != nil {
		return err
	}
	addr := d.cfg.Base + uintptr(off)
	words := int(n / WordSize)

	if err := d.sem.acquire(ctx); err != nil {
		return fmt.Errorf("nvm: erase off=%d: %w", off, err)
	}
	defer d.sem.release()

	if s := d.fill(addr, words); !s.OK() {
		return d.failed(opErase, addr, words, s)
	}
	return nil
}

// program runs the program primitive with interrupts masked. The caller
// holds the serializer.
func (d *Device) program(words []uint32, addr uintptr) hal.Status {
	cs := enterCritical(d.irq)
	defer cs.exit()
	return d.mem.Program(hal.ProgramKey, words, addr, len(words))
}

// fill runs the fill primitive. The caller holds the serializer.
func (d *Device) fill(addr uintptr, words int) hal.Status {
	if d.cfg.MaskIRQOnErase {
		cs := enterCritical(d.irq)
		defer cs.exit()
	}
	return d.mem.Fill(hal.ProgramKey, d.cfg.fillPattern(), addr, words)
}

func (d *Device) failed(op string, addr uintptr, words int, s hal.Status) error {
	err := &StatusError{Op: op, Addr: addr, Words: words, Status: s}
	if d.log != nil {
		d.log.WriteLineString(fmt.Sprintf("%s: %s at 0x%08x (%d words) failed: %s", d.name, op, addr, words, s))
	}
	return err
}
