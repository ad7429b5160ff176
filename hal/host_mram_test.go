//go:build !tinygo || !baremetal

package hal

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

const testBase = 0x1000000

func TestHostMRAMProgramRequiresErase(t *testing.T) {
	m := NewHostMRAM(testBase, 64, 0)

	if s := m.Program(ProgramKey, []uint32{0x11223344}, testBase, 1); s != StatusNotErased {
		t.Fatalf("Program() on unerased array = %s; want %s", s, StatusNotErased)
	}
	if s := m.Fill(ProgramKey, ErasedWord, testBase, 16); !s.OK() {
		t.Fatalf("Fill() = %s; want ok", s)
	}
	if s := m.Program(ProgramKey, []uint32{0x11223344}, testBase+4, 1); !s.OK() {
		t.Fatalf("Program() after erase = %s; want ok", s)
	}
	if s := m.Program(ProgramKey, []uint32{0x55667788}, testBase+4, 1); s != StatusNotErased {
		t.Fatalf("Program() twice = %s; want %s", s, StatusNotErased)
	}

	got := make([]byte, 12)
	if err := m.Load(got, testBase); err != nil {
		t.Fatalf("Load() err = %v", err)
	}
	want := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x44, 0x33, 0x22, 0x11, 0xFF, 0xFF, 0xFF, 0xFF}
	if !bytes.Equal(got, want) {
		t.Fatalf("Load() = % x; want % x", got, want)
	}
}

func TestHostMRAMRejectsBadArguments(t *testing.T) {
	m := NewHostMRAM(testBase, 64, 0xFF)
	src := []uint32{1, 2}

	tests := []struct {
		name  string
		key   uint32
		dst   uintptr
		words int
		want  Status
	}{
		{"bad key", 0, testBase, 1, StatusBadKey},
		{"unaligned", ProgramKey, testBase + 2, 1, StatusUnaligned},
		{"below base", ProgramKey, testBase - 4, 1, StatusBadAddress},
		{"past end", ProgramKey, testBase + 60, 2, StatusBadAddress},
		{"short source", ProgramKey, testBase, 3, StatusBadAddress},
	}
	for _, tt := range tests {
		if s := m.Program(tt.key, src, tt.dst, tt.words); s != tt.want {
			t.Fatalf("%s: Program() = %s; want %s", tt.name, s, tt.want)
		}
	}
}

func TestHostMRAMFailNext(t *testing.T) {
	m := NewHostMRAM(testBase, 16, 0xFF)
	m.FailNext(StatusBus)

	if s := m.Fill(ProgramKey, 0, testBase, 4); s != StatusBus {
		t.Fatalf("Fill() = %s; want %s", s, StatusBus)
	}
	if s := m.Fill(ProgramKey, 0, testBase, 4); !s.OK() {
		t.Fatalf("second Fill() = %s; want ok", s)
	}
	if st := m.Stats(); st.Fills != 2 || st.Programs != 0 {
		t.Fatalf("Stats() = %+v; want 2 fills, 0 programs", st)
	}
}

func TestHostMRAMHookSeesOp(t *testing.T) {
	m := NewHostMRAM(testBase, 16, 0xFF)
	var ops []Op
	m.SetHook(func(op Op) { ops = append(ops, op) })

	m.Program(ProgramKey, []uint32{0}, testBase, 1)
	m.Fill(ProgramKey, ErasedWord, testBase, 4)

	if len(ops) != 2 || ops[0] != OpProgram || ops[1] != OpFill {
		t.Fatalf("hook ops = %v; want [program fill]", ops)
	}
}

func TestOpenHostMRAMPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nv.img")

	m, err := OpenHostMRAM(path, testBase, 32)
	if err != nil {
		t.Fatalf("OpenHostMRAM() err = %v", err)
	}
	if s := m.Fill(ProgramKey, ErasedWord, testBase, 8); !s.OK() {
		t.Fatalf("Fill() = %s", s)
	}
	if s := m.Program(ProgramKey, []uint32{0xCAFEF00D}, testBase+8, 1); !s.OK() {
		t.Fatalf("Program() = %s", s)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close() err = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() err = %v", err)
	}
	if len(raw) != 32 || raw[8] != 0x0D || raw[11] != 0xCA || raw[0] != 0xFF {
		t.Fatalf("image = % x; unexpected contents", raw)
	}

	m, err = OpenHostMRAM(path, testBase, 32)
	if err != nil {
		t.Fatalf("reopen err = %v", err)
	}
	defer m.Close()
	got := make([]byte, 4)
	if err := m.Load(got, testBase+8); err != nil {
		t.Fatalf("Load() err = %v", err)
	}
	if !bytes.Equal(got, []byte{0x0D, 0xF0, 0xFE, 0xCA}) {
		t.Fatalf("Load() = % x after reopen", got)
	}

	if _, err := OpenHostMRAM(path, testBase, 64); err == nil {
		t.Fatal("OpenHostMRAM() with wrong size succeeded; want error")
	}
}

func TestHostMRAMLoadOutOfRange(t *testing.T) {
	m := NewHostMRAM(testBase, 16, 0xFF)
	if err := m.Load(make([]byte, 4), testBase+14); err == nil {
		t.Fatal("Load() past end succeeded; want error")
	}
	if err := m.Load(make([]byte, 1), testBase-1); err == nil {
		t.Fatal("Load() below base succeeded; want error")
	}
}

func TestHostInterruptsRestore(t *testing.T) {
	irq := NewHostInterrupts()

	outer := irq.Disable()
	if irq.Enabled() {
		t.Fatal("Enabled() = true after Disable")
	}
	inner := irq.Disable()
	irq.Restore(inner)
	if irq.Enabled() {
		t.Fatal("nested Restore re-enabled interrupts")
	}
	irq.Restore(outer)
	if !irq.Enabled() {
		t.Fatal("Enabled() = false after outer Restore")
	}
	if got := irq.Disables(); got != 2 {
		t.Fatalf("Disables() = %d; want 2", got)
	}
}
