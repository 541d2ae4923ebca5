package memory

import (
	"errors"
	"fmt"
)

const (
	// SizeBytes is the whole 16-bit address space.
	SizeBytes = 0x10000

	// ProgramOrigin is where LoadProgram places the first program byte.
	// The reset vector always points here.
	ProgramOrigin = uint16(0x8000)

	// ResetVector holds the little-endian entry point.
	ResetVector = uint16(0xfffc)

	// MaxProgramSize is the largest program LoadProgram accepts.
	MaxProgramSize = 0x7fff
)

var (
	ErrOutOfRange      = errors.New("address out of range")
	ErrProgramTooLarge = errors.New("program too large")
)

// Reader gives read-only access to memory.
type Reader interface {
	Read8(addr uint16) uint8
	Read16(addr uint16) uint16
}

// RAM is a flat 64 KiB address space. It is owned by a single CPU.
type RAM struct {
	ram [SizeBytes]uint8
}

func NewRAM() *RAM {
	return &RAM{}
}

func (r *RAM) Read8(addr uint16) uint8 {
	return r.ram[addr]
}

// Read16 reads a little-endian word. The high byte address wraps at $FFFF.
func (r *RAM) Read16(addr uint16) uint16 {
	return uint16(r.ram[addr]) | uint16(r.ram[addr+1])<<8
}

func (r *RAM) Write8(addr uint16, data uint8) {
	r.ram[addr] = data
}

// LoadProgram copies program to ProgramOrigin and points the reset vector at
// it. Nothing is written if the program doesn't fit.
func (r *RAM) LoadProgram(program []byte) error {
	if len(program) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes, at most %d fit at $%04X",
			ErrProgramTooLarge, len(program), MaxProgramSize, ProgramOrigin)
	}
	copy(r.ram[ProgramOrigin:], program)

	r.ram[ResetVector] = uint8(ProgramOrigin & 0xff)
	r.ram[ResetVector+1] = uint8(ProgramOrigin >> 8)
	return nil
}

// Slice returns a copy of the bytes in [from, to).
func (r *RAM) Slice(from, to int) ([]byte, error) {
	if from < 0 || to > SizeBytes || from > to {
		return nil, fmt.Errorf("%w: [$%X, $%X)", ErrOutOfRange, from, to)
	}
	out := make([]byte, to-from)
	copy(out, r.ram[from:to])
	return out, nil
}

// ReadOnly wraps the RAM so that callers can't get at Write8.
func (r *RAM) ReadOnly() Reader {
	return readOnly{r}
}

type readOnly struct {
	ram *RAM
}

func (ro readOnly) Read8(addr uint16) uint8 {
	return ro.ram.Read8(addr)
}

func (ro readOnly) Read16(addr uint16) uint16 {
	return ro.ram.Read16(addr)
}
