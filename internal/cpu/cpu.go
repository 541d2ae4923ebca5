// Package cpu emulates the instruction set of a 6502 family processor
// running a program from a private 64 KiB memory.
//
// Instructions that touch memory are broken into micro-ops, one per call to
// Step, so that a single instruction spans several ticks the way it spans
// several bus cycles on the real chip. Instructions without operands run in
// the same tick as their opcode fetch.
package cpu

import (
	"errors"
	"fmt"

	"github.com/nevisdale/m6502/internal/logger"
	"github.com/nevisdale/m6502/internal/memory"
)

var (
	// ErrOutOfRange is returned when execution would leave the address
	// space or a requested memory range doesn't exist.
	ErrOutOfRange = memory.ErrOutOfRange

	// ErrProgramTooLarge is returned by LoadProgram.
	ErrProgramTooLarge = memory.ErrProgramTooLarge
)

const logTag = "cpu"

type instr struct {
	name string
	mode addrMode
	fn   func(addrMode)
}

type CPU struct {
	a      uint8
	x      uint8
	y      uint8
	p      uint8
	sp     uint16 // reserved, no stack instructions yet
	ip     uint16
	mem    *memory.RAM
	instrs [0x100]instr

	queue  opQueue
	ptr    pointer
	latch  uint8
	cycles uint64
	halted bool
	fault  error

	// ipEnd is set once the byte at $FFFF has been fetched. IP can't
	// advance any further.
	ipEnd bool

	// opAddr is where the current instruction's opcode was fetched from.
	opAddr uint16

	trace bool
}

type Option func(*CPU)

// WithTrace logs unmapped opcodes, halts and faults to the central logger.
func WithTrace(v bool) Option {
	return func(c *CPU) {
		c.trace = v
	}
}

func NewCPU(opts ...Option) *CPU {
	c := &CPU{
		mem: memory.NewRAM(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.initInstructions()
	return c
}

// LoadProgram writes the program to $8000, points the reset vector at it and
// resets the CPU. No instruction is executed.
func (c *CPU) LoadProgram(program []byte) error {
	if err := c.mem.LoadProgram(program); err != nil {
		return fmt.Errorf("load program: %w", err)
	}
	c.Reset()
	return nil
}

// Reset loads IP from the reset vector and clears the halted state, any
// partially executed instruction and any fault. Registers and flags keep
// their values.
func (c *CPU) Reset() {
	c.queue.clear()
	c.ptr = 0
	c.latch = 0
	c.fault = nil
	c.halted = false
	c.ipEnd = false
	c.ptr.setLow(c.mem.Read8(memory.ResetVector))
	c.ptr.setHigh(c.mem.Read8(memory.ResetVector + 1))
	c.ip = c.ptr.addr()
}

// Step runs one tick: the next queued micro-op if there is one, otherwise
// the fetch and decode of the next opcode. Once the CPU has faulted every
// call returns the same error until Reset.
func (c *CPU) Step() error {
	if c.fault != nil {
		return c.fault
	}
	if c.halted {
		return nil
	}

	c.cycles++

	if op, ok := c.queue.pop(); ok {
		if err := c.exec(op); err != nil {
			return c.setFault(err)
		}
		return nil
	}

	c.opAddr = c.ip
	opcode, err := c.fetchPC()
	if err != nil {
		return c.setFault(err)
	}
	in := c.instrs[opcode]
	in.fn(in.mode)
	return nil
}

// ExecuteInstruction steps until the current instruction has finished. If
// no instruction is in flight a new one is fetched first.
func (c *CPU) ExecuteInstruction() error {
	if err := c.Step(); err != nil {
		return err
	}
	for c.queue.len() > 0 {
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Run steps until the CPU halts. It never returns for a program that doesn't
// halt; use RunFor to bound execution.
func (c *CPU) Run() error {
	for !c.halted {
		if err := c.Step(); err != nil {
			return err
		}
	}
	return c.fault
}

// RunFor steps until the CPU halts or maxTicks ticks have run, and returns
// the number of ticks run.
func (c *CPU) RunFor(maxTicks int) (int, error) {
	n := 0
	for n < maxTicks && !c.halted {
		if err := c.Step(); err != nil {
			return n, err
		}
		n++
	}
	return n, c.fault
}

// fetchPC reads the byte at IP and moves IP past it. IP never wraps: the
// byte at $FFFF can be fetched, the fetch after it is a fault.
func (c *CPU) fetchPC() (uint8, error) {
	if c.ipEnd {
		return 0, fmt.Errorf("%w: instruction pointer past $FFFF", ErrOutOfRange)
	}
	v := c.mem.Read8(c.ip)
	if c.ip == 0xffff {
		c.ipEnd = true
	} else {
		c.ip++
	}
	return v, nil
}

func (c *CPU) setFault(err error) error {
	c.fault = err
	c.halted = true
	c.queue.clear()
	if c.trace {
		logger.Logf(logTag, "fault at $%04X: %v", c.opAddr, err)
	}
	return err
}

func (c *CPU) A() uint8       { return c.a }
func (c *CPU) X() uint8       { return c.x }
func (c *CPU) Y() uint8       { return c.y }
func (c *CPU) IP() uint16     { return c.ip }
func (c *CPU) SP() uint16     { return c.sp }
func (c *CPU) Flags() Flags   { return FlagsFromValue(c.p) }
func (c *CPU) Halted() bool   { return c.halted }
func (c *CPU) Cycles() uint64 { return c.cycles }
func (c *CPU) Fault() error   { return c.fault }

// Pending is the number of micro-ops left in the current instruction.
func (c *CPU) Pending() int { return c.queue.len() }

func (c *CPU) Peek(addr uint16) uint8 { return c.mem.Read8(addr) }

// Memory gives read-only access to the address space.
func (c *CPU) Memory() memory.Reader {
	return c.mem.ReadOnly()
}

// Dump returns a copy of memory in [from, to).
func (c *CPU) Dump(from, to int) ([]byte, error) {
	b, err := c.mem.Slice(from, to)
	if err != nil {
		return nil, fmt.Errorf("dump: %w", err)
	}
	return b, nil
}

// State is a copy of everything visible about the CPU.
type State struct {
	A       uint8
	X       uint8
	Y       uint8
	IP      uint16
	SP      uint16
	Flags   Flags
	Halted  bool
	Cycles  uint64
	Pending int
}

func (s State) String() string {
	return fmt.Sprintf("IP=$%04X A=$%02X X=$%02X Y=$%02X SP=$%04X P=%s CYC=%d",
		s.IP, s.A, s.X, s.Y, s.SP, s.Flags, s.Cycles)
}

func (c *CPU) State() State {
	return State{
		A:       c.a,
		X:       c.x,
		Y:       c.y,
		IP:      c.ip,
		SP:      c.sp,
		Flags:   c.Flags(),
		Halted:  c.halted,
		Cycles:  c.cycles,
		Pending: c.queue.len(),
	}
}

// IsFault reports whether err was produced by the CPU hitting a hard
// failure rather than by the caller.
func IsFault(err error) bool {
	return errors.Is(err, ErrOutOfRange)
}
