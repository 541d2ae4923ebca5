// Package script drives a CPU from Lua.
//
// A script sees these globals:
//
//	load{0xA9, 0x42, 0xFF}  load a program and reset
//	reset()                 reset without reloading
//	step()                  run one tick
//	instruction()           run to the end of the current instruction
//	run([max])              run until halted or max ticks, returns ticks run
//	peek(addr)              read a byte of memory
//	reg(name)               "a", "x", "y", "ip", "sp" or "p"
//	flag(name)              "n", "v", "u", "b", "d", "i", "z" or "c"
//	halted()
//	cycles()
//	log(msg)                add an entry to the central log
//
// A CPU fault raises a Lua error and ends the script.
package script

import (
	"errors"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nevisdale/m6502/internal/cpu"
	"github.com/nevisdale/m6502/internal/logger"
)

const logTag = "script"

// DefaultMaxTicks bounds run() when the script gives no limit.
const DefaultMaxTicks = 1_000_000

// Machine is what a script can drive. *cpu.CPU satisfies it.
type Machine interface {
	LoadProgram(program []byte) error
	Reset()
	Step() error
	ExecuteInstruction() error
	RunFor(maxTicks int) (int, error)
	Peek(addr uint16) uint8
	State() cpu.State
}

type Host struct {
	L *lua.LState
	m Machine

	// the machine error behind the last raised Lua error
	err error
}

func NewHost(m Machine) *Host {
	h := &Host{
		L: lua.NewState(),
		m: m,
	}

	for name, fn := range map[string]lua.LGFunction{
		"load":        h.load,
		"reset":       h.reset,
		"step":        h.step,
		"instruction": h.instruction,
		"run":         h.run,
		"peek":        h.peek,
		"reg":         h.reg,
		"flag":        h.flag,
		"halted":      h.halted,
		"cycles":      h.cycles,
		"log":         h.log,
	} {
		h.L.SetGlobal(name, h.L.NewFunction(fn))
	}
	return h
}

func (h *Host) Close() {
	h.L.Close()
}

func (h *Host) RunString(src string) error {
	h.err = nil
	return h.wrap(h.L.DoString(src))
}

func (h *Host) RunFile(path string) error {
	h.err = nil
	return h.wrap(h.L.DoFile(path))
}

func (h *Host) wrap(err error) error {
	if err == nil {
		return nil
	}
	if h.err != nil {
		return fmt.Errorf("script: %w", h.err)
	}
	return fmt.Errorf("script: %w", err)
}

// raise stops the script with a machine error.
func (h *Host) raise(err error) int {
	h.err = err
	h.L.RaiseError("%s", err.Error())
	return 0
}

var errBadByte = errors.New("program byte out of range")

func (h *Host) load(L *lua.LState) int {
	tbl := L.CheckTable(1)
	program := make([]byte, 0, tbl.Len())
	for i := 1; i <= tbl.Len(); i++ {
		n, ok := tbl.RawGetInt(i).(lua.LNumber)
		if !ok || n < 0 || n > 0xff {
			return h.raise(fmt.Errorf("%w: index %d", errBadByte, i))
		}
		program = append(program, byte(n))
	}
	if err := h.m.LoadProgram(program); err != nil {
		return h.raise(err)
	}
	return 0
}

func (h *Host) reset(L *lua.LState) int {
	h.m.Reset()
	return 0
}

func (h *Host) step(L *lua.LState) int {
	if err := h.m.Step(); err != nil {
		return h.raise(err)
	}
	return 0
}

func (h *Host) instruction(L *lua.LState) int {
	if err := h.m.ExecuteInstruction(); err != nil {
		return h.raise(err)
	}
	return 0
}

func (h *Host) run(L *lua.LState) int {
	limit := L.OptInt(1, DefaultMaxTicks)
	n, err := h.m.RunFor(limit)
	if err != nil {
		return h.raise(err)
	}
	L.Push(lua.LNumber(n))
	return 1
}

func (h *Host) peek(L *lua.LState) int {
	addr := L.CheckInt(1)
	if addr < 0 || addr > 0xffff {
		L.ArgError(1, "address out of range")
		return 0
	}
	L.Push(lua.LNumber(h.m.Peek(uint16(addr))))
	return 1
}

func (h *Host) reg(L *lua.LState) int {
	s := h.m.State()
	var v int
	switch strings.ToLower(L.CheckString(1)) {
	case "a":
		v = int(s.A)
	case "x":
		v = int(s.X)
	case "y":
		v = int(s.Y)
	case "ip", "pc":
		v = int(s.IP)
	case "sp":
		v = int(s.SP)
	case "p":
		v = int(s.Flags.Value())
	default:
		L.ArgError(1, "unknown register")
		return 0
	}
	L.Push(lua.LNumber(v))
	return 1
}

func (h *Host) flag(L *lua.LState) int {
	f := h.m.State().Flags
	var v bool
	switch strings.ToLower(L.CheckString(1)) {
	case "n", "negative":
		v = f.Negative
	case "v", "overflow":
		v = f.Overflow
	case "u", "break1":
		v = f.Break1
	case "b", "break0":
		v = f.Break0
	case "d", "decimal":
		v = f.Decimal
	case "i", "interrupt":
		v = f.InterruptDisable
	case "z", "zero":
		v = f.Zero
	case "c", "carry":
		v = f.Carry
	default:
		L.ArgError(1, "unknown flag")
		return 0
	}
	L.Push(lua.LBool(v))
	return 1
}

func (h *Host) halted(L *lua.LState) int {
	L.Push(lua.LBool(h.m.State().Halted))
	return 1
}

func (h *Host) cycles(L *lua.LState) int {
	L.Push(lua.LNumber(h.m.State().Cycles))
	return 1
}

func (h *Host) log(L *lua.LState) int {
	logger.Log(logTag, L.CheckString(1))
	return 0
}
