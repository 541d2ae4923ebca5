package cpu

import "fmt"

// Line is one disassembled instruction.
type Line struct {
	Addr uint16
	Size int
	Text string
}

func (c *CPU) disassembleAt(addr uint16) Line {
	in := c.instrs[c.mem.Read8(addr)]
	pc := addr + 1

	var text string
	switch in.mode {
	case addrModeIMM:
		text = fmt.Sprintf("$%04X: %s #$%02X {%s}", addr, in.name, c.mem.Read8(pc), in.mode)
	case addrModeZP:
		text = fmt.Sprintf("$%04X: %s $%02X {%s}", addr, in.name, c.mem.Read8(pc), in.mode)
	case addrModeZPX:
		text = fmt.Sprintf("$%04X: %s $%02X,X {%s}", addr, in.name, c.mem.Read8(pc), in.mode)
	case addrModeZPY:
		text = fmt.Sprintf("$%04X: %s $%02X,Y {%s}", addr, in.name, c.mem.Read8(pc), in.mode)
	case addrModeABS:
		text = fmt.Sprintf("$%04X: %s $%04X {%s}", addr, in.name, c.mem.Read16(pc), in.mode)
	case addrModeABSX:
		text = fmt.Sprintf("$%04X: %s $%04X,X {%s}", addr, in.name, c.mem.Read16(pc), in.mode)
	case addrModeABSY:
		text = fmt.Sprintf("$%04X: %s $%04X,Y {%s}", addr, in.name, c.mem.Read16(pc), in.mode)
	case addrModeINDX:
		text = fmt.Sprintf("$%04X: %s ($%02X,X) {%s}", addr, in.name, c.mem.Read8(pc), in.mode)
	case addrModeINDY:
		text = fmt.Sprintf("$%04X: %s ($%02X),Y {%s}", addr, in.name, c.mem.Read8(pc), in.mode)
	default:
		text = fmt.Sprintf("$%04X: %s {%s}", addr, in.name, in.mode)
	}

	return Line{Addr: addr, Size: 1 + in.mode.operandBytes(), Text: text}
}

// DisassembleRange lists the instructions starting at from, in address
// order, up to and including the one that covers to.
func (c *CPU) DisassembleRange(from, to uint16) []Line {
	var lines []Line
	addr := uint32(from)
	for addr <= uint32(to) {
		l := c.disassembleAt(uint16(addr))
		lines = append(lines, l)
		addr += uint32(l.Size)
	}
	return lines
}

// Disassemble lists the whole address space keyed by instruction address.
func (c *CPU) Disassemble() map[uint16]string {
	lines := c.DisassembleRange(0x0000, 0xffff)
	disasm := make(map[uint16]string, len(lines))
	for _, l := range lines {
		disasm[l.Addr] = l.Text
	}
	return disasm
}
