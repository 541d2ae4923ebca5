package cpu

import "github.com/nevisdale/m6502/internal/logger"

const opcodeHLT = 0xff

func (c *CPU) lda(mode addrMode) {
	c.load(mode, regA)
}

func (c *CPU) ldx(mode addrMode) {
	c.load(mode, regX)
}

func (c *CPU) ldy(mode addrMode) {
	c.load(mode, regY)
}

func (c *CPU) sta(mode addrMode) {
	c.store(mode, regA)
}

func (c *CPU) stx(mode addrMode) {
	c.store(mode, regX)
}

func (c *CPU) sty(mode addrMode) {
	c.store(mode, regY)
}

// Transfers take no micro-ops. The write goes through writeReg so the
// destination updates Z and N.

func (c *CPU) tax(addrMode) {
	c.writeReg(regX, c.a)
}

func (c *CPU) tay(addrMode) {
	c.writeReg(regY, c.a)
}

func (c *CPU) txa(addrMode) {
	c.writeReg(regA, c.x)
}

func (c *CPU) tya(addrMode) {
	c.writeReg(regA, c.y)
}

func (c *CPU) clc(addrMode) {
	c.setFlag(flagC, false)
}

func (c *CPU) sec(addrMode) {
	c.setFlag(flagC, true)
}

func (c *CPU) cli(addrMode) {
	c.setFlag(flagI, false)
}

func (c *CPU) sei(addrMode) {
	c.setFlag(flagI, true)
}

func (c *CPU) clv(addrMode) {
	c.setFlag(flagV, false)
}

func (c *CPU) cld(addrMode) {
	c.setFlag(flagD, false)
}

func (c *CPU) sed(addrMode) {
	c.setFlag(flagD, true)
}

func (c *CPU) nop(addrMode) {}

func (c *CPU) hlt(addrMode) {
	c.halted = true
	if c.trace {
		logger.Logf(logTag, "halted at $%04X after %d cycles", c.opAddr, c.cycles)
	}
}

// unmapped opcodes behave like a one byte NOP.
func (c *CPU) unmapped(addrMode) {
	if c.trace {
		logger.Logf(logTag, "unmapped opcode $%02X at $%04X", c.mem.Read8(c.opAddr), c.opAddr)
	}
}

func (c *CPU) initInstructions() {
	for i := range c.instrs {
		c.instrs[i] = instr{name: "???", mode: addrModeIMP, fn: c.unmapped}
	}

	// LDA
	c.instrs[0xa9] = instr{name: "LDA", mode: addrModeIMM, fn: c.lda}
	c.instrs[0xa5] = instr{name: "LDA", mode: addrModeZP, fn: c.lda}
	c.instrs[0xb5] = instr{name: "LDA", mode: addrModeZPX, fn: c.lda}
	c.instrs[0xad] = instr{name: "LDA", mode: addrModeABS, fn: c.lda}
	c.instrs[0xbd] = instr{name: "LDA", mode: addrModeABSX, fn: c.lda}
	c.instrs[0xb9] = instr{name: "LDA", mode: addrModeABSY, fn: c.lda}
	c.instrs[0xa1] = instr{name: "LDA", mode: addrModeINDX, fn: c.lda}
	c.instrs[0xb1] = instr{name: "LDA", mode: addrModeINDY, fn: c.lda}

	// LDX
	c.instrs[0xa2] = instr{name: "LDX", mode: addrModeIMM, fn: c.ldx}
	c.instrs[0xa6] = instr{name: "LDX", mode: addrModeZP, fn: c.ldx}
	c.instrs[0xb6] = instr{name: "LDX", mode: addrModeZPY, fn: c.ldx}
	c.instrs[0xae] = instr{name: "LDX", mode: addrModeABS, fn: c.ldx}
	c.instrs[0xbe] = instr{name: "LDX", mode: addrModeABSY, fn: c.ldx}

	// LDY
	c.instrs[0xa0] = instr{name: "LDY", mode: addrModeIMM, fn: c.ldy}
	c.instrs[0xa4] = instr{name: "LDY", mode: addrModeZP, fn: c.ldy}
	c.instrs[0xb4] = instr{name: "LDY", mode: addrModeZPX, fn: c.ldy}
	c.instrs[0xac] = instr{name: "LDY", mode: addrModeABS, fn: c.ldy}
	c.instrs[0xbc] = instr{name: "LDY", mode: addrModeABSX, fn: c.ldy}

	// STA
	c.instrs[0x85] = instr{name: "STA", mode: addrModeZP, fn: c.sta}
	c.instrs[0x95] = instr{name: "STA", mode: addrModeZPX, fn: c.sta}
	c.instrs[0x8d] = instr{name: "STA", mode: addrModeABS, fn: c.sta}
	c.instrs[0x9d] = instr{name: "STA", mode: addrModeABSX, fn: c.sta}
	c.instrs[0x99] = instr{name: "STA", mode: addrModeABSY, fn: c.sta}
	c.instrs[0x81] = instr{name: "STA", mode: addrModeINDX, fn: c.sta}
	c.instrs[0x91] = instr{name: "STA", mode: addrModeINDY, fn: c.sta}

	// STX, STY
	c.instrs[0x86] = instr{name: "STX", mode: addrModeZP, fn: c.stx}
	c.instrs[0x96] = instr{name: "STX", mode: addrModeZPY, fn: c.stx}
	c.instrs[0x8e] = instr{name: "STX", mode: addrModeABS, fn: c.stx}
	c.instrs[0x84] = instr{name: "STY", mode: addrModeZP, fn: c.sty}
	c.instrs[0x94] = instr{name: "STY", mode: addrModeZPX, fn: c.sty}
	c.instrs[0x8c] = instr{name: "STY", mode: addrModeABS, fn: c.sty}

	c.instrs[0xaa] = instr{name: "TAX", mode: addrModeIMP, fn: c.tax}
	c.instrs[0xa8] = instr{name: "TAY", mode: addrModeIMP, fn: c.tay}
	c.instrs[0x8a] = instr{name: "TXA", mode: addrModeIMP, fn: c.txa}
	c.instrs[0x98] = instr{name: "TYA", mode: addrModeIMP, fn: c.tya}

	c.instrs[0x18] = instr{name: "CLC", mode: addrModeIMP, fn: c.clc}
	c.instrs[0x38] = instr{name: "SEC", mode: addrModeIMP, fn: c.sec}
	c.instrs[0x58] = instr{name: "CLI", mode: addrModeIMP, fn: c.cli}
	c.instrs[0x78] = instr{name: "SEI", mode: addrModeIMP, fn: c.sei}
	c.instrs[0xb8] = instr{name: "CLV", mode: addrModeIMP, fn: c.clv}
	c.instrs[0xd8] = instr{name: "CLD", mode: addrModeIMP, fn: c.cld}
	c.instrs[0xf8] = instr{name: "SED", mode: addrModeIMP, fn: c.sed}

	c.instrs[0xea] = instr{name: "NOP", mode: addrModeIMP, fn: c.nop}
	c.instrs[opcodeHLT] = instr{name: "HLT", mode: addrModeIMP, fn: c.hlt}
}
