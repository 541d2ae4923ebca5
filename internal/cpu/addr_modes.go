package cpu

type addrMode uint8

const (
	addrModeIMP  addrMode = iota + 1 // Implied
	addrModeIMM                      // Immediate
	addrModeZP                       // Zero Page
	addrModeZPX                      // Zero Page X
	addrModeZPY                      // Zero Page Y
	addrModeABS                      // Absolute
	addrModeABSX                     // Absolute X
	addrModeABSY                     // Absolute Y
	addrModeINDX                     // Indirect X
	addrModeINDY                     // Indirect Y
)

func (mode addrMode) String() string {
	switch mode {
	case addrModeIMP:
		return "IMP"
	case addrModeIMM:
		return "IMM"
	case addrModeZP:
		return "ZP"
	case addrModeZPX:
		return "ZPX"
	case addrModeZPY:
		return "ZPY"
	case addrModeABS:
		return "ABS"
	case addrModeABSX:
		return "ABSX"
	case addrModeABSY:
		return "ABSY"
	case addrModeINDX:
		return "INDX"
	case addrModeINDY:
		return "INDY"
	}
	return "???"
}

// operandBytes is how many bytes after the opcode the mode consumes.
func (mode addrMode) operandBytes() int {
	switch mode {
	case addrModeIMM, addrModeZP, addrModeZPX, addrModeZPY, addrModeINDX, addrModeINDY:
		return 1
	case addrModeABS, addrModeABSX, addrModeABSY:
		return 2
	}
	return 0
}

// addressOps leave the effective address of each memory mode in the pointer.
// The sequences only name registers, so they are shared by every instruction
// and resolved against the CPU when each micro-op runs.
//
// Indexed absolute and indirect indexed modes add the index to the low byte
// only. Unlike the real chip there is no carry into the high byte and no
// extra cycle.
var addressOps = map[addrMode][]microOp{
	// $nn
	addrModeZP: {
		setHigh(0),
		fetchLow(),
	},

	// $nn,X and $nn,Y wrap inside the zero page
	addrModeZPX: {
		setHigh(0),
		fetchLow(),
		addLowFrom(regX),
	},
	addrModeZPY: {
		setHigh(0),
		fetchLow(),
		addLowFrom(regY),
	},

	// $nnnn
	addrModeABS: {
		fetchLow(),
		fetchHigh(),
	},

	// $nnnn,X and $nnnn,Y
	addrModeABSX: {
		fetchLow(),
		fetchHigh(),
		addLowFrom(regX),
	},
	addrModeABSY: {
		fetchLow(),
		fetchHigh(),
		addLowFrom(regY),
	},

	// ($nn,X): both pointer bytes come from the zero page. The second byte
	// address wraps from $FF to $00.
	addrModeINDX: {
		setHigh(0),
		fetchLow(),
		addLowFrom(regX),
		readMemory(regLatch),
		addLow(1),
		readMemory(regPtrHigh),
		setLowFrom(regLatch),
	},

	// ($nn),Y
	addrModeINDY: {
		setHigh(0),
		fetchLow(),
		readMemory(regLatch),
		addLow(1),
		readMemory(regPtrHigh),
		setLowFrom(regLatch),
		addLowFrom(regY),
	},
}

// load queues the micro-ops that bring the mode's operand into dst.
func (c *CPU) load(mode addrMode, dst register) {
	if mode == addrModeIMM {
		c.enqueue(fetchByte(dst))
		return
	}
	c.enqueue(addressOps[mode]...)
	c.enqueue(readMemory(dst))
}

// store queues the micro-ops that write src to the mode's effective address.
func (c *CPU) store(mode addrMode, src register) {
	c.enqueue(addressOps[mode]...)
	c.enqueue(writeMemory(src))
}
