package cpu

import "fmt"

// register selects a destination or source for a micro-op. It is resolved to
// a CPU field only when the micro-op executes.
type register uint8

const (
	regNone register = iota
	regA
	regX
	regY
	regLatch   // internal data latch
	regPtrLow  // low byte of the effective address pointer
	regPtrHigh // high byte of the effective address pointer
)

func (r register) String() string {
	switch r {
	case regA:
		return "A"
	case regX:
		return "X"
	case regY:
		return "Y"
	case regLatch:
		return "latch"
	case regPtrLow:
		return "ptr.lo"
	case regPtrHigh:
		return "ptr.hi"
	}
	return "-"
}

type opKind uint8

const (
	opFetchByte   opKind = iota + 1 // read byte at IP into reg, IP++
	opFetchLow                      // read byte at IP into pointer low, IP++
	opFetchHigh                     // read byte at IP into pointer high, IP++
	opSetLow                        // pointer low <- operand
	opSetHigh                       // pointer high <- operand
	opAddLow                        // pointer low += operand, no carry out
	opAddHigh                       // pointer high += operand, low untouched
	opReadMemory                    // reg <- mem[pointer]
	opWriteMemory                   // mem[pointer] <- reg
)

func (k opKind) String() string {
	switch k {
	case opFetchByte:
		return "FetchByte"
	case opFetchLow:
		return "FetchLow"
	case opFetchHigh:
		return "FetchHigh"
	case opSetLow:
		return "SetLow"
	case opSetHigh:
		return "SetHigh"
	case opAddLow:
		return "AddLow"
	case opAddHigh:
		return "AddHigh"
	case opReadMemory:
		return "ReadMemory"
	case opWriteMemory:
		return "WriteMemory"
	}
	return "???"
}

// microOp is one bus-cycle sized step of an instruction. It carries at most
// one operand: either a register selector or an immediate byte.
type microOp struct {
	kind  opKind
	reg   register
	value uint8
}

func (op microOp) String() string {
	switch op.kind {
	case opFetchLow, opFetchHigh:
		return op.kind.String()
	}
	if op.reg != regNone {
		return fmt.Sprintf("%s(%s)", op.kind, op.reg)
	}
	return fmt.Sprintf("%s($%02X)", op.kind, op.value)
}

func fetchByte(dst register) microOp   { return microOp{kind: opFetchByte, reg: dst} }
func fetchLow() microOp                { return microOp{kind: opFetchLow} }
func fetchHigh() microOp               { return microOp{kind: opFetchHigh} }
func setLow(v uint8) microOp           { return microOp{kind: opSetLow, value: v} }
func setLowFrom(src register) microOp  { return microOp{kind: opSetLow, reg: src} }
func setHigh(v uint8) microOp          { return microOp{kind: opSetHigh, value: v} }
func addLow(v uint8) microOp           { return microOp{kind: opAddLow, value: v} }
func addLowFrom(src register) microOp  { return microOp{kind: opAddLow, reg: src} }
func addHigh(v uint8) microOp          { return microOp{kind: opAddHigh, value: v} }
func readMemory(dst register) microOp  { return microOp{kind: opReadMemory, reg: dst} }
func writeMemory(src register) microOp { return microOp{kind: opWriteMemory, reg: src} }

// pointer is the effective address scratch register. It is not part of the
// 6502 programming model.
type pointer uint16

func (p pointer) addr() uint16 { return uint16(p) }
func (p pointer) low() uint8   { return uint8(p) }
func (p pointer) high() uint8  { return uint8(p >> 8) }

func (p *pointer) setLow(v uint8) {
	*p = *p&0xff00 | pointer(v)
}

func (p *pointer) setHigh(v uint8) {
	*p = *p&0x00ff | pointer(v)<<8
}

// addLow wraps inside the low byte. The high byte never sees the carry.
func (p *pointer) addLow(v uint8) {
	p.setLow(p.low() + v)
}

func (p *pointer) addHigh(v uint8) {
	p.setHigh(p.high() + v)
}

// opQueue is a FIFO of pending micro-ops.
type opQueue struct {
	ops  []microOp
	head int
}

func (q *opQueue) push(ops ...microOp) {
	q.ops = append(q.ops, ops...)
}

func (q *opQueue) pop() (microOp, bool) {
	if q.head >= len(q.ops) {
		return microOp{}, false
	}
	op := q.ops[q.head]
	q.head++
	if q.head == len(q.ops) {
		q.ops = q.ops[:0]
		q.head = 0
	}
	return op, true
}

func (q *opQueue) len() int {
	return len(q.ops) - q.head
}

func (q *opQueue) clear() {
	q.ops = q.ops[:0]
	q.head = 0
}

func (c *CPU) enqueue(ops ...microOp) {
	c.queue.push(ops...)
}

func (c *CPU) readReg(r register) uint8 {
	switch r {
	case regA:
		return c.a
	case regX:
		return c.x
	case regY:
		return c.y
	case regLatch:
		return c.latch
	case regPtrLow:
		return c.ptr.low()
	case regPtrHigh:
		return c.ptr.high()
	}
	return 0
}

// writeReg stores v in the selected register. Writes to A, X and Y update
// Z and N.
func (c *CPU) writeReg(r register, v uint8) {
	switch r {
	case regA:
		c.a = v
	case regX:
		c.x = v
	case regY:
		c.y = v
	case regLatch:
		c.latch = v
		return
	case regPtrLow:
		c.ptr.setLow(v)
		return
	case regPtrHigh:
		c.ptr.setHigh(v)
		return
	default:
		return
	}
	c.setFlagsZN(v)
}

func (c *CPU) operand(op microOp) uint8 {
	if op.reg != regNone {
		return c.readReg(op.reg)
	}
	return op.value
}

func (c *CPU) exec(op microOp) error {
	switch op.kind {
	case opFetchByte:
		v, err := c.fetchPC()
		if err != nil {
			return err
		}
		c.writeReg(op.reg, v)

	case opFetchLow:
		v, err := c.fetchPC()
		if err != nil {
			return err
		}
		c.ptr.setLow(v)

	case opFetchHigh:
		v, err := c.fetchPC()
		if err != nil {
			return err
		}
		c.ptr.setHigh(v)

	case opSetLow:
		c.ptr.setLow(c.operand(op))

	case opSetHigh:
		c.ptr.setHigh(c.operand(op))

	case opAddLow:
		c.ptr.addLow(c.operand(op))

	case opAddHigh:
		c.ptr.addHigh(c.operand(op))

	case opReadMemory:
		c.writeReg(op.reg, c.mem.Read8(c.ptr.addr()))

	case opWriteMemory:
		c.mem.Write8(c.ptr.addr(), c.readReg(op.reg))

	default:
		return fmt.Errorf("unknown micro-op %d", op.kind)
	}
	return nil
}
