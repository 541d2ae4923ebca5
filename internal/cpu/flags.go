package cpu

import "strings"

const (
	flagC = uint8(1 << iota) // Carry
	flagZ                    // Zero
	flagI                    // Interrupt Disable
	flagD                    // Decimal Mode
	flagB                    // Break bit 0
	flagU                    // Break bit 1
	flagV                    // Overflow
	flagN                    // Negative
)

// Flags is the status register unpacked into booleans. Only Zero and
// Negative are derived by instructions; the rest are changed by the flag
// instructions only.
type Flags struct {
	Carry            bool
	Zero             bool
	InterruptDisable bool
	Decimal          bool
	Break0           bool
	Break1           bool
	Overflow         bool
	Negative         bool
}

// FlagsFromValue unpacks a status byte.
func FlagsFromValue(p uint8) Flags {
	return Flags{
		Carry:            p&flagC > 0,
		Zero:             p&flagZ > 0,
		InterruptDisable: p&flagI > 0,
		Decimal:          p&flagD > 0,
		Break0:           p&flagB > 0,
		Break1:           p&flagU > 0,
		Overflow:         p&flagV > 0,
		Negative:         p&flagN > 0,
	}
}

// Value packs the flags into a status byte.
func (f Flags) Value() uint8 {
	var p uint8
	for _, b := range []struct {
		set  bool
		mask uint8
	}{
		{f.Carry, flagC},
		{f.Zero, flagZ},
		{f.InterruptDisable, flagI},
		{f.Decimal, flagD},
		{f.Break0, flagB},
		{f.Break1, flagU},
		{f.Overflow, flagV},
		{f.Negative, flagN},
	} {
		if b.set {
			p |= b.mask
		}
	}
	return p
}

// String renders the flags from bit 7 down to bit 0 as NVUBDIZC. Upper case
// means set. U and B are the two break bits.
func (f Flags) String() string {
	p := f.Value()
	s := strings.Builder{}
	for i, r := range "NVUBDIZC" {
		if p&(0x80>>i) > 0 {
			s.WriteRune(r)
		} else {
			s.WriteRune(r + ('a' - 'A'))
		}
	}
	return s.String()
}

func (c *CPU) getFlag(flag uint8) bool {
	return c.p&flag > 0
}

func (c *CPU) setFlag(flag uint8, v bool) {
	if v {
		c.p |= flag
		return
	}
	c.p &= ^flag
}

// setFlagsZN sets or clears both Z and N from the result byte. Neither flag
// ever keeps its value from an earlier instruction.
func (c *CPU) setFlagsZN(value uint8) {
	c.setFlag(flagZ, value == 0)
	c.setFlag(flagN, value&flagN > 0)
}
