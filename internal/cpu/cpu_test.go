package cpu

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nevisdale/m6502/internal/logger"
	"github.com/nevisdale/m6502/internal/memory"
)

func newLoaded(t *testing.T, program ...byte) *CPU {
	t.Helper()
	c := NewCPU()
	require.NoError(t, c.LoadProgram(program))
	return c
}

func Test_Scenarios(t *testing.T) {
	type testArgs struct {
		program   []byte
		setup     func(c *CPU)
		expectedA uint8
		expectedZ bool
		expectedN bool
	}

	testDo := func(t *testing.T, in testArgs) {
		c := newLoaded(t, in.program...)
		if in.setup != nil {
			in.setup(c)
		}

		require.NoError(t, c.Run())

		assert.Equal(t, in.expectedA, c.A(), "A register")
		assert.Equal(t, in.expectedZ, c.Flags().Zero, "Zero flag")
		assert.Equal(t, in.expectedN, c.Flags().Negative, "Negative flag")
		assert.True(t, c.Halted(), "halted")
	}

	t.Run("LDA immediate", func(t *testing.T) {
		testDo(t, testArgs{
			program:   []byte{0xa9, 0x42, 0xff},
			expectedA: 0x42,
		})
	})

	t.Run("LDA immediate zero", func(t *testing.T) {
		testDo(t, testArgs{
			program:   []byte{0xa9, 0x00, 0xff},
			expectedZ: true,
		})
	})

	t.Run("LDA zero page X", func(t *testing.T) {
		testDo(t, testArgs{
			program: []byte{0xb5, 0x00, 0xff},
			setup: func(c *CPU) {
				c.mem.Write8(0x01, 0xff)
				c.x = 1
			},
			expectedA: 0xff,
			expectedN: true,
		})
	})

	t.Run("LDA indirect X", func(t *testing.T) {
		testDo(t, testArgs{
			program: []byte{0xa1, 0x10, 0xff},
			setup: func(c *CPU) {
				c.x = 4
				c.mem.Write8(0x14, 0x20)
				c.mem.Write8(0x20, 0x37)
			},
			expectedA: 0x37,
		})
	})

	t.Run("unmapped opcode is skipped", func(t *testing.T) {
		c := newLoaded(t, 0x02, 0xff)
		before := c.State()

		require.NoError(t, c.Run())

		after := c.State()
		assert.True(t, after.Halted)
		assert.Equal(t, before.A, after.A)
		assert.Equal(t, before.X, after.X)
		assert.Equal(t, before.Y, after.Y)
		assert.Equal(t, before.Flags, after.Flags)
		assert.Equal(t, uint16(0x8002), after.IP)
		assert.Equal(t, uint64(2), after.Cycles)
	})
}

// effective address and setup for every addressing mode a load can use
var loadModes = []struct {
	mode    addrMode
	operand []byte
	x, y    uint8
	mem     map[uint16]uint8
	target  uint16
	ticks   uint64
}{
	{mode: addrModeIMM, ticks: 2},
	{mode: addrModeZP, operand: []byte{0x10}, target: 0x0010, ticks: 4},
	{mode: addrModeZPX, operand: []byte{0x10}, x: 3, target: 0x0013, ticks: 5},
	{mode: addrModeZPY, operand: []byte{0x10}, y: 3, target: 0x0013, ticks: 5},
	{mode: addrModeABS, operand: []byte{0x34, 0x12}, target: 0x1234, ticks: 4},
	{mode: addrModeABSX, operand: []byte{0x34, 0x12}, x: 5, target: 0x1239, ticks: 5},
	{mode: addrModeABSY, operand: []byte{0x34, 0x12}, y: 5, target: 0x1239, ticks: 5},
	{
		mode: addrModeINDX, operand: []byte{0x20}, x: 4,
		mem:    map[uint16]uint8{0x24: 0x00, 0x25: 0x30},
		target: 0x3000, ticks: 9,
	},
	{
		mode: addrModeINDY, operand: []byte{0x20}, y: 4,
		mem:    map[uint16]uint8{0x20: 0x00, 0x21: 0x30},
		target: 0x3004, ticks: 9,
	},
}

func Test_Loads(t *testing.T) {
	instrs := []struct {
		name    string
		opcodes map[addrMode]uint8
		reg     func(c *CPU) uint8
	}{
		{
			name: "LDA",
			opcodes: map[addrMode]uint8{
				addrModeIMM: 0xa9, addrModeZP: 0xa5, addrModeZPX: 0xb5, addrModeABS: 0xad,
				addrModeABSX: 0xbd, addrModeABSY: 0xb9, addrModeINDX: 0xa1, addrModeINDY: 0xb1,
			},
			reg: (*CPU).A,
		},
		{
			name: "LDX",
			opcodes: map[addrMode]uint8{
				addrModeIMM: 0xa2, addrModeZP: 0xa6, addrModeZPY: 0xb6, addrModeABS: 0xae,
				addrModeABSY: 0xbe,
			},
			reg: (*CPU).X,
		},
		{
			name: "LDY",
			opcodes: map[addrMode]uint8{
				addrModeIMM: 0xa0, addrModeZP: 0xa4, addrModeZPX: 0xb4, addrModeABS: 0xac,
				addrModeABSX: 0xbc,
			},
			reg: (*CPU).Y,
		},
	}

	values := []struct {
		value     uint8
		initP     uint8
		expectedP uint8
	}{
		// stale Z and N from an earlier instruction must be cleared
		{value: 0x42, initP: flagC | flagZ | flagN, expectedP: flagC},
		{value: 0x00, initP: flagC | flagN, expectedP: flagC | flagZ},
		{value: 0x80, initP: flagC | flagZ, expectedP: flagC | flagN},
	}

	for _, in := range instrs {
		for _, m := range loadModes {
			opcode, ok := in.opcodes[m.mode]
			if !ok {
				continue
			}
			for _, v := range values {
				t.Run(fmt.Sprintf("%s %s $%02X", in.name, m.mode, v.value), func(t *testing.T) {
					operand := m.operand
					if m.mode == addrModeIMM {
						operand = []byte{v.value}
					}
					c := newLoaded(t, append([]byte{opcode}, operand...)...)
					c.x, c.y, c.p = m.x, m.y, v.initP
					for addr, b := range m.mem {
						c.mem.Write8(addr, b)
					}
					if m.mode != addrModeIMM {
						c.mem.Write8(m.target, v.value)
					}

					require.NoError(t, c.ExecuteInstruction())

					assert.Equal(t, v.value, in.reg(c), "register")
					assert.Equal(t, v.expectedP, c.p, "P register")
					assert.Equal(t, memory.ProgramOrigin+1+uint16(len(operand)), c.IP(), "IP")
					assert.Equal(t, m.ticks, c.Cycles(), "ticks")
					assert.Zero(t, c.Pending())
				})
			}
		}
	}
}

func Test_Stores(t *testing.T) {
	instrs := []struct {
		name    string
		opcodes map[addrMode]uint8
		set     func(c *CPU, v uint8)
	}{
		{
			name: "STA",
			opcodes: map[addrMode]uint8{
				addrModeZP: 0x85, addrModeZPX: 0x95, addrModeABS: 0x8d, addrModeABSX: 0x9d,
				addrModeABSY: 0x99, addrModeINDX: 0x81, addrModeINDY: 0x91,
			},
			set: func(c *CPU, v uint8) { c.a = v },
		},
		{
			name:    "STX",
			opcodes: map[addrMode]uint8{addrModeZP: 0x86, addrModeZPY: 0x96, addrModeABS: 0x8e},
			set:     func(c *CPU, v uint8) { c.x = v },
		},
		{
			name:    "STY",
			opcodes: map[addrMode]uint8{addrModeZP: 0x84, addrModeZPX: 0x94, addrModeABS: 0x8c},
			set:     func(c *CPU, v uint8) { c.y = v },
		},
	}

	for _, in := range instrs {
		for _, m := range loadModes {
			opcode, ok := in.opcodes[m.mode]
			if !ok {
				continue
			}
			t.Run(in.name+" "+m.mode.String(), func(t *testing.T) {
				c := newLoaded(t, append([]byte{opcode}, m.operand...)...)
				c.x, c.y = m.x, m.y
				for addr, b := range m.mem {
					c.mem.Write8(addr, b)
				}
				// no store mode indexes by the register it stores
				value := uint8(0x5a)
				in.set(c, value)
				c.mem.Write8(m.target, 0xee)
				c.p = flagN

				require.NoError(t, c.ExecuteInstruction())

				assert.Equal(t, value, c.Peek(m.target), "stored value")
				assert.Equal(t, flagN, c.p, "stores don't touch flags")
				assert.Equal(t, memory.ProgramOrigin+1+uint16(len(m.operand)), c.IP(), "IP")
				assert.Equal(t, m.ticks, c.Cycles(), "ticks")
			})
		}
	}
}

func Test_Addressing(t *testing.T) {
	t.Run("zero page X wraps inside the zero page", func(t *testing.T) {
		c := newLoaded(t, 0xb5, 0xff, 0xff)
		c.x = 0x02
		c.mem.Write8(0x0001, 0x11)
		c.mem.Write8(0x0101, 0x22)

		require.NoError(t, c.Run())
		assert.Equal(t, uint8(0x11), c.A())
	})

	t.Run("absolute X has no carry into the high byte", func(t *testing.T) {
		c := newLoaded(t, 0xbd, 0xf0, 0x20, 0xff)
		c.x = 0x20
		c.mem.Write8(0x2010, 0x11)
		c.mem.Write8(0x2110, 0x22)

		require.NoError(t, c.Run())
		assert.Equal(t, uint8(0x11), c.A())
	})

	t.Run("indirect X pointer wraps in the zero page", func(t *testing.T) {
		c := newLoaded(t, 0xa1, 0xff, 0xff)
		c.mem.Write8(0x00ff, 0x34)
		c.mem.Write8(0x0000, 0x12)
		c.mem.Write8(0x1234, 0x5a)

		require.NoError(t, c.Run())
		assert.Equal(t, uint8(0x5a), c.A())
	})

	t.Run("indirect Y pointer wraps in the zero page", func(t *testing.T) {
		c := newLoaded(t, 0xb1, 0xff, 0xff)
		c.y = 0x01
		c.mem.Write8(0x00ff, 0x34)
		c.mem.Write8(0x0000, 0x12)
		c.mem.Write8(0x1235, 0x5a)

		require.NoError(t, c.Run())
		assert.Equal(t, uint8(0x5a), c.A())
	})

	t.Run("indirect Y has no carry into the high byte", func(t *testing.T) {
		c := newLoaded(t, 0xb1, 0x40, 0xff)
		c.y = 0x20
		c.mem.Write8(0x0040, 0xf0)
		c.mem.Write8(0x0041, 0x12)
		c.mem.Write8(0x1210, 0x11)
		c.mem.Write8(0x1310, 0x22)

		require.NoError(t, c.Run())
		assert.Equal(t, uint8(0x11), c.A())
	})
}

func Test_Transfers(t *testing.T) {
	type testArgs struct {
		opcode    uint8
		init      func(c *CPU)
		get       func(c *CPU) uint8
		expected  uint8
		expectedP uint8
	}

	testDo := func(t *testing.T, in testArgs) {
		c := newLoaded(t, in.opcode)
		in.init(c)

		require.NoError(t, c.ExecuteInstruction())

		assert.Equal(t, in.expected, in.get(c))
		assert.Equal(t, in.expectedP, c.p, "P register")
		assert.Equal(t, uint64(1), c.Cycles())
	}

	t.Run("TAX zero", func(t *testing.T) {
		testDo(t, testArgs{
			opcode:    0xaa,
			init:      func(c *CPU) { c.a, c.x, c.p = 0, 0x33, flagN },
			get:       (*CPU).X,
			expected:  0,
			expectedP: flagZ,
		})
	})

	t.Run("TAY negative", func(t *testing.T) {
		testDo(t, testArgs{
			opcode:    0xa8,
			init:      func(c *CPU) { c.a, c.p = 0x90, flagZ },
			get:       (*CPU).Y,
			expected:  0x90,
			expectedP: flagN,
		})
	})

	t.Run("TXA", func(t *testing.T) {
		testDo(t, testArgs{
			opcode:    0x8a,
			init:      func(c *CPU) { c.x, c.p = 0x12, flagC },
			get:       (*CPU).A,
			expected:  0x12,
			expectedP: flagC,
		})
	})

	t.Run("TYA", func(t *testing.T) {
		testDo(t, testArgs{
			opcode:    0x98,
			init:      func(c *CPU) { c.y = 0xff },
			get:       (*CPU).A,
			expected:  0xff,
			expectedP: flagN,
		})
	})
}

func Test_FlagInstructions(t *testing.T) {
	tests := []struct {
		name     string
		opcode   uint8
		initP    uint8
		expected uint8
	}{
		{"CLC", 0x18, 0xff, 0xff &^ flagC},
		{"SEC", 0x38, 0x00, flagC},
		{"CLI", 0x58, 0xff, 0xff &^ flagI},
		{"SEI", 0x78, 0x00, flagI},
		{"CLV", 0xb8, 0xff, 0xff &^ flagV},
		{"CLD", 0xd8, 0xff, 0xff &^ flagD},
		{"SED", 0xf8, 0x00, flagD},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newLoaded(t, tt.opcode)
			c.p = tt.initP

			require.NoError(t, c.ExecuteInstruction())
			assert.Equal(t, tt.expected, c.p)
		})
	}
}

func Test_LoadProgram(t *testing.T) {
	t.Run("never executes", func(t *testing.T) {
		c := newLoaded(t, 0xa9, 0x42, 0xff)

		assert.Equal(t, uint8(0), c.A())
		assert.Equal(t, uint64(0), c.Cycles())
		assert.Equal(t, memory.ProgramOrigin, c.IP())
		assert.False(t, c.Halted())
		assert.Equal(t, uint8(0x00), c.Peek(memory.ResetVector))
		assert.Equal(t, uint8(0x80), c.Peek(memory.ResetVector+1))
	})

	t.Run("too large", func(t *testing.T) {
		c := NewCPU()
		err := c.LoadProgram(make([]byte, memory.MaxProgramSize+1))
		assert.ErrorIs(t, err, ErrProgramTooLarge)
		assert.Equal(t, uint8(0), c.Peek(memory.ResetVector+1), "nothing written")
	})

	t.Run("largest program fits", func(t *testing.T) {
		c := NewCPU()
		assert.NoError(t, c.LoadProgram(make([]byte, memory.MaxProgramSize)))
	})

	t.Run("reload resets a halted cpu", func(t *testing.T) {
		c := newLoaded(t, 0xff)
		require.NoError(t, c.Run())
		require.True(t, c.Halted())

		require.NoError(t, c.LoadProgram([]byte{0xa9, 0x01, 0xff}))
		assert.False(t, c.Halted())
		require.NoError(t, c.Run())
		assert.Equal(t, uint8(0x01), c.A())
	})
}

func Test_Reset(t *testing.T) {
	c := newLoaded(t, 0xa9, 0x80, 0xa5)
	require.NoError(t, c.ExecuteInstruction())
	// leave LDA $nn half done
	require.NoError(t, c.Step())
	require.NotZero(t, c.Pending())

	c.Reset()
	first := c.State()
	c.Reset()
	second := c.State()

	assert.Equal(t, first, second, "reset is idempotent")
	assert.Equal(t, memory.ProgramOrigin, first.IP)
	assert.Zero(t, first.Pending)
	assert.Equal(t, uint8(0x80), first.A, "registers survive reset")
	assert.True(t, first.Flags.Negative, "flags survive reset")
}

func Test_Step(t *testing.T) {
	t.Run("one micro-op per tick", func(t *testing.T) {
		c := newLoaded(t, 0xad, 0x34, 0x12, 0xff)
		c.mem.Write8(0x1234, 0x99)

		require.NoError(t, c.Step())
		assert.Equal(t, 3, c.Pending())
		assert.Equal(t, uint8(0), c.A())

		require.NoError(t, c.Step())
		require.NoError(t, c.Step())
		assert.Equal(t, 1, c.Pending())
		assert.Equal(t, uint8(0), c.A())

		require.NoError(t, c.Step())
		assert.Equal(t, 0, c.Pending())
		assert.Equal(t, uint8(0x99), c.A())
		assert.Equal(t, uint64(4), c.Cycles())
	})

	t.Run("halted step is a no-op", func(t *testing.T) {
		c := newLoaded(t, 0xff)
		require.NoError(t, c.Run())
		cycles := c.Cycles()

		assert.NoError(t, c.Step())
		assert.Equal(t, cycles, c.Cycles())
		assert.Equal(t, memory.ProgramOrigin+1, c.IP())
	})
}

func Test_RunFor(t *testing.T) {
	t.Run("stops at the tick limit", func(t *testing.T) {
		c := newLoaded(t, 0xea, 0xea, 0xea, 0xea, 0xff)

		n, err := c.RunFor(3)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.False(t, c.Halted())
		assert.Equal(t, memory.ProgramOrigin+3, c.IP())
	})

	t.Run("stops at halt", func(t *testing.T) {
		c := newLoaded(t, 0xa9, 0x01, 0xff)

		n, err := c.RunFor(100)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.True(t, c.Halted())
	})
}

func Test_OutOfRange(t *testing.T) {
	t.Run("HLT at $FFFF halts", func(t *testing.T) {
		c := NewCPU()
		c.mem.Write8(0xffff, opcodeHLT)
		c.ip = 0xffff

		require.NoError(t, c.Run())
		assert.True(t, c.Halted())
		assert.NoError(t, c.Fault())
		assert.Equal(t, uint16(0xffff), c.IP())
	})

	t.Run("operand at $FFFF loads", func(t *testing.T) {
		c := NewCPU()
		c.mem.Write8(0xfffe, 0xa9)
		c.mem.Write8(0xffff, 0x42)
		c.ip = 0xfffe

		require.NoError(t, c.ExecuteInstruction())
		assert.Equal(t, uint8(0x42), c.A())
		assert.Equal(t, uint16(0xffff), c.IP(), "IP is not wrapped")

		err := c.Step()
		assert.ErrorIs(t, err, ErrOutOfRange, "next fetch is past the end")
		assert.True(t, IsFault(err))
		assert.True(t, c.Halted())
		assert.Equal(t, uint8(0x42), c.A())
	})

	t.Run("fault is sticky until reset", func(t *testing.T) {
		c := NewCPU()
		c.ip = 0xffff

		require.NoError(t, c.Step(), "the byte at $FFFF is still fetched")
		assert.ErrorIs(t, c.Step(), ErrOutOfRange)
		assert.Equal(t, uint16(0xffff), c.IP(), "IP is not clamped or wrapped")

		cycles := c.Cycles()
		assert.ErrorIs(t, c.Step(), ErrOutOfRange)
		assert.ErrorIs(t, c.Run(), ErrOutOfRange)
		assert.Equal(t, cycles, c.Cycles())

		c.Reset()
		assert.NoError(t, c.Fault())
		assert.False(t, c.Halted())
		assert.NoError(t, c.Step())
	})

	t.Run("operand fetch past $FFFF", func(t *testing.T) {
		c := NewCPU()
		c.mem.Write8(0xffff, 0xad)
		c.ip = 0xffff

		require.NoError(t, c.Step())
		assert.ErrorIs(t, c.Step(), ErrOutOfRange)
		assert.Zero(t, c.Pending())
	})

	t.Run("running off the end of memory", func(t *testing.T) {
		c := newLoaded(t, 0xea)

		err := c.Run()
		assert.ErrorIs(t, err, ErrOutOfRange)
		assert.Equal(t, uint16(0xffff), c.IP())
	})
}

func Test_FaultLogging(t *testing.T) {
	type testArgs struct {
		trace    bool
		expected int
	}

	testDo := func(t *testing.T, in testArgs) {
		logger.Clear()
		defer logger.Clear()

		c := NewCPU(WithTrace(in.trace))
		c.ip = 0xffff
		c.mem.Write8(0xffff, 0xea)
		require.NoError(t, c.Step())
		require.Error(t, c.Step())

		assert.Len(t, logger.Entries(), in.expected)
	}

	t.Run("quiet without trace", func(t *testing.T) {
		testDo(t, testArgs{trace: false, expected: 0})
	})

	t.Run("logged with trace", func(t *testing.T) {
		testDo(t, testArgs{trace: true, expected: 1})
	})
}

func Test_AllOpcodes(t *testing.T) {
	mapped := 0
	for op := 0; op < 0x100; op++ {
		c := newLoaded(t, uint8(op), 0x10, 0x00, 0xff)
		assert.NoError(t, c.ExecuteInstruction(), "opcode $%02X", op)
		if c.instrs[op].name != "???" {
			mapped++
		}
	}
	assert.Equal(t, 44, mapped)
}

func Test_Dump(t *testing.T) {
	c := newLoaded(t, 0xa9, 0x42, 0xff)

	b, err := c.Dump(0x8000, 0x8003)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xa9, 0x42, 0xff}, b)

	b[0] = 0
	assert.Equal(t, uint8(0xa9), c.Peek(0x8000), "dump is a copy")

	_, err = c.Dump(0xff00, 0x10001)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func Test_State(t *testing.T) {
	c := newLoaded(t, 0xa9, 0x80, 0xff)
	require.NoError(t, c.Run())

	assert.Equal(t, "IP=$8003 A=$80 X=$00 Y=$00 SP=$0000 P=Nvubdizc CYC=3", c.State().String())
}
