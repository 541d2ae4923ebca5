package ui

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/nevisdale/m6502/internal/cpu"
	"github.com/nevisdale/m6502/internal/logger"
)

// P - pause
// S - one tick and stop
// I - one instruction and stop
// R - reset

const (
	screenWidth  = 400
	screenHeight = 440

	disasmLines = 7
	zeroPageRow = 16
	logLines    = 4
)

var (
	bgColor      = color.RGBA{50, 50, 50, 255}
	haltedColor  = color.RGBA{120, 40, 40, 255}
	pendingColor = color.RGBA{40, 90, 40, 255}
)

type UI struct {
	cpu    *cpu.CPU
	disasm map[uint16]string
	scale  int
	tps    int

	paused bool
	err    error
}

func New(c *cpu.CPU, scale, tps int) *UI {
	return &UI{
		cpu:    c,
		disasm: c.Disassemble(),
		scale:  scale,
		tps:    tps,
		paused: true,
	}
}

func (ui *UI) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		ui.paused = !ui.paused
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		ui.cpu.Reset()
		ui.disasm = ui.cpu.Disassemble()
		ui.err = nil
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		ui.paused = true
		ui.report(ui.cpu.Step())
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyI) {
		ui.paused = true
		ui.report(ui.cpu.ExecuteInstruction())
	}

	if !ui.paused && !ui.cpu.Halted() {
		ui.report(ui.cpu.Step())
	}
	return nil
}

func (ui *UI) report(err error) {
	if err == nil || ui.err != nil {
		return
	}
	ui.err = err
	ui.paused = true
	logger.Logf("ui", "stopped: %v", err)
}

func (ui *UI) info() string {
	s := ui.cpu.State()

	var b strings.Builder
	fmt.Fprintf(&b, " TPS: %d/%0.0f", ui.tps, ebiten.ActualTPS())
	switch {
	case ui.err != nil:
		b.WriteString("  FAULT\n")
	case s.Halted:
		b.WriteString("  HALTED\n")
	case ui.paused:
		b.WriteString("  PAUSED\n")
	default:
		b.WriteString("  RUNNING\n")
	}
	fmt.Fprintf(&b, " STATUS: %s\n", s.Flags)
	fmt.Fprintf(&b, " IP: $%04X  SP: $%04X\n", s.IP, s.SP)
	fmt.Fprintf(&b, " A: $%02X [%03d]", s.A, s.A)
	fmt.Fprintf(&b, " X: $%02X [%03d]", s.X, s.X)
	fmt.Fprintf(&b, " Y: $%02X [%03d]\n", s.Y, s.Y)
	fmt.Fprintf(&b, " CYCLES: %d  PENDING: %d\n\n", s.Cycles, s.Pending)

	// the instruction in flight started before IP
	at := int(s.IP)
	if s.Pending > 0 {
		for at > 0 && ui.disasm[uint16(at)] == "" {
			at--
		}
	}

	var before []string
	for i := at - 1; i >= 0 && len(before) < disasmLines; i-- {
		if l, ok := ui.disasm[uint16(i)]; ok {
			before = append([]string{" " + l}, before...)
		}
	}
	for _, l := range before {
		b.WriteString(l + "\n")
	}
	b.WriteString("*" + ui.disasm[uint16(at)] + "\n")
	for i, n := at+1, 0; i <= 0xffff && n < disasmLines; i++ {
		if l, ok := ui.disasm[uint16(i)]; ok {
			b.WriteString(" " + l + "\n")
			n++
		}
	}

	b.WriteString("\n")
	zp, _ := ui.cpu.Dump(0x00, 0x100)
	for row := 0; row < len(zp); row += zeroPageRow {
		fmt.Fprintf(&b, " %02X:", row)
		for _, v := range zp[row : row+zeroPageRow] {
			fmt.Fprintf(&b, " %02X", v)
		}
		b.WriteString("\n")
	}

	if ui.err != nil {
		fmt.Fprintf(&b, "\n %v\n", ui.err)
	}

	var tail strings.Builder
	logger.Tail(&tail, logLines)
	if tail.Len() > 0 {
		b.WriteString("\n")
		for _, l := range strings.Split(strings.TrimSuffix(tail.String(), "\n"), "\n") {
			b.WriteString(" " + l + "\n")
		}
	}
	return b.String()
}

func (ui *UI) Draw(screen *ebiten.Image) {
	bg := bgColor
	switch {
	case ui.err != nil || ui.cpu.Halted():
		bg = haltedColor
	case ui.cpu.Pending() > 0:
		bg = pendingColor
	}
	vector.DrawFilledRect(screen, 0, 0, screenWidth, screenHeight, bg, false)
	ebitenutil.DebugPrintAt(screen, ui.info(), 0, 0)
}

func (ui *UI) Layout(_, _ int) (int, int) {
	return screenWidth, screenHeight
}

func RunUI(ui *UI) error {
	ebiten.SetWindowTitle("m6502")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(screenWidth*ui.scale, screenHeight*ui.scale)
	ebiten.SetTPS(ui.tps)
	return ebiten.RunGame(ui)
}
