package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/bradleyjkemp/memviz"
	"github.com/pkg/profile"

	"github.com/nevisdale/m6502/internal/config"
	"github.com/nevisdale/m6502/internal/cpu"
	"github.com/nevisdale/m6502/internal/logger"
	"github.com/nevisdale/m6502/internal/memory"
	"github.com/nevisdale/m6502/internal/program"
	"github.com/nevisdale/m6502/internal/script"
	"github.com/nevisdale/m6502/internal/ui"
)

// LDA #$42, TAX, STA $10, LDY $10, HLT
var demoProgram = []byte{0xa9, 0x42, 0xaa, 0x85, 0x10, 0xa4, 0x10, 0xff}

type options struct {
	configPath string
	disasm     bool
	scriptPath string
	ui         bool
	step       bool
	memvizPath string
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("m6502: ")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: m6502 [flags] [program]\n\n")
		flag.PrintDefaults()
	}

	var opts options
	flag.StringVar(&opts.configPath, "config", "", "JSON config `file`")
	flag.BoolVar(&opts.disasm, "disasm", false, "print the disassembled program before running")
	flag.StringVar(&opts.scriptPath, "script", "", "run a Lua `file` instead of a program")
	flag.BoolVar(&opts.ui, "ui", false, "open the debugger window")
	flag.BoolVar(&opts.step, "step", false, "step one instruction per key press")
	flag.StringVar(&opts.memvizPath, "memviz", "", "write a graph of the final cpu state to a .dot `file`")
	trace := flag.Bool("trace", false, "log unmapped opcodes and halts")
	maxTicks := flag.Int("max-ticks", 0, "stop after n ticks, 0 means never")
	profileMode := flag.String("profile", "", "write a cpu or mem profile")
	flag.Parse()

	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		if cfg, err = config.Load(opts.configPath); err != nil {
			log.Fatal(err)
		}
	}

	// flags given on the command line win over the config file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "trace":
			cfg.Trace = *trace
		case "max-ticks":
			cfg.MaxTicks = *maxTicks
		case "profile":
			cfg.Profile.Mode = *profileMode
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	if err := run(cfg, opts, flag.Arg(0)); err != nil {
		logger.Tail(os.Stderr, cfg.LogTail)
		log.Fatal(err)
	}
}

func run(cfg *config.Config, opts options, path string) error {
	switch cfg.Profile.Mode {
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(cfg.Profile.Path), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(cfg.Profile.Path), profile.NoShutdownHook).Stop()
	}

	if cfg.LogEcho {
		logger.SetEcho(os.Stderr)
	}

	c := cpu.NewCPU(cpu.WithTrace(cfg.Trace))

	if opts.scriptPath != "" {
		h := script.NewHost(c)
		defer h.Close()
		if err := h.RunFile(opts.scriptPath); err != nil {
			return err
		}
		return report(os.Stdout, c, cfg, opts)
	}

	prog := demoProgram
	if path != "" {
		var err error
		if prog, err = program.ReadFile(path); err != nil {
			return err
		}
	}
	if err := c.LoadProgram(prog); err != nil {
		return err
	}

	if opts.disasm {
		end := int(memory.ProgramOrigin) + len(prog) - 1
		for _, l := range c.DisassembleRange(memory.ProgramOrigin, uint16(end)) {
			fmt.Println(l.Text)
		}
		fmt.Println()
	}

	switch {
	case opts.ui:
		if err := ui.RunUI(ui.New(c, cfg.UI.Scale, cfg.UI.TPS)); err != nil {
			return fmt.Errorf("ui: %w", err)
		}
	case opts.step:
		if err := runStep(c, os.Stdin, os.Stdout); err != nil {
			return err
		}
	default:
		if err := runHeadless(c, cfg.MaxTicks); err != nil {
			return err
		}
	}

	return report(os.Stdout, c, cfg, opts)
}

var errTickLimit = errors.New("tick limit reached before halt")

func runHeadless(c *cpu.CPU, maxTicks int) error {
	if maxTicks == 0 {
		return c.Run()
	}
	if _, err := c.RunFor(maxTicks); err != nil {
		return err
	}
	if !c.Halted() {
		logger.Logf("m6502", "%v: %d", errTickLimit, maxTicks)
	}
	return nil
}

func report(w io.Writer, c *cpu.CPU, cfg *config.Config, opts options) error {
	fmt.Fprintln(w, c.State())

	if cfg.DumpTo > cfg.DumpFrom {
		b, err := c.Dump(cfg.DumpFrom, cfg.DumpTo)
		if err != nil {
			return err
		}
		hexDump(w, cfg.DumpFrom, b)
	}

	if opts.memvizPath != "" {
		f, err := os.Create(opts.memvizPath)
		if err != nil {
			return fmt.Errorf("memviz: %w", err)
		}
		defer f.Close()
		st := c.State()
		memviz.Map(f, &st)
	}

	if cfg.LogTail > 0 && !cfg.LogEcho {
		logger.Tail(os.Stderr, cfg.LogTail)
	}
	return nil
}

func hexDump(w io.Writer, from int, b []byte) {
	for i := 0; i < len(b); i += 16 {
		end := min(i+16, len(b))
		fmt.Fprintf(w, "%04X:", from+i)
		for _, v := range b[i:end] {
			fmt.Fprintf(w, " %02X", v)
		}
		fmt.Fprintln(w)
	}
}
