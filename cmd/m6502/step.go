package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/nevisdale/m6502/internal/cpu"
)

// runStep executes one instruction per key press. Any key steps, q quits.
// When in is a terminal it is put in raw mode so keys arrive without Enter.
func runStep(c *cpu.CPU, in *os.File, out io.Writer) error {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("couldn't set raw mode: %w", err)
		}
		defer func() { _ = term.Restore(fd, oldState) }()
	}
	return stepLoop(c, in, out)
}

func stepLoop(c *cpu.CPU, in io.Reader, out io.Writer) error {
	buf := make([]byte, 1)
	for !c.Halted() {
		// memory may have changed under the program, so decode afresh
		next := c.DisassembleRange(c.IP(), c.IP())[0]
		fmt.Fprintf(out, "%s\r\n  %s\r\n", c.State(), next.Text)

		n, err := in.Read(buf)
		if err == io.EOF || (n > 0 && (buf[0] == 'q' || buf[0] == 0x03)) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read key: %w", err)
		}

		if err := c.ExecuteInstruction(); err != nil {
			return err
		}
	}
	return nil
}
