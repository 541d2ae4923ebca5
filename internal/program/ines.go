package program

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	inesMagic        = 0x1a53454e
	prgBankSizeBytes = 0x4000
	trainerSizeBytes = 512
)

// ParseINES returns the first PRG ROM bank of an iNES image. CHR ROM and
// the mapper number are ignored: the program runs from flat memory.
func ParseINES(r io.Reader) ([]byte, error) {
	var header struct {
		Magic      uint32
		PrgRomSize uint8
		ChrRomSize uint8
		Flags6     uint8
		_          [9]uint8
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("couldn't read the header: %w", err)
	}
	if header.Magic != inesMagic {
		return nil, fmt.Errorf("%w: not an iNES image", ErrSyntax)
	}
	if header.PrgRomSize == 0 {
		return nil, fmt.Errorf("%w: no PRG ROM", ErrSyntax)
	}

	// bit 2 of flags6 marks a trainer before PRG ROM
	if header.Flags6&0x4 != 0 {
		if _, err := io.CopyN(io.Discard, r, trainerSizeBytes); err != nil {
			return nil, fmt.Errorf("couldn't skip the trainer: %w", err)
		}
	}

	prg := make([]byte, prgBankSizeBytes)
	if _, err := io.ReadFull(r, prg); err != nil {
		return nil, fmt.Errorf("couldn't read PRG ROM: %w", err)
	}
	return prg, nil
}
