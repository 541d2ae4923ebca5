// Package program reads 6502 programs from disk.
//
// Three encodings are understood: raw bytes, hex text and iNES cartridge
// images. Hex text is a list of bytes separated by whitespace or commas,
// each written as two hex digits with an optional 0x or $ prefix. A # or ;
// starts a comment that runs to the end of the line.
package program

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var ErrSyntax = errors.New("bad program text")

// ReadFile picks the encoding from the file extension: .hex and .txt are
// hex text, .nes is an iNES image, anything else goes through Parse.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't read the program: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".hex", ".txt":
		return ParseHex(string(data))
	case ".nes":
		return ParseINES(bytes.NewReader(data))
	}
	return Parse(data), nil
}

// Parse returns the program encoded by data. Data that reads as hex text is
// decoded, anything else is taken as raw bytes.
func Parse(data []byte) []byte {
	if isText(data) {
		if p, err := ParseHex(string(data)); err == nil && len(p) > 0 {
			return p
		}
	}
	return bytes.Clone(data)
}

func isText(data []byte) bool {
	if !utf8.Valid(data) {
		return false
	}
	for _, r := range string(data) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func ParseHex(text string) ([]byte, error) {
	var program []byte

	sc := bufio.NewScanner(strings.NewReader(text))
	line := 0
	for sc.Scan() {
		line++
		s := sc.Text()
		if i := strings.IndexAny(s, "#;"); i >= 0 {
			s = s[:i]
		}

		fields := strings.FieldsFunc(s, func(r rune) bool {
			return r == ',' || unicode.IsSpace(r)
		})
		for _, f := range fields {
			b, err := parseByte(f)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %q", ErrSyntax, line, f)
			}
			program = append(program, b)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan program: %w", err)
	}
	return program, nil
}

func parseByte(s string) (uint8, error) {
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		s = s[2:]
	case strings.HasPrefix(s, "$"):
		s = s[1:]
	}
	if len(s) != 2 {
		return 0, ErrSyntax
	}
	v, err := strconv.ParseUint(s, 16, 8)
	return uint8(v), err
}
