// Package logger keeps a single, bounded, in-memory log for the whole
// program. Consecutive identical entries are folded into one entry with a
// repeat count. Entries can optionally be echoed as they arrive.
package logger

import (
	"fmt"
	"io"
)

// maximum number of entries in the central logger.
const maxCentral = 256

// only one central log for the entire application.
var central = newLogger(maxCentral)

// Log adds an entry to the central logger.
func Log(tag, detail string) {
	central.log(tag, detail)
}

// Logf adds a formatted entry to the central logger.
func Logf(tag, format string, args ...any) {
	central.log(tag, fmt.Sprintf(format, args...))
}

// Clear all entries from central logger.
func Clear() {
	central.clear()
}

// Write contents of central logger to io.Writer. Returns false if there was
// nothing to write.
func Write(output io.Writer) bool {
	return central.write(output)
}

// Tail writes the last N entries to io.Writer.
func Tail(output io.Writer, number int) {
	central.tail(output, number)
}

// SetEcho prints new log entries to output as they arrive. A nil output
// turns echoing off.
func SetEcho(output io.Writer) {
	central.setEcho(output)
}

// Entries returns a copy of the current entries.
func Entries() []Entry {
	return central.copy()
}
