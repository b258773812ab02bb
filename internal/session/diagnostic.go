package session

import "fmt"

// Tag classifies a Diagnostic for display.
type Tag string

const (
	TagWarn  Tag = "WARN"
	TagRX    Tag = "RX"
	TagTX    Tag = "TX"
	TagError Tag = "ERROR"
	TagOK    Tag = "OK"
	TagInfo  Tag = "INFO"
)

// Diagnostic is one human-readable progress message. Line is the 1-based
// input line it refers to, or 0 for session lifecycle messages.
type Diagnostic struct {
	Tag    Tag
	Line   int
	Detail string
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("[%s] Line %d: %s", d.Tag, d.Line, d.Detail)
	}
	return fmt.Sprintf("[%s] %s", d.Tag, d.Detail)
}

const (
	detailShortRecord = "Too few values. Skipping."
	detailPortClosed  = "Serial port closed."
)
