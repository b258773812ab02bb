package lines

import "strings"

// Reassembler turns an arbitrarily fragmented byte stream into text lines.
//
// `\n`, `\r\n` and a bare `\r` all terminate a line. A `\r` completes its line
// immediately; a `\n` arriving right after it, in the same Feed or the next
// one, is treated as the second half of the same terminator. Bytes that are
// not valid UTF-8 are dropped when a line is emitted, so a multibyte rune
// split across two reads is still decoded intact.
//
// A Reassembler is not safe for concurrent use.
type Reassembler struct {
	buf    []byte
	lastCR bool
}

func New() *Reassembler {
	return &Reassembler{}
}

// Feed appends p and returns the lines it completed, in order, each with
// surrounding whitespace trimmed. The trailing fragment is held for the next call.
func (r *Reassembler) Feed(p []byte) []string {
	var out []string
	for _, b := range p {
		switch b {
		case '\r':
			out = append(out, r.take())
			r.lastCR = true
			continue
		case '\n':
			if r.lastCR {
				r.lastCR = false
				continue
			}
			out = append(out, r.take())
		default:
			r.buf = append(r.buf, b)
		}
		r.lastCR = false
	}
	return out
}

// Pending returns the incomplete trailing fragment without consuming it.
func (r *Reassembler) Pending() string {
	return strings.ToValidUTF8(string(r.buf), "")
}

// Reset discards the buffered fragment and terminator state.
func (r *Reassembler) Reset() {
	r.buf = r.buf[:0]
	r.lastCR = false
}

func (r *Reassembler) take() string {
	line := strings.TrimSpace(strings.ToValidUTF8(string(r.buf), ""))
	r.buf = r.buf[:0]
	return line
}
