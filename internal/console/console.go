// Package console renders session diagnostics and run summaries for a terminal.
package console

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/danmuck/edgeinfer/internal/session"
)

var tagColors = map[session.Tag]*color.Color{
	session.TagWarn:  color.New(color.FgYellow),
	session.TagRX:    color.New(color.FgCyan),
	session.TagTX:    color.New(color.FgBlue),
	session.TagError: color.New(color.FgRed, color.Bold),
	session.TagOK:    color.New(color.FgGreen),
	session.TagInfo:  color.New(color.FgWhite),
}

// Printer writes one line per Diagnostic. The optional report receives the
// same lines without colour.
type Printer struct {
	mu      sync.Mutex
	out     io.Writer
	report  io.Writer
	noColor bool
}

func NewPrinter(out io.Writer, noColor bool) *Printer {
	return &Printer{out: out, noColor: noColor}
}

// WithReport mirrors every printed line to w.
func (p *Printer) WithReport(w io.Writer) *Printer {
	p.report = w
	return p
}

func (p *Printer) Print(d session.Diagnostic) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	line := d.String()
	if p.report != nil {
		if _, err := fmt.Fprintln(p.report, line); err != nil {
			return fmt.Errorf("console: write report: %w", err)
		}
	}
	c, ok := tagColors[d.Tag]
	if p.noColor || !ok {
		_, err := fmt.Fprintln(p.out, line)
		return err
	}
	c.EnableColor()
	_, err := c.Fprintln(p.out, line)
	return err
}

// RenderSummary formats a finished run as a table.
func RenderSummary(sum session.Summary) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.SetTitle("session " + sum.SessionID)

	tbl.AppendHeader(table.Row{"metric", "value"})
	tbl.AppendRows([]table.Row{
		{"port", sum.Port},
		{"lines read", sum.Lines},
		{"frames sent", sum.Sent},
		{"normal", sum.Normal},
		{"anomaly", sum.Anomaly},
		{"undetermined", sum.Undetermined},
		{"  of which timed out", sum.Timeouts},
		{"  of which read errors", sum.ReadErrors},
		{"skipped (short)", sum.Skipped},
		{"malformed", sum.Malformed},
		{"output errors", sum.OutputErrors},
		{"bytes sent", humanize.Bytes(uint64(sum.BytesSent))},
		{"elapsed", sum.Elapsed.Round(time.Millisecond).String()},
	})
	if sum.Cancelled {
		tbl.AppendFooter(table.Row{"result", "cancelled"})
	}
	return tbl.Render()
}
