package console

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/edgeinfer/internal/session"
)

func TestPrinterPlainAndReport(t *testing.T) {
	var out, report bytes.Buffer
	p := NewPrinter(&out, true).WithReport(&report)

	require.NoError(t, p.Print(session.Diagnostic{Tag: session.TagRX, Line: 1, Detail: "similarity = 92.3"}))
	require.NoError(t, p.Print(session.Diagnostic{Tag: session.TagInfo, Detail: "Serial port closed."}))

	want := "[RX] Line 1: similarity = 92.3\n[INFO] Serial port closed.\n"
	assert.Equal(t, want, out.String())
	assert.Equal(t, want, report.String())
}

func TestPrinterColorKeepsReportPlain(t *testing.T) {
	var out, report bytes.Buffer
	p := NewPrinter(&out, false).WithReport(&report)

	require.NoError(t, p.Print(session.Diagnostic{Tag: session.TagWarn, Line: 2, Detail: "Too few values. Skipping."}))
	assert.Contains(t, out.String(), "[WARN] Line 2: Too few values. Skipping.")
	assert.Contains(t, out.String(), "\x1b[")
	assert.Equal(t, "[WARN] Line 2: Too few values. Skipping.\n", report.String())
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary(session.Summary{
		SessionID: "abc",
		Port:      "/dev/ttyACM0",
		Lines:     3,
		Sent:      2,
		Normal:    1,
		Anomaly:   1,
		Skipped:   1,
		BytesSent: 1120,
		Cancelled: true,
		Elapsed:   1500 * time.Millisecond,
	})
	assert.Contains(t, out, "session abc")
	assert.Contains(t, out, "/dev/ttyACM0")
	assert.Contains(t, out, "1.1 kB")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, "cancelled")
}
