package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/edgeinfer/internal/classify"
	"github.com/danmuck/edgeinfer/internal/link"
	"github.com/danmuck/edgeinfer/internal/record"
	"github.com/danmuck/edgeinfer/internal/testutil/testlog"
)

func TestWorkerDeliversOrderedProgressThenDone(t *testing.T) {
	testlog.Start(t)
	port := link.NewLoopback(2, byFirstValue(map[int]string{
		1: "similarity = 90\n",
		2: "similarity = 10\n",
		3: "similarity = 85\n",
	}))
	sess := New(port, classify.NewRouter(&strings.Builder{}, &strings.Builder{}), testConfig(2))
	input := strings.Join([]string{vector(1, 2), vector(2, 2), "9", vector(3, 2)}, "\n")

	w := Start(context.Background(), sess, record.NewReader(strings.NewReader(input), 2), 64)

	var lines []int
	for d := range w.Progress() {
		if d.Line > 0 {
			lines = append(lines, d.Line)
		}
	}
	res, ok := <-w.Done()
	require.True(t, ok)
	require.NoError(t, res.Err)
	assert.Equal(t, []int{1, 2, 3, 4}, lines)
	assert.Equal(t, 2, res.Summary.Normal)
	assert.Equal(t, 1, res.Summary.Anomaly)
	assert.Equal(t, 1, res.Summary.Skipped)

	_, ok = <-w.Done()
	assert.False(t, ok, "done is closed after the single result")
}

func TestWorkerSlowConsumerGetsEveryDiagnosticInOrder(t *testing.T) {
	testlog.Start(t)
	const lines = 500
	port := link.NewLoopback(2, byFirstValue(map[int]string{1: "similarity = 90\n"}))
	sess := New(port, classify.NewRouter(&strings.Builder{}, &strings.Builder{}), testConfig(2))
	input := strings.Repeat("1\n", lines)

	w := Start(context.Background(), sess, record.NewReader(strings.NewReader(input), 2), 1)
	require.Same(t, sess, w.Session())

	// Nobody reads Progress yet; the pipeline must still run to completion.
	require.Eventually(t, func() bool {
		return w.Session().State() == StateClosed
	}, 5*time.Second, 5*time.Millisecond, "pipeline stalled on an unread progress channel")

	var got []Diagnostic
	for d := range w.Progress() {
		got = append(got, d)
	}
	res := <-w.Done()
	require.NoError(t, res.Err)
	assert.Equal(t, lines, res.Summary.Skipped)

	require.Len(t, got, lines+2)
	assert.Equal(t, TagOK, got[0].Tag)
	for i := 1; i <= lines; i++ {
		assert.Equal(t, Diagnostic{Tag: TagWarn, Line: i, Detail: detailShortRecord}, got[i])
	}
	assert.Equal(t, Diagnostic{Tag: TagInfo, Detail: detailPortClosed}, got[lines+1])
}

func TestWorkerCancelStopsAtRecordBoundary(t *testing.T) {
	testlog.Start(t)
	var w *Worker
	ready := make(chan struct{})
	// The cancel lands while record 1 is in flight; it must still complete.
	respond := func([]float32) []byte {
		<-ready
		w.Cancel()
		return []byte("similarity = 90\n")
	}
	port := link.NewLoopback(2, respond)
	sess := New(port, classify.NewRouter(&strings.Builder{}, &strings.Builder{}), testConfig(2))
	input := strings.Join([]string{vector(1, 2), vector(2, 2), vector(3, 2)}, "\n")

	w = Start(context.Background(), sess, record.NewReader(strings.NewReader(input), 2), 64)
	close(ready)

	var tags []Tag
	for d := range w.Progress() {
		tags = append(tags, d.Tag)
	}
	res := <-w.Done()
	require.NoError(t, res.Err)
	assert.True(t, res.Summary.Cancelled)
	assert.Equal(t, 1, res.Summary.Sent)
	assert.Equal(t, 1, res.Summary.Normal)
	assert.Equal(t, []Tag{TagOK, TagRX, TagInfo, TagInfo}, tags)
	assert.True(t, port.Closed())
}
