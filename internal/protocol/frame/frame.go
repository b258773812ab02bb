package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"
)

// ValueSize is the wire width of one value.
const ValueSize = 4

var (
	ErrArity     = errors.New("frame: value count does not match frame arity")
	ErrTruncated = errors.New("frame: length is not a multiple of value size")
)

// Len returns the wire length of a frame carrying n values.
func Len(n int) int {
	return n * ValueSize
}

// Encode serializes exactly n values as consecutive little-endian float32s.
// There is no header, length prefix or checksum.
func Encode(values []float64, n int) ([]byte, error) {
	if len(values) != n {
		return nil, fmt.Errorf("%w: got=%d want=%d", ErrArity, len(values), n)
	}
	buf := make([]byte, Len(n))
	for i, v := range values {
		PutValue(buf[i*ValueSize:], v)
	}
	return buf, nil
}

// PutValue writes v as one little-endian float32 into b[0:4].
func PutValue(b []byte, v float64) {
	binary.LittleEndian.PutUint32(b[:ValueSize], math.Float32bits(float32(v)))
}

// Decode reinterprets b as little-endian float32s.
func Decode(b []byte) ([]float32, error) {
	if len(b)%ValueSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(b))
	}
	out := make([]float32, len(b)/ValueSize)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*ValueSize:]))
	}
	return out, nil
}

// WritePaced writes payload one value at a time and sleeps delay between
// consecutive values. The receiver has no flow control.
func WritePaced(w io.Writer, payload []byte, delay time.Duration) (int, error) {
	if len(payload)%ValueSize != 0 {
		return 0, fmt.Errorf("%w: %d bytes", ErrTruncated, len(payload))
	}
	written := 0
	for off := 0; off < len(payload); off += ValueSize {
		if off > 0 && delay > 0 {
			time.Sleep(delay)
		}
		n, err := w.Write(payload[off : off+ValueSize])
		written += n
		if err != nil {
			return written, err
		}
		if n != ValueSize {
			return written, io.ErrShortWrite
		}
	}
	return written, nil
}
