package lumed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// SerialInput is the receiving side of the host link.
type SerialInput interface {
	// Available returns the number of bytes that can be read without
	// blocking.
	Available() int
	// Read reads up to len(p) buffered bytes. It never blocks and returns
	// 0, nil if nothing is buffered.
	Read(p []byte) (int, error)
}

// SerialBufferSize is the most bytes a SerialBuffer holds. Older bytes are
// dropped to make room for newer ones.
const SerialBufferSize = 4096

// SerialBuffer is a SerialInput fed by a background reader. It turns a
// blocking io.Reader such as a UART or stdin into the polled, non-blocking
// input the loop expects.
type SerialBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	err error
}

var _ SerialInput = (*SerialBuffer)(nil)

// NewSerialBuffer creates an empty SerialBuffer.
func NewSerialBuffer() *SerialBuffer {
	return &SerialBuffer{}
}

// Pump copies bytes from r into the buffer until ctx is done, r returns
// io.EOF or r fails. A read that returns no data and no error is retried.
func (b *SerialBuffer) Pump(ctx context.Context, r io.Reader) error {
	chunk := make([]byte, 256)
	for ctx.Err() == nil {
		n, err := r.Read(chunk)
		if n > 0 {
			b.Write(chunk[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			err = fmt.Errorf("failed to read serial input: %w", err)

			b.mu.Lock()
			b.err = err
			b.mu.Unlock()

			return err
		}
	}
	return ctx.Err()
}

// Write appends p to the buffer, dropping the oldest bytes past
// SerialBufferSize. It never fails.
func (b *SerialBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if n > SerialBufferSize {
		p = p[n-SerialBufferSize:]
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf.Write(p)
	if over := b.buf.Len() - SerialBufferSize; over > 0 {
		b.buf.Next(over)
	}
	return n, nil
}

// Available implements SerialInput.
func (b *SerialBuffer) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Len()
}

// Read implements SerialInput. Once the buffer is drained, it returns the
// error that stopped Pump, if any.
func (b *SerialBuffer) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.buf.Len() == 0 {
		return 0, b.err
	}
	return b.buf.Read(p)
}
