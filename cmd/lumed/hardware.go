package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"dev.acmcsuf.com/lumed"
	"github.com/tarm/serial"
	"github.com/warthog618/go-gpiocdev"
)

// serialReadTimeout bounds how long a read blocks, and so how long the serial
// pump takes to notice a shutdown.
const serialReadTimeout = 100 * time.Millisecond

func openSerial(name string, baud int) (*serial.Port, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		ReadTimeout: serialReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %q: %w", name, err)
	}
	return port, nil
}

// timeoutReader hides the empty io.EOF reads a serial port returns when its
// read timeout expires.
type timeoutReader struct {
	r io.Reader
}

func (r timeoutReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n == 0 && errors.Is(err, io.EOF) {
		return 0, nil
	}
	return n, err
}

// senseLine is the enable input, pulled down so that a disconnected host
// reads as disabled.
type senseLine struct {
	line *gpiocdev.Line
}

var _ lumed.EnableSignal = (*senseLine)(nil)

func openSenseLine(chip string, offset int) (*senseLine, error) {
	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithConsumer("lumed"))
	if err != nil {
		return nil, fmt.Errorf("failed to request sense line %s:%d: %w", chip, offset, err)
	}
	return &senseLine{line: line}, nil
}

func (s *senseLine) Enabled() (bool, error) {
	v, err := s.line.Value()
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

func (s *senseLine) Close() error {
	return s.line.Close()
}
