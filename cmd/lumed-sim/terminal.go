package main

import (
	"bufio"
	"fmt"
	"io"
	"sync"
	"time"

	"dev.acmcsuf.com/christmas/lib/leddraw"
)

// terminalFrameRate caps how often the strip is redrawn in the terminal.
const terminalFrameRate = 20

// terminalSink draws frames as a row of truecolor blocks.
type terminalSink struct {
	mu   sync.Mutex
	w    *bufio.Writer
	last time.Time
}

func newTerminalSink(w io.Writer) *terminalSink {
	return &terminalSink{w: bufio.NewWriter(w)}
}

func (s *terminalSink) PublishFrame(frame leddraw.LEDStrip) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if now.Sub(s.last) < time.Second/terminalFrameRate {
		return
	}
	s.last = now

	s.w.WriteString("\r")
	for _, led := range frame {
		fmt.Fprintf(s.w, "\x1b[38;2;%d;%d;%dm█", led.R, led.G, led.B)
	}
	s.w.WriteString("\x1b[0m")
	s.w.Flush()
}
