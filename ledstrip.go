package lumed

import (
	"sync"

	"dev.acmcsuf.com/christmas/lib/leddraw"
	"dev.acmcsuf.com/christmas/lib/xcolor"
)

// LEDStrip is the physical LED strip.
type LEDStrip interface {
	// SetPixel sets the LED at index i. Indices past the end of the strip
	// are ignored.
	SetPixel(i int, color xcolor.RGB)
	// Fill sets every LED on the strip.
	Fill(color xcolor.RGB)
	// Flush writes the pixels to the hardware. Nothing is displayed until
	// Flush is called.
	Flush() error
}

// ResizableStrip is an LEDStrip that can be told how many of its LEDs are in
// use.
type ResizableStrip interface {
	LEDStrip
	SetLength(n int)
}

// EnableSignal is the sense input gating whether the strip is lit at all.
type EnableSignal interface {
	Enabled() (bool, error)
}

// AlwaysEnabled is an EnableSignal that is always high.
type AlwaysEnabled struct{}

// Enabled implements EnableSignal.
func (AlwaysEnabled) Enabled() (bool, error) { return true, nil }

// FrameSink receives a copy of every flushed frame.
type FrameSink interface {
	PublishFrame(frame leddraw.LEDStrip)
}

// MirrorStrip is an LEDStrip that keeps a copy of the pixels written to the
// underlying strip and publishes it to a FrameSink on every flush. Only the
// LEDs in use are published.
type MirrorStrip struct {
	strip LEDStrip
	sink  FrameSink

	mu   sync.Mutex
	buf  leddraw.LEDStrip
	used int
}

var _ ResizableStrip = (*MirrorStrip)(nil)

// NewMirrorStrip creates a MirrorStrip of n LEDs over strip. strip may be nil,
// in which case only the sink sees the frames.
func NewMirrorStrip(strip LEDStrip, n int, sink FrameSink) *MirrorStrip {
	return &MirrorStrip{
		strip: strip,
		sink:  sink,
		buf:   make(leddraw.LEDStrip, n),
		used:  n,
	}
}

// SetLength implements ResizableStrip. n is clamped to the strip length.
func (s *MirrorStrip) SetLength(n int) {
	s.mu.Lock()
	s.used = min(max(n, 0), len(s.buf))
	s.mu.Unlock()
}

// SetPixel implements LEDStrip.
func (s *MirrorStrip) SetPixel(i int, color xcolor.RGB) {
	s.mu.Lock()
	if i >= 0 && i < len(s.buf) {
		s.buf[i] = color
	}
	s.mu.Unlock()

	if s.strip != nil {
		s.strip.SetPixel(i, color)
	}
}

// Fill implements LEDStrip.
func (s *MirrorStrip) Fill(color xcolor.RGB) {
	s.mu.Lock()
	fill(s.buf, color)
	s.mu.Unlock()

	if s.strip != nil {
		s.strip.Fill(color)
	}
}

// Flush implements LEDStrip.
func (s *MirrorStrip) Flush() error {
	if s.strip != nil {
		if err := s.strip.Flush(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.sink.PublishFrame(s.buf[:s.used])
	s.mu.Unlock()
	return nil
}

// LEDs returns a copy of the last written pixels in use.
func (s *MirrorStrip) LEDs() leddraw.LEDStrip {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append(leddraw.LEDStrip(nil), s.buf[:s.used]...)
}

// FrameSinks publishes to several sinks in order.
type FrameSinks []FrameSink

// PublishFrame implements FrameSink.
func (s FrameSinks) PublishFrame(frame leddraw.LEDStrip) {
	for _, sink := range s {
		sink.PublishFrame(frame)
	}
}
