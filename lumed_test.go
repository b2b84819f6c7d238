package lumed

import (
	"sync"
	"testing"
	"time"

	"dev.acmcsuf.com/christmas/lib/leddraw"
	"dev.acmcsuf.com/christmas/lib/xcolor"
	"github.com/google/go-cmp/cmp"
)

func assertEq[T any](t *testing.T, expected, actual T, opts ...cmp.Option) {
	t.Helper()

	if diff := cmp.Diff(expected, actual, opts...); diff != "" {
		t.Errorf("unexpected diff (-want +got):\n%s", diff)
	}
}

// eventually polls cond until it returns true or a second has passed.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// fakeStrip is an in-memory LEDStrip that records every flushed frame.
type fakeStrip struct {
	mu     sync.Mutex
	leds   leddraw.LEDStrip
	frames []leddraw.LEDStrip
	fills  []int // len(frames) at every Fill
	err    error
}

var _ LEDStrip = (*fakeStrip)(nil)

func newFakeStrip(n int) *fakeStrip {
	return &fakeStrip{leds: make(leddraw.LEDStrip, n)}
}

func (s *fakeStrip) SetPixel(i int, color xcolor.RGB) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i >= 0 && i < len(s.leds) {
		s.leds[i] = color
	}
}

func (s *fakeStrip) Fill(color xcolor.RGB) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fill(s.leds, color)
	s.fills = append(s.fills, len(s.frames))
}

func (s *fakeStrip) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, append(leddraw.LEDStrip(nil), s.leds...))
	return nil
}

// Frames returns a copy of the frames flushed so far.
func (s *fakeStrip) Frames() []leddraw.LEDStrip {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]leddraw.LEDStrip(nil), s.frames...)
}

// FramesSinceFill returns the frames flushed since the last Fill, starting
// with the filled frame itself.
func (s *fakeStrip) FramesSinceFill() []leddraw.LEDStrip {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.fills) == 0 {
		return nil
	}
	return append([]leddraw.LEDStrip(nil), s.frames[s.fills[len(s.fills)-1]:]...)
}

// LastFrame returns the last flushed frame, or nil.
func (s *fakeStrip) LastFrame() leddraw.LEDStrip {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

func solidFrame(n int, color xcolor.RGB) leddraw.LEDStrip {
	frame := make(leddraw.LEDStrip, n)
	fill(frame, color)
	return frame
}

// scriptedRand returns draws in order, then 1 forever. It records the width
// of every draw.
type scriptedRand struct {
	draws []uint32
	calls []int
}

func (r *scriptedRand) Bits(n int) uint32 {
	r.calls = append(r.calls, n)
	if len(r.draws) == 0 {
		return 1
	}
	v := r.draws[0]
	r.draws = r.draws[1:]
	return v
}

func cmpEqual[T any](expected, actual T) bool {
	return cmp.Equal(expected, actual)
}
