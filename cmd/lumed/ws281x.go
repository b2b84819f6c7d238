package main

import (
	"dev.acmcsuf.com/christmas/lib/xcolor"
	"dev.acmcsuf.com/lumed"
	"libdb.so/ledctl"
)

// RGBController is a controller for RGB LEDs.
type RGBController interface {
	SetRGBAt(i int, color ledctl.RGB)
	Flush() error
}

// ws281xStrip drives the first n LEDs of a WS281x controller. The controller
// is sized for the longest strip supported, so shorter strips leave the tail
// dark.
type ws281xStrip struct {
	ctrl RGBController
	n    int
}

var _ lumed.LEDStrip = (*ws281xStrip)(nil)

func newWS281xStrip(ctrl RGBController, n int) *ws281xStrip {
	return &ws281xStrip{ctrl: ctrl, n: n}
}

func (s *ws281xStrip) SetPixel(i int, color xcolor.RGB) {
	if i >= 0 && i < s.n {
		s.ctrl.SetRGBAt(i, ledctl.RGB(color))
	}
}

func (s *ws281xStrip) Fill(color xcolor.RGB) {
	for i := 0; i < s.n; i++ {
		s.ctrl.SetRGBAt(i, ledctl.RGB(color))
	}
}

func (s *ws281xStrip) Flush() error {
	return s.ctrl.Flush()
}
