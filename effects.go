package lumed

import (
	"fmt"
	"math"
	"time"

	"dev.acmcsuf.com/christmas/lib/leddraw"
	"dev.acmcsuf.com/christmas/lib/xcolor"
)

// TickInterval is the time between two frames of a repeating effect.
const TickInterval = 50 * time.Millisecond

// EffectID identifies an effect as sent by the host.
type EffectID int

const (
	EffectStaticColor EffectID = iota
	EffectGradient
	EffectStaticPulse
	EffectStaticTwinkle
	EffectOff
	EffectColorWave
	EffectColorCycle
	EffectDynamicPulse
	EffectDynamicTwinkle
)

var effectNames = [...]string{
	EffectStaticColor:    "static-color",
	EffectGradient:       "gradient",
	EffectStaticPulse:    "static-pulse",
	EffectStaticTwinkle:  "static-twinkle",
	EffectOff:            "off",
	EffectColorWave:      "color-wave",
	EffectColorCycle:     "color-cycle",
	EffectDynamicPulse:   "dynamic-pulse",
	EffectDynamicTwinkle: "dynamic-twinkle",
}

func (id EffectID) String() string {
	if id >= 0 && int(id) < len(effectNames) {
		return effectNames[id]
	}
	return fmt.Sprintf("unknown(%d)", int(id))
}

// Effect is a running animation. Each effect value carries its own state,
// which is dropped together with the value when the animation stops.
type Effect interface {
	// Render draws the next tick into frame, which has one entry per LED. If
	// hold is true, the frame is final and Render must not be called again.
	Render(frame leddraw.LEDStrip) (hold bool)
}

// NewEffect creates a fresh instance of the effect id for the given settings.
// It returns false if the id has no animation, which is the case for
// EffectOff and unknown ids.
func NewEffect(id EffectID, s Settings, rng Rand) (Effect, bool) {
	n := max(s.LEDCount, 0)

	switch id {
	case EffectStaticColor:
		return staticColor{s.Color}, true
	case EffectGradient:
		return gradient{s.Color}, true
	case EffectStaticPulse:
		return &staticPulse{color: s.Color}, true
	case EffectStaticTwinkle:
		return &staticTwinkle{
			color:      s.Color,
			brightness: make([]int, n),
			rng:        rng,
		}, true
	case EffectColorWave:
		return &colorWave{}, true
	case EffectColorCycle:
		return &colorCycle{}, true
	case EffectDynamicPulse:
		return newDynamicPulse(), true
	case EffectDynamicTwinkle:
		return &dynamicTwinkle{
			brightness: make([]int, n),
			colors:     make([]xcolor.RGB, n),
			rng:        rng,
		}, true
	default:
		return nil, false
	}
}

// scale scales c by brightness/255.
func scale(c xcolor.RGB, brightness int) xcolor.RGB {
	return xcolor.RGB{
		R: uint8(int(c.R) * brightness / 255),
		G: uint8(int(c.G) * brightness / 255),
		B: uint8(int(c.B) * brightness / 255),
	}
}

// sineColor maps a phase to a color by running the three channels through
// sines shifted by roughly 120 and 240 degrees.
func sineColor(x float64) xcolor.RGB {
	return xcolor.RGB{
		R: uint8(math.Sin(x)*127 + 128),
		G: uint8(math.Sin(x+2.094)*127 + 128),
		B: uint8(math.Sin(x+4.188)*127 + 128),
	}
}

func fill(frame leddraw.LEDStrip, c xcolor.RGB) {
	for i := range frame {
		frame[i] = c
	}
}

type staticColor struct {
	color xcolor.RGB
}

func (e staticColor) Render(frame leddraw.LEDStrip) bool {
	fill(frame, e.color)
	return true
}

// gradient fades from the color to its complement along the strip.
type gradient struct {
	color xcolor.RGB
}

func (e gradient) Render(frame leddraw.LEDStrip) bool {
	from := e.color
	to := xcolor.RGB{R: 255 - from.R, G: 255 - from.G, B: 255 - from.B}

	lerp := func(a, b uint8, f float64) uint8 {
		return uint8(float64(a) + float64(int(b)-int(a))*f)
	}

	n := len(frame)
	for i := range frame {
		f := 1.0
		if n > 1 {
			f = float64(i) / float64(n-1)
		}
		frame[i] = xcolor.RGB{
			R: lerp(from.R, to.R, f),
			G: lerp(from.G, to.G, f),
			B: lerp(from.B, to.B, f),
		}
	}
	return true
}

const (
	pulseStep   = 5
	pulsePeriod = 2*(255/pulseStep) + 1 // 0 up to 255, 255 again, then down to 5
)

// staticPulse fades the whole strip in and out in steps of 5.
type staticPulse struct {
	color xcolor.RGB
	tick  int
}

func (e *staticPulse) brightness() int {
	const peak = 255 / pulseStep
	p := e.tick % pulsePeriod
	if p <= peak {
		return p * pulseStep
	}
	return 255 - (p-peak-1)*pulseStep
}

func (e *staticPulse) Render(frame leddraw.LEDStrip) bool {
	fill(frame, scale(e.color, e.brightness()))
	e.tick++
	return false
}

const (
	twinkleFade = 15
	// twinkleBits is the width of the draw that must come out zero for a dark
	// pixel to sparkle, giving a 1 in 16 chance.
	twinkleBits = 4
)

// twinkle advances a single pixel's brightness. It returns true if the pixel
// just sparkled. The random source is only drawn from for dark pixels.
func twinkle(brightness *int, rng Rand) bool {
	switch {
	case *brightness == 0 && rng.Bits(twinkleBits) == 0:
		*brightness = 255
		return true
	case *brightness > 0:
		*brightness = max(0, *brightness-twinkleFade)
	}
	return false
}

type staticTwinkle struct {
	color      xcolor.RGB
	brightness []int
	rng        Rand
}

func (e *staticTwinkle) Render(frame leddraw.LEDStrip) bool {
	for i := range frame {
		twinkle(&e.brightness[i], e.rng)
		frame[i] = scale(e.color, e.brightness[i])
	}
	return false
}

type colorWave struct {
	pos int
}

func (e *colorWave) Render(frame leddraw.LEDStrip) bool {
	for i := range frame {
		frame[i] = sineColor(float64(i+e.pos) * 0.3)
	}
	e.pos++
	return false
}

type colorCycle struct {
	pos int
}

func (e *colorCycle) Render(frame leddraw.LEDStrip) bool {
	fill(frame, sineColor(float64(e.pos)*0.05))
	e.pos++
	return false
}

const (
	wheelStep       = 5
	dynamicPulseDim = 10
)

// dynamicPulse walks the color wheel while bouncing the brightness.
type dynamicPulse struct {
	r, g, b    int
	brightness int
	direction  int
}

func newDynamicPulse() *dynamicPulse {
	return &dynamicPulse{r: 255, direction: 1}
}

// stepWheel moves the color one step along the wheel. The rules are checked
// in order and the first match wins.
func (e *dynamicPulse) stepWheel() {
	switch {
	case e.r == 255 && e.g < 255 && e.b == 0:
		e.g = min(255, e.g+wheelStep)
	case e.g == 255 && e.r > 0 && e.b == 0:
		e.r = max(0, e.r-wheelStep)
	case e.g == 255 && e.b < 255 && e.r == 0:
		e.b = min(255, e.b+wheelStep)
	case e.b == 255 && e.g > 0 && e.r == 0:
		e.g = max(0, e.g-wheelStep)
	case e.b == 255 && e.r < 255 && e.g == 0:
		e.r = min(255, e.r+wheelStep)
	case e.r == 255 && e.b > 0 && e.g == 0:
		e.b = max(0, e.b-wheelStep)
	}
}

func (e *dynamicPulse) stepBrightness() {
	e.brightness += e.direction * dynamicPulseDim
	switch {
	case e.brightness >= 255:
		e.brightness = 255
		e.direction = -1
	case e.brightness <= 0:
		e.brightness = 0
		e.direction = 1
	}
}

func (e *dynamicPulse) color() xcolor.RGB {
	return xcolor.RGB{R: uint8(e.r), G: uint8(e.g), B: uint8(e.b)}
}

func (e *dynamicPulse) Render(frame leddraw.LEDStrip) bool {
	e.stepWheel()
	e.stepBrightness()
	fill(frame, scale(e.color(), e.brightness))
	return false
}

// dynamicTwinkle is like staticTwinkle, but every sparkle picks a new random
// color.
type dynamicTwinkle struct {
	brightness []int
	colors     []xcolor.RGB
	rng        Rand
}

func (e *dynamicTwinkle) Render(frame leddraw.LEDStrip) bool {
	for i := range frame {
		if twinkle(&e.brightness[i], e.rng) {
			e.colors[i] = xcolor.RGB{
				R: uint8(e.rng.Bits(8)),
				G: uint8(e.rng.Bits(8)),
				B: uint8(e.rng.Bits(8)),
			}
		}
		frame[i] = scale(e.colors[i], e.brightness[i])
	}
	return false
}
