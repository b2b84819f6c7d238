package lumed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"dev.acmcsuf.com/christmas/lib/leddraw"
	"dev.acmcsuf.com/christmas/lib/xcolor"
)

// SupervisorOpts are options for a Supervisor.
type SupervisorOpts struct {
	// Strip is the LED strip to draw on.
	Strip LEDStrip
	// MaxLEDs is the number of LEDs the strip physically has. Effects never
	// draw past it, whatever LED count they are asked for. Zero means
	// DefaultMaxLEDs.
	MaxLEDs int
	// Rand is the random source handed to the effects.
	Rand Rand
	// Logger is the logger to use for the supervisor.
	Logger *slog.Logger
}

// DefaultMaxLEDs is the strip length assumed when none is given.
const DefaultMaxLEDs = 300

// Supervisor owns the one running animation. It is not safe for concurrent
// use.
type Supervisor struct {
	opts    SupervisorOpts
	tick    time.Duration
	running *animation
}

// animation is a running effect task.
type animation struct {
	effect EffectID
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSupervisor creates an idle supervisor.
func NewSupervisor(opts SupervisorOpts) *Supervisor {
	if opts.MaxLEDs <= 0 {
		opts.MaxLEDs = DefaultMaxLEDs
	}
	return &Supervisor{
		opts: opts,
		tick: TickInterval,
	}
}

// MaxLEDs returns the largest LED count the supervisor will draw.
func (s *Supervisor) MaxLEDs() int {
	return s.opts.MaxLEDs
}

// Running returns the effect currently animating, if any.
func (s *Supervisor) Running() (EffectID, bool) {
	if s.running == nil {
		return 0, false
	}
	return s.running.effect, true
}

// SwitchTo stops the running animation, blanks the strip and starts the
// effect selected by settings. The effect is restarted from scratch even if
// it is already running. If the effect has no animation, the strip stays
// blank and the supervisor is left idle.
//
// The animation also stops once ctx is done.
func (s *Supervisor) SwitchTo(ctx context.Context, settings Settings) error {
	s.cancel()

	settings.LEDCount = min(max(settings.LEDCount, 0), s.opts.MaxLEDs)
	if strip, ok := s.opts.Strip.(ResizableStrip); ok {
		strip.SetLength(settings.LEDCount)
	}

	if err := s.blank(); err != nil {
		return err
	}

	label := "unknown"
	if settings.Effect >= 0 && int(settings.Effect) < len(effectNames) {
		label = settings.Effect.String()
	}
	effectSwitches.WithLabelValues(label).Inc()

	effect, ok := NewEffect(settings.Effect, settings, s.opts.Rand)
	if !ok {
		s.opts.Logger.Debug(
			"effect has no animation, leaving strip blank",
			"effect", settings.Effect)
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	a := &animation{
		effect: settings.Effect,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.running = a

	frame := make(leddraw.LEDStrip, settings.LEDCount)
	logger := s.opts.Logger.With(
		"effect", settings.Effect,
		"leds", len(frame))

	logger.Debug("starting effect")

	go func() {
		defer close(a.done)
		s.animate(ctx, logger, effect, frame)
	}()

	return nil
}

// Stop stops the running animation, if any, and blanks the strip.
func (s *Supervisor) Stop() error {
	s.cancel()
	return s.blank()
}

// cancel cancels the running animation and waits until it has returned, after
// which the strip is no longer touched by it.
func (s *Supervisor) cancel() {
	if s.running == nil {
		return
	}

	s.running.cancel()
	<-s.running.done
	s.running = nil
}

func (s *Supervisor) blank() error {
	s.opts.Strip.Fill(xcolor.RGB{})
	if err := s.opts.Strip.Flush(); err != nil {
		flushErrors.Inc()
		return fmt.Errorf("failed to blank LED strip: %w", err)
	}
	framesFlushed.Inc()
	return nil
}

func (s *Supervisor) animate(ctx context.Context, logger *slog.Logger, effect Effect, frame leddraw.LEDStrip) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		hold := effect.Render(frame)

		for i, color := range frame {
			s.opts.Strip.SetPixel(i, color)
		}

		if err := s.opts.Strip.Flush(); err != nil {
			flushErrors.Inc()
			logger.Error(
				"error writing LED strip",
				"error", err)
		} else {
			framesFlushed.Inc()
		}

		if hold {
			<-ctx.Done()
			logger.Debug("effect stopped")
			return
		}

		select {
		case <-ctx.Done():
			logger.Debug("effect stopped")
			return
		case <-ticker.C:
		}
	}
}
