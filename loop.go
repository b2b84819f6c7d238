package lumed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	// PollInterval is how often the loop polls the enable signal and the
	// serial input.
	PollInterval = time.Millisecond
	// SettleDelay is how long the loop waits after seeing serial data before
	// reading it, so that the rest of a frame sent in chunks has arrived.
	SettleDelay = 5 * time.Millisecond
)

// LoopOpts are options for a Loop.
type LoopOpts struct {
	// Supervisor runs the animations. The loop is its only user.
	Supervisor *Supervisor
	// Store persists the settings after every update.
	Store SettingsStore
	// Enable gates whether the strip is lit.
	Enable EnableSignal
	// Serial is the host link.
	Serial SerialInput
	// Logger is the logger to use for the loop.
	Logger *slog.Logger
}

// Loop is the main loop. It polls the enable signal and the serial input and
// feeds settings updates into the supervisor.
type Loop struct {
	opts    LoopOpts
	updates chan updateRequest

	poll   time.Duration
	settle time.Duration

	settingsMu sync.Mutex
	settings   Settings

	// lit is nil until the enable signal has been read once.
	lit *bool
}

type updateRequest struct {
	update PartialUpdate
	reply  chan updateResult
}

type updateResult struct {
	settings Settings
	err      error
}

// NewLoop creates a loop starting from the given settings, usually the ones
// loaded from opts.Store.
func NewLoop(settings Settings, opts LoopOpts) *Loop {
	return &Loop{
		opts:     opts,
		updates:  make(chan updateRequest),
		poll:     PollInterval,
		settle:   SettleDelay,
		settings: settings,
	}
}

// Settings returns the current settings.
func (l *Loop) Settings() Settings {
	l.settingsMu.Lock()
	defer l.settingsMu.Unlock()

	return l.settings
}

// Apply applies an update the same way one received over serial is applied,
// and returns the resulting settings. Run must be running. As with serial
// updates, an LED count above the supervisor's MaxLEDs is ignored.
func (l *Loop) Apply(ctx context.Context, u PartialUpdate) (Settings, error) {
	req := updateRequest{
		update: u,
		reply:  make(chan updateResult, 1),
	}

	select {
	case <-ctx.Done():
		return Settings{}, ctx.Err()
	case l.updates <- req:
	}

	select {
	case <-ctx.Done():
		return Settings{}, ctx.Err()
	case res := <-req.reply:
		return res.settings, res.err
	}
}

// Run runs the loop until ctx is done, then blanks the strip. Errors reading
// the enable signal, persisting settings or writing the strip are fatal.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		if err := l.opts.Supervisor.Stop(); err != nil {
			l.opts.Logger.Warn(
				"failed to blank LED strip on exit",
				"error", err)
		}
	}()

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	for {
		if err := l.step(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil

		case req := <-l.updates:
			err := l.apply(ctx, req.update, "admin")
			req.reply <- updateResult{l.Settings(), err}
			if err != nil {
				return err
			}

		case <-ticker.C:
		}
	}
}

func (l *Loop) step(ctx context.Context) error {
	enabled, err := l.opts.Enable.Enabled()
	if err != nil {
		return fmt.Errorf("failed to read enable signal: %w", err)
	}

	if l.lit == nil || *l.lit != enabled {
		l.lit = &enabled

		l.opts.Logger.Info(
			"enable signal changed",
			"enabled", enabled)

		if enabled {
			err = l.opts.Supervisor.SwitchTo(ctx, l.Settings())
		} else {
			err = l.opts.Supervisor.Stop()
		}
		if err != nil {
			return err
		}
	}

	if !enabled || l.opts.Serial.Available() == 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return nil
	case <-time.After(l.settle):
	}

	text, err := l.readSerial()
	if err != nil {
		l.opts.Logger.Warn(
			"failed to read serial input",
			"error", err)
	}
	if text == "" {
		return nil
	}

	l.opts.Logger.Debug(
		"received serial frame",
		"bytes", len(text))

	return l.apply(ctx, ParseFrame(text), "serial")
}

func (l *Loop) readSerial() (string, error) {
	var text []byte
	buf := make([]byte, 256)

	for {
		n, err := l.opts.Serial.Read(buf)
		text = append(text, buf[:n]...)
		if err != nil {
			return string(text), err
		}
		if n == 0 {
			return string(text), nil
		}
	}
}

func (l *Loop) apply(ctx context.Context, u PartialUpdate, source string) error {
	if u.LEDCount != nil && *u.LEDCount > l.opts.Supervisor.MaxLEDs() {
		l.opts.Logger.Warn(
			"ignoring LED count larger than the strip",
			"source", source,
			"led_count", *u.LEDCount,
			"max_leds", l.opts.Supervisor.MaxLEDs())
		u.LEDCount = nil
	}

	l.settingsMu.Lock()
	settings, changes := Merge(l.settings, u)
	l.settings = settings
	l.settingsMu.Unlock()

	if !changes.Any() {
		return nil
	}

	updatesApplied.WithLabelValues(source).Inc()

	l.opts.Logger.Info(
		"settings updated",
		"source", source,
		"led_count", settings.LEDCount,
		"color", settings.Color,
		"effect", settings.Effect,
		"changed_led_count", changes.LEDCount,
		"changed_color", changes.Color,
		"changed_effect", changes.Effect)

	if err := l.opts.Store.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	if l.lit == nil || !*l.lit {
		return nil
	}

	if err := l.opts.Supervisor.SwitchTo(ctx, settings); err != nil {
		return fmt.Errorf("failed to restart effect: %w", err)
	}
	return nil
}
