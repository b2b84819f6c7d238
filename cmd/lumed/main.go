package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"dev.acmcsuf.com/lumed"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"
	"libdb.so/hserve"
	"libdb.so/ledctl"
)

var ws281xConfig = ledctl.WS281xConfig{
	ColorOrder:   ledctl.GRBOrder,
	ColorModel:   ledctl.RGBModel,
	PWMFrequency: 800000,
	DMAChannel:   10,
}

func main() {
	log.SetFlags(0)

	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	logHandler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05 PM", // extended time.Kitchen
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})

	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, logger, cfg); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, logger *slog.Logger, cfg daemonConfig) error {
	store := lumed.FileStore{Path: cfg.SettingsPath}

	settings, err := loadSettings(store, cfg.CreateSettings, logger)
	if err != nil {
		return err
	}

	if settings.LEDCount > cfg.MaxLEDs {
		logger.Warn(
			"LED count exceeds the strip, only the strip's LEDs are driven",
			"led_count", settings.LEDCount,
			"max_leds", cfg.MaxLEDs)
	}

	ws281xCfg := ws281xConfig
	ws281xCfg.NumPixels = cfg.MaxLEDs
	ws281xCfg.GPIOPins = []int{cfg.LEDGPIO}

	ws281x, err := ledctl.NewWS281x(ws281xCfg)
	if err != nil {
		return fmt.Errorf("failed to create a WS281x controller: %v", err)
	}

	port, err := openSerial(cfg.SerialDevice, cfg.SerialBaud)
	if err != nil {
		return err
	}
	defer port.Close()

	sense, err := openSenseLine(cfg.GPIOChip, cfg.SenseLine)
	if err != nil {
		return err
	}
	defer sense.Close()

	preview := lumed.NewPreviewServer(lumed.PreviewOpts{
		Logger: logger.With("component", "preview"),
	})

	strip := lumed.NewMirrorStrip(newWS281xStrip(ws281x, cfg.MaxLEDs), cfg.MaxLEDs, preview)

	supervisor := lumed.NewSupervisor(lumed.SupervisorOpts{
		Strip:   strip,
		MaxLEDs: cfg.MaxLEDs,
		Rand:    lumed.NewRand(uint64(time.Now().UnixNano())),
		Logger:  logger.With("component", "supervisor"),
	})

	serialInput := lumed.NewSerialBuffer()

	loop := lumed.NewLoop(settings, lumed.LoopOpts{
		Supervisor: supervisor,
		Store:      store,
		Enable:     sense,
		Serial:     serialInput,
		Logger:     logger.With("component", "loop"),
	})

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		logger.Info(
			"reading xLume commands",
			"serial", cfg.SerialDevice,
			"baud", cfg.SerialBaud)

		if err := serialInput.Pump(ctx, timeoutReader{port}); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	})

	errg.Go(func() error {
		return loop.Run(ctx)
	})

	if cfg.AdminAddr != "" {
		errg.Go(func() error {
			admin := newAdminHandler(loop, preview, cfg.MaxLEDs, cfg.Verbose)

			logger.Info(
				"starting admin HTTP server",
				"addr", cfg.AdminAddr)

			return hserve.ListenAndServe(ctx, cfg.AdminAddr, admin)
		})
	}

	return errg.Wait()
}

// loadSettings loads the persisted settings. A missing file is only
// recovered from if create is set, by writing the defaults.
func loadSettings(store lumed.FileStore, create bool, logger *slog.Logger) (lumed.Settings, error) {
	settings, err := store.Load()
	if err == nil {
		return settings, nil
	}

	if !create || !errors.Is(err, fs.ErrNotExist) {
		return lumed.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}

	logger.Info(
		"settings file missing, writing defaults",
		"path", store.Path)

	if err := store.Save(lumed.DefaultSettings); err != nil {
		return lumed.Settings{}, err
	}
	return lumed.DefaultSettings, nil
}
