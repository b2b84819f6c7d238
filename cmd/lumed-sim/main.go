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
	"github.com/go-chi/chi/v5"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"libdb.so/hserve"
)

var (
	httpAddr     = ":9001"
	settingsPath = "lumed-sim.json"
	maxLEDs      = 60
	seed         = uint64(0)
	verbose      = false
)

func init() {
	pflag.StringVarP(&httpAddr, "http-addr", "a", httpAddr, "HTTP server address for the preview websocket")
	pflag.StringVarP(&settingsPath, "settings", "s", settingsPath, "persisted LED settings (JSON), created if missing")
	pflag.IntVar(&maxLEDs, "max-leds", maxLEDs, "number of simulated LEDs")
	pflag.Uint64Var(&seed, "seed", seed, "random seed for the twinkle effects, 0 for the time")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose logging")
}

func main() {
	log.SetFlags(0)
	pflag.Parse()

	level := slog.LevelInfo
	if verbose {
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

	if err := run(ctx, logger); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	store := lumed.FileStore{Path: settingsPath}

	settings, err := store.Load()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		settings = lumed.DefaultSettings
		if err := store.Save(settings); err != nil {
			return err
		}
	}

	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	preview := lumed.NewPreviewServer(lumed.PreviewOpts{
		Logger: logger.With("component", "preview"),
	})

	sinks := lumed.FrameSinks{preview}
	if isatty.IsTerminal(os.Stdout.Fd()) {
		sinks = append(sinks, newTerminalSink(os.Stdout))
	}

	supervisor := lumed.NewSupervisor(lumed.SupervisorOpts{
		Strip:   lumed.NewMirrorStrip(nil, maxLEDs, sinks),
		MaxLEDs: maxLEDs,
		Rand:    lumed.NewRand(seed),
		Logger:  logger.With("component", "supervisor"),
	})

	serialInput := lumed.NewSerialBuffer()

	loop := lumed.NewLoop(settings, lumed.LoopOpts{
		Supervisor: supervisor,
		Store:      store,
		Enable:     lumed.AlwaysEnabled{},
		Serial:     serialInput,
		Logger:     logger.With("component", "loop"),
	})

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		logger.Info("reading xLume commands from stdin")

		// stdin closing is not a reason to stop the simulation.
		if err := serialInput.Pump(ctx, os.Stdin); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	})

	errg.Go(func() error {
		return loop.Run(ctx)
	})

	errg.Go(func() error {
		r := chi.NewRouter()
		r.Handle("/preview", preview)

		logger.Info(
			"starting preview HTTP server",
			"addr", httpAddr)

		return hserve.ListenAndServe(ctx, httpAddr, r)
	})

	return errg.Wait()
}
