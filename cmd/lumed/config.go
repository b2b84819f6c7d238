package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
)

// daemonConfig is the daemon's configuration. Values come from the defaults,
// then the TOML file given by --config, then flags set on the command line.
type daemonConfig struct {
	SettingsPath   string `toml:"settings"`
	CreateSettings bool   `toml:"create_settings"`
	SerialDevice   string `toml:"serial_device"`
	SerialBaud     int    `toml:"serial_baud"`
	GPIOChip       string `toml:"gpio_chip"`
	SenseLine      int    `toml:"sense_line"`
	LEDGPIO        int    `toml:"led_gpio"`
	MaxLEDs        int    `toml:"max_leds"`
	AdminAddr      string `toml:"admin_addr"`
	Verbose        bool   `toml:"verbose"`
}

var defaultConfig = daemonConfig{
	SettingsPath: "settings.json",
	SerialDevice: "/dev/serial0",
	SerialBaud:   115200,
	GPIOChip:     "gpiochip0",
	SenseLine:    17,
	LEDGPIO:      12,
	MaxLEDs:      300,
	AdminAddr:    "127.0.0.1:9002",
}

func bindFlags(fs *pflag.FlagSet, cfg *daemonConfig) {
	fs.StringVarP(&cfg.SettingsPath, "settings", "s", cfg.SettingsPath, "persisted LED settings (JSON)")
	fs.BoolVar(&cfg.CreateSettings, "create-settings", cfg.CreateSettings, "write default settings if the settings file is missing")
	fs.StringVar(&cfg.SerialDevice, "serial", cfg.SerialDevice, "serial device connected to the host")
	fs.IntVar(&cfg.SerialBaud, "baud", cfg.SerialBaud, "serial baud rate")
	fs.StringVar(&cfg.GPIOChip, "gpio-chip", cfg.GPIOChip, "GPIO chip of the sense line")
	fs.IntVar(&cfg.SenseLine, "sense-line", cfg.SenseLine, "GPIO line enabling the strip")
	fs.IntVar(&cfg.LEDGPIO, "led-gpio", cfg.LEDGPIO, "GPIO pin driving the LED strip")
	fs.IntVar(&cfg.MaxLEDs, "max-leds", cfg.MaxLEDs, "maximum number of LEDs on the strip")
	fs.StringVarP(&cfg.AdminAddr, "http-admin-addr", "A", cfg.AdminAddr, "HTTP admin server address, empty to disable")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "verbose logging")
}

// loadConfig parses args. Flags given on the command line override the
// config file.
func loadConfig(args []string) (daemonConfig, error) {
	cfg := defaultConfig
	var configPath string

	fs := pflag.NewFlagSet("lumed", pflag.ContinueOnError)
	fs.StringVarP(&configPath, "config", "c", "", "TOML config file")
	bindFlags(fs, &cfg)

	if err := fs.Parse(args); err != nil {
		return daemonConfig{}, err
	}

	if configPath == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(configPath)
	if err != nil {
		return daemonConfig{}, fmt.Errorf("failed to read config: %w", err)
	}

	fileCfg := defaultConfig
	if err := toml.Unmarshal(b, &fileCfg); err != nil {
		return daemonConfig{}, fmt.Errorf("failed to parse config %q: %w", configPath, err)
	}

	overrides := pflag.NewFlagSet("lumed", pflag.ContinueOnError)
	bindFlags(overrides, &fileCfg)

	var setErr error
	fs.Visit(func(f *pflag.Flag) {
		if f.Name == "config" || setErr != nil {
			return
		}
		setErr = overrides.Set(f.Name, f.Value.String())
	})
	if setErr != nil {
		return daemonConfig{}, setErr
	}

	return fileCfg, nil
}
