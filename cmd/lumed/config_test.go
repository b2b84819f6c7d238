package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lumed.toml")
	err := os.WriteFile(path, []byte(`
serial_device = "/dev/ttyAMA0"
max_leds = 144
verbose = true
`), 0644)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want func(cfg *daemonConfig)
	}{
		{
			name: "defaults",
			args: nil,
			want: func(cfg *daemonConfig) {},
		},
		{
			name: "flags only",
			args: []string{"--max-leds", "60", "-s", "/var/lib/lumed.json"},
			want: func(cfg *daemonConfig) {
				cfg.MaxLEDs = 60
				cfg.SettingsPath = "/var/lib/lumed.json"
			},
		},
		{
			name: "config file",
			args: []string{"-c", path},
			want: func(cfg *daemonConfig) {
				cfg.SerialDevice = "/dev/ttyAMA0"
				cfg.MaxLEDs = 144
				cfg.Verbose = true
			},
		},
		{
			name: "flags override config file",
			args: []string{"-c", path, "--max-leds", "30", "--baud", "9600"},
			want: func(cfg *daemonConfig) {
				cfg.SerialDevice = "/dev/ttyAMA0"
				cfg.MaxLEDs = 30
				cfg.SerialBaud = 9600
				cfg.Verbose = true
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := loadConfig(test.args)
			if err != nil {
				t.Fatal("cannot load config:", err)
			}

			want := defaultConfig
			test.want(&want)

			if diff := cmp.Diff(want, cfg); diff != "" {
				t.Errorf("unexpected diff (-want +got):\n%s", diff)
			}
		})
	}
}
