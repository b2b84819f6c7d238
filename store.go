package lumed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"dev.acmcsuf.com/christmas/lib/xcolor"
)

// SettingsStore persists Settings.
type SettingsStore interface {
	Load() (Settings, error)
	Save(Settings) error
}

// FileStore is a SettingsStore backed by a JSON file of the form
//
//	{"ledCount": 30, "rgb": [255, 0, 0], "effect": 0}
type FileStore struct {
	Path string
}

var _ SettingsStore = FileStore{}

type settingsDocument struct {
	LEDCount *int    `json:"ledCount"`
	RGB      *[3]int `json:"rgb"`
	Effect   *int    `json:"effect"`
}

// Load reads the settings file. A missing, unreadable or invalid file is an
// error.
func (s FileStore) Load() (Settings, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	var doc settingsDocument
	if err := json.Unmarshal(b, &doc); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings %q: %w", s.Path, err)
	}

	switch {
	case doc.LEDCount == nil || doc.RGB == nil || doc.Effect == nil:
		return Settings{}, fmt.Errorf("settings %q: missing fields", s.Path)
	case *doc.LEDCount < 0:
		return Settings{}, fmt.Errorf("settings %q: invalid ledCount %d", s.Path, *doc.LEDCount)
	}

	for _, c := range doc.RGB {
		if c < 0 || c > 255 {
			return Settings{}, fmt.Errorf("settings %q: invalid rgb %v", s.Path, *doc.RGB)
		}
	}

	return Settings{
		LEDCount: *doc.LEDCount,
		Color: xcolor.RGB{
			R: uint8(doc.RGB[0]),
			G: uint8(doc.RGB[1]),
			B: uint8(doc.RGB[2]),
		},
		Effect: EffectID(*doc.Effect),
	}, nil
}

// Save writes the settings file. The file is replaced atomically.
func (s FileStore) Save(settings Settings) error {
	rgb := [3]int{int(settings.Color.R), int(settings.Color.G), int(settings.Color.B)}
	effect := int(settings.Effect)

	b, err := json.Marshal(settingsDocument{
		LEDCount: &settings.LEDCount,
		RGB:      &rgb,
		Effect:   &effect,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(s.Path), ".settings-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary settings file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(b); err != nil {
		f.Close()
		return fmt.Errorf("failed to write settings: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}

	if err := os.Rename(f.Name(), s.Path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}

	return nil
}
