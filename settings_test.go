package lumed

import (
	"testing"

	"dev.acmcsuf.com/christmas/lib/xcolor"
)

func ptr[T any](v T) *T { return &v }

func TestMerge(t *testing.T) {
	current := Settings{
		LEDCount: 30,
		Color:    xcolor.RGB{R: 1, G: 2, B: 3},
		Effect:   EffectGradient,
	}

	tests := []struct {
		name     string
		update   PartialUpdate
		settings Settings
		changes  Changes
	}{
		{
			name:     "empty update",
			settings: current,
		},
		{
			name:   "led count only",
			update: PartialUpdate{LEDCount: ptr(12)},
			settings: Settings{
				LEDCount: 12,
				Color:    current.Color,
				Effect:   current.Effect,
			},
			changes: Changes{LEDCount: true},
		},
		{
			name:   "color only",
			update: PartialUpdate{Color: &xcolor.RGB{R: 7, G: 8, B: 9}},
			settings: Settings{
				LEDCount: current.LEDCount,
				Color:    xcolor.RGB{R: 7, G: 8, B: 9},
				Effect:   current.Effect,
			},
			changes: Changes{Color: true},
		},
		{
			name:   "unknown effect is accepted",
			update: PartialUpdate{Effect: ptr(EffectID(42))},
			settings: Settings{
				LEDCount: current.LEDCount,
				Color:    current.Color,
				Effect:   42,
			},
			changes: Changes{Effect: true},
		},
		{
			name:     "same value still counts",
			update:   PartialUpdate{Effect: ptr(EffectGradient)},
			settings: current,
			changes:  Changes{Effect: true},
		},
		{
			name: "everything",
			update: PartialUpdate{
				LEDCount: ptr(0),
				Color:    &xcolor.RGB{},
				Effect:   ptr(EffectOff),
			},
			settings: Settings{Effect: EffectOff},
			changes:  Changes{LEDCount: true, Color: true, Effect: true},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			settings, changes := Merge(current, test.update)
			assertEq(t, test.settings, settings)
			assertEq(t, test.changes, changes)
			assertEq(t, test.update.IsEmpty(), !changes.Any())
		})
	}
}
