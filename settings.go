package lumed

import "dev.acmcsuf.com/christmas/lib/xcolor"

// Settings is the strip configuration sent by the host and persisted across
// restarts. Every field holds a valid value once loaded.
type Settings struct {
	// LEDCount is the number of LEDs on the strip. Zero is valid and yields
	// empty frames.
	LEDCount int
	// Color is the base color used by the single-color effects.
	Color xcolor.RGB
	// Effect selects the animation. Ids without an animation leave the strip
	// dark.
	Effect EffectID
}

// DefaultSettings are used when seeding a fresh settings file.
var DefaultSettings = Settings{
	LEDCount: 30,
	Color:    xcolor.RGB{R: 255},
	Effect:   EffectStaticColor,
}

// PartialUpdate is a settings update where any field may be absent (nil).
// The zero value is the no-op update.
type PartialUpdate struct {
	LEDCount *int
	Color    *xcolor.RGB
	Effect   *EffectID
}

// IsEmpty returns true if no field of the update is set.
func (u PartialUpdate) IsEmpty() bool {
	return u.LEDCount == nil && u.Color == nil && u.Effect == nil
}

// Changes reports which fields a Merge overwrote.
type Changes struct {
	LEDCount bool
	Color    bool
	Effect   bool
}

// Any returns true if any field changed.
func (c Changes) Any() bool {
	return c.LEDCount || c.Color || c.Effect
}

// Merge applies the update on top of current. Present fields overwrite,
// absent fields are kept. A present field is reported as changed even if it
// holds the same value, so that a host resending its settings restarts the
// animation.
//
// An empty update returns current and no changes; callers then skip
// persisting and restarting entirely.
func Merge(current Settings, u PartialUpdate) (Settings, Changes) {
	var changes Changes
	if u.IsEmpty() {
		return current, changes
	}

	if u.LEDCount != nil {
		current.LEDCount = *u.LEDCount
		changes.LEDCount = true
	}
	if u.Color != nil {
		current.Color = *u.Color
		changes.Color = true
	}
	if u.Effect != nil {
		current.Effect = *u.Effect
		changes.Effect = true
	}

	return current, changes
}
