package lumed

import (
	"strconv"
	"strings"

	"dev.acmcsuf.com/christmas/lib/xcolor"
)

// xlumePrefix is put in front of every line by the xLume host software.
const xlumePrefix = "[xLume] - "

// ParseFrame parses a block of text received from the host into a partial
// update. It recognizes three kinds of lines, in any order:
//
//	ledCount: <uint>
//	<r>, <g>, <b>
//	Effects: <uint>
//
// each optionally prefixed with "[xLume] - ". Later lines overwrite earlier
// ones. Anything else is ignored, so malformed or empty input yields an empty
// update.
func ParseFrame(text string) PartialUpdate {
	var u PartialUpdate

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		line = strings.TrimPrefix(line, xlumePrefix)

		if rest, ok := strings.CutPrefix(line, "ledCount: "); ok {
			if n, _, ok := scanUint(rest); ok {
				u.LEDCount = &n
			}
			continue
		}

		if rest, ok := strings.CutPrefix(line, "Effects: "); ok {
			if n, _, ok := scanUint(rest); ok {
				id := EffectID(n)
				u.Effect = &id
			}
			continue
		}

		if c, ok := scanRGB(line); ok {
			u.Color = &c
		}
	}

	return u
}

// scanRGB scans "<r>, <g>, <b>" at the start of s. Components above 255 are
// clamped.
func scanRGB(s string) (xcolor.RGB, bool) {
	var rgb [3]uint8
	for i := range rgb {
		if i > 0 {
			var ok bool
			if s, ok = strings.CutPrefix(s, ", "); !ok {
				return xcolor.RGB{}, false
			}
		}

		n, rest, ok := scanUint(s)
		if !ok {
			return xcolor.RGB{}, false
		}
		rgb[i] = uint8(min(n, 255))
		s = rest
	}
	return xcolor.RGB{R: rgb[0], G: rgb[1], B: rgb[2]}, true
}

// scanUint scans the leading decimal digits of s. It fails if there are none
// or if they overflow an int.
func scanUint(s string) (n int, rest string, ok bool) {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, s, false
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, s, false
	}
	return n, s[end:], true
}
