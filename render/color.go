package render

import (
	"fmt"
	"math"
	"strconv"
)

// greyColor returns #xyz with one repeated hex digit drawn from [lo,hi].
func (r *rng) greyColor(lo, hi int) string {
	d := strconv.FormatInt(int64(r.intn(lo, hi)), 16)
	return "#" + d + d + d
}

// contrastColor picks a saturated color whose lightness sits 25-45 points away
// from the background, darker on light backgrounds and lighter on dark ones.
func (r *rng) contrastColor(bg string) string {
	hue := r.float()
	saturation := float64(r.intn(60, 80)) / 100

	bgLightness := lightness(bg)
	lo, hi := 25, 45
	if bgLightness >= 0.5 {
		lo, hi = -45, -25
	}
	base := int(math.Round(bgLightness * 100))
	l := clamp01(float64(r.intn(base+lo, base+hi)) / 100)

	var q float64
	if l < 0.5 {
		q = l * (1 + saturation)
	} else {
		q = l + saturation - l*saturation
	}
	p := 2*l - q

	red := int(hueToRGB(p, q, hue+1.0/3) * 255)
	green := int(hueToRGB(p, q, hue) * 255)
	blue := int(hueToRGB(p, q, hue-1.0/3) * 255)
	return fmt.Sprintf("#%02x%02x%02x", red, green, blue)
}

// lightness returns (max+min)/2 of the RGB channels in [0,1], or 1 for an unparsable color.
func lightness(hex string) float64 {
	if !hexColor.MatchString(hex) {
		return 1
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return 1
	}
	red, green, blue := int(v>>16&0xff), int(v>>8&0xff), int(v&0xff)
	return float64(max(red, green, blue)+min(red, green, blue)) / (2 * 255)
}

func hueToRGB(p, q, h float64) float64 {
	t := math.Mod(h+1, 1)
	switch {
	case 6*t < 1:
		return p + (q-p)*6*t
	case 2*t < 1:
		return q
	case 3*t < 2:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
