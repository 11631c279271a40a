package render

import (
	"errors"
	"regexp"
)

// Options controls the rendered document.
type Options struct {
	Width    int
	Height   int
	FontSize int
	// Noise is the number of decorative shapes. Zero disables noise.
	Noise int
	// BackgroundColor is a #rrggbb color. When set, a background rect is drawn and
	// noise colors contrast with it; otherwise noise is grey.
	BackgroundColor string
	// TextColor defaults to black.
	TextColor string
	// Font is a TrueType or OpenType font. Nil selects the embedded Go Mono.
	Font []byte
}

// DefaultOptions returns a 150x85 canvas with a 40px font and 25 noise shapes.
func DefaultOptions() Options {
	return Options{
		Width:     150,
		Height:    85,
		FontSize:  40,
		Noise:     25,
		TextColor: "#000000",
	}
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func (o Options) validate() error {
	if o.Width < 44 || o.Height < 44 {
		return errors.New("render: canvas must be at least 44x44")
	}
	if o.FontSize <= 0 {
		return errors.New("render: FontSize must be > 0")
	}
	if o.Noise < 0 {
		return errors.New("render: Noise must be >= 0")
	}
	if o.BackgroundColor != "" && !hexColor.MatchString(o.BackgroundColor) {
		return errors.New("render: BackgroundColor must be #rrggbb")
	}
	if o.TextColor != "" && !hexColor.MatchString(o.TextColor) {
		return errors.New("render: TextColor must be #rrggbb")
	}
	return nil
}
