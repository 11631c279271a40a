package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

const (
	noiseMinSize = 2
	noiseMaxSize = 6
	tinyChars    = "~*^'`.,:;"
)

// SVG renders text as jittered glyph outlines plus noise. It is safe for concurrent use.
type SVG struct {
	opts Options
	font *sfnt.Font
}

// NewSVG parses the configured font once and validates opts.
func NewSVG(opts Options) (*SVG, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.TextColor == "" {
		opts.TextColor = "#000000"
	}

	data := opts.Font
	if len(data) == 0 {
		data = gomono.TTF
	}
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("render: parse font: %w", err)
	}
	return &SVG{opts: opts, font: f}, nil
}

// Render returns a standalone SVG document for text.
func (s *SVG) Render(text string) (string, error) {
	if text == "" {
		return "", errors.New("render: empty text")
	}
	r := newRNG()
	w, h := s.opts.Width, s.opts.Height

	var b strings.Builder
	b.Grow(4096)
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0,0,%d,%d">`, w, h, w, h)
	if s.opts.BackgroundColor != "" {
		fmt.Fprintf(&b, `<rect width="100%%" height="100%%" fill="%s"/>`, s.opts.BackgroundColor)
	}
	if err := s.writeText(&b, r, text); err != nil {
		return "", err
	}
	for i := 0; i < s.opts.Noise; i++ {
		s.writeNoise(&b, r)
	}
	b.WriteString("</svg>")
	return b.String(), nil
}

func (s *SVG) writeText(b *strings.Builder, r *rng, text string) error {
	var buf sfnt.Buffer
	ppem := fixed.I(s.opts.FontSize)

	metrics, err := s.font.Metrics(&buf, ppem, font.HintingNone)
	if err != nil {
		return fmt.Errorf("render: font metrics: %w", err)
	}
	ascent, descent := toFloat(metrics.Ascent), toFloat(metrics.Descent)

	runes := []rune(text)
	spacing := float64(s.opts.Width-2) / float64(len(runes)+1)
	centerY := float64(s.opts.Height) / 2
	baseline := centerY + (ascent-descent)/2

	for i, ch := range runes {
		if unicode.IsSpace(ch) {
			continue
		}
		idx, err := s.font.GlyphIndex(&buf, ch)
		if err != nil {
			return fmt.Errorf("render: glyph %q: %w", ch, err)
		}
		advance, err := s.font.GlyphAdvance(&buf, idx, ppem, font.HintingNone)
		if err != nil {
			return fmt.Errorf("render: advance %q: %w", ch, err)
		}
		segments, err := s.font.LoadGlyph(&buf, idx, ppem, nil)
		if err != nil {
			return fmt.Errorf("render: outline %q: %w", ch, err)
		}

		left := spacing*float64(i+1) - toFloat(advance)/2
		fmt.Fprintf(b, `<path fill="%s" d="%s"/>`, s.opts.TextColor, pathData(segments, left, baseline, r))
	}
	return nil
}

// pathData converts glyph segments to SVG path commands, offset to (ox, oy) and jittered.
// Every point of a segment moves by the same amount.
func pathData(segments sfnt.Segments, ox, oy float64, r *rng) string {
	var b strings.Builder
	point := func(p fixed.Point26_6, d float64) {
		b.WriteString(fmtCoord(toFloat(p.X) + ox + d))
		b.WriteByte(' ')
		b.WriteString(fmtCoord(toFloat(p.Y) + oy + d))
	}

	open := false
	for _, seg := range segments {
		d := r.jitter()
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				b.WriteByte('Z')
			}
			b.WriteByte('M')
			point(seg.Args[0], d)
			open = true
		case sfnt.SegmentOpLineTo:
			b.WriteByte('L')
			point(seg.Args[0], d)
		case sfnt.SegmentOpQuadTo:
			b.WriteByte('Q')
			point(seg.Args[0], d)
			b.WriteByte(' ')
			point(seg.Args[1], d)
		case sfnt.SegmentOpCubeTo:
			b.WriteByte('C')
			point(seg.Args[0], d)
			b.WriteByte(' ')
			point(seg.Args[1], d)
			b.WriteByte(' ')
			point(seg.Args[2], d)
		}
	}
	if open {
		b.WriteByte('Z')
	}
	return b.String()
}

func (s *SVG) noiseColor(r *rng) string {
	if s.opts.BackgroundColor != "" {
		return r.contrastColor(s.opts.BackgroundColor)
	}
	return r.greyColor(noiseMinSize, noiseMaxSize)
}

func (s *SVG) writeNoise(b *strings.Builder, r *rng) {
	w, h := s.opts.Width, s.opts.Height
	color := s.noiseColor(r)

	switch v := r.float(); {
	case v < 0.25:
		// vertical curve
		fmt.Fprintf(b, `<path d="M%d %d C%d %d,%d %d,%d %d" stroke="%s" fill="none"/>`,
			r.intn(1, w-1), r.intn(1, 21),
			r.intn(1, w-1), r.intn(h/4, h/2),
			r.intn(1, w-1), r.intn(h/2, h*3/4),
			r.intn(1, w-1), r.intn(h-21, h-1),
			color)
	case v < 0.5:
		// horizontal curve
		fmt.Fprintf(b, `<path d="M%d %d C%d %d,%d %d,%d %d" stroke="%s" fill="none"/>`,
			r.intn(1, w-21), r.intn(1, h-1),
			r.intn(w/4, w/2), r.intn(1, h-1),
			r.intn(w/2, w*3/4), r.intn(1, h-1),
			r.intn(w-21, w-1), r.intn(1, h-1),
			color)
	case v < 0.75:
		fmt.Fprintf(b, `<circle cx="%d" cy="%d" r="%d" stroke="%s" fill="none"/>`,
			r.intn(1, w-1), r.intn(1, h-1), r.intn(noiseMinSize, noiseMaxSize), color)
	default:
		ch := tinyChars[r.intn(0, len(tinyChars)-1)]
		fmt.Fprintf(b, `<text x="%d" y="%d" fill="%s" font-size="%d">%c</text>`,
			r.intn(1, w-1), r.intn(1, h-1), color, r.intn(8, 12), ch)
	}
}

func toFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func fmtCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
