// Package watermark stamps a line of bold text onto cover images.
package watermark

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // register GIF decoder for Decode
	"image/jpeg"
	"image/png"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp" // register BMP decoder for Decode
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp" // register WebP decoder for Decode
)

// DefaultText is stamped when Options.Text is empty.
const DefaultText = "tagedit"

// JPEGQuality is used when the output is re-encoded as JPEG.
const JPEGQuality = 95

// DefaultMaxPixels caps width*height when Options.MaxPixels is zero.
const DefaultMaxPixels = 8192 * 8192

// ErrDecode is returned for input that is not a supported image or is
// larger than the pixel limit.
var ErrDecode = errors.New("watermark: unsupported image")

// Position is the vertical placement of the text.
type Position string

const (
	PositionTop    Position = "top"
	PositionCenter Position = "center"
	PositionBottom Position = "bottom"
)

// Options controls the stamp. Zero values select yellow text at the
// bottom.
type Options struct {
	Text     string   `json:"text,omitempty"`
	Color    string   `json:"color,omitempty"`
	Position Position `json:"position,omitempty"`

	// MaxPixels bounds width*height of the input, checked from the
	// header before any pixel data is decoded. Zero means
	// DefaultMaxPixels.
	MaxPixels int64 `json:"-"`
}

var palette = map[string]color.NRGBA{
	"yellow": {R: 255, G: 255, B: 0, A: 230},
	"white":  {R: 255, G: 255, B: 255, A: 230},
	"red":    {R: 255, G: 0, B: 0, A: 230},
	"black":  {R: 0, G: 0, B: 0, A: 230},
}

var shadowColor = color.NRGBA{A: 204}

const shadowOffset = 2

// TextColor returns the fill for a colour name. Unknown names fall back to
// yellow.
func TextColor(name string) color.NRGBA {
	if c, ok := palette[strings.ToLower(strings.TrimSpace(name))]; ok {
		return c
	}
	return palette["yellow"]
}

var boldFont = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(gobold.TTF)
})

// Apply decodes src, draws the text and re-encodes the result. PNG and GIF
// input yields PNG; everything else yields JPEG. The returned string is the
// MIME type of the output.
func Apply(src []byte, opts Options) ([]byte, string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	limit := opts.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > limit {
		return nil, "", fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrDecode, cfg.Width, cfg.Height, limit)
	}

	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := img.Bounds()
	canvas := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, bounds.Min, draw.Src)

	if err := stamp(canvas, opts); err != nil {
		return nil, "", err
	}

	var out bytes.Buffer
	switch format {
	case "png", "gif":
		if err := png.Encode(&out, canvas); err != nil {
			return nil, "", fmt.Errorf("encoding png: %w", err)
		}
		return out.Bytes(), "image/png", nil
	default:
		if err := jpeg.Encode(&out, canvas, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return nil, "", fmt.Errorf("encoding jpeg: %w", err)
		}
		return out.Bytes(), "image/jpeg", nil
	}
}

// Layout holds the computed geometry of a stamp, in pixels.
type Layout struct {
	FontSize int
	Padding  int
	// CenterY is the vertical middle of the text line.
	CenterY int
}

// ComputeLayout sizes the text relative to the image height: the font is
// 5% of the height (at least 12px) and the padding 2% (at least 10px).
func ComputeLayout(height int, pos Position) Layout {
	l := Layout{
		FontSize: max(12, height*5/100),
		Padding:  max(10, height*2/100),
	}
	switch pos {
	case PositionTop:
		l.CenterY = l.Padding + l.FontSize
	case PositionCenter:
		l.CenterY = height / 2
	default:
		l.CenterY = height - l.Padding - l.FontSize/2
	}
	return l
}

func stamp(dst *image.NRGBA, opts Options) error {
	text := opts.Text
	if text == "" {
		text = DefaultText
	}

	f, err := boldFont()
	if err != nil {
		return fmt.Errorf("loading font: %w", err)
	}

	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	layout := ComputeLayout(h, opts.Position)

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(layout.FontSize),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return fmt.Errorf("creating font face: %w", err)
	}
	defer face.Close()

	metrics := face.Metrics()
	width := font.MeasureString(face, text)
	x := (fixed.I(w) - width) / 2
	baseline := fixed.I(layout.CenterY) + (metrics.Ascent-metrics.Descent)/2

	d := &font.Drawer{Dst: dst, Face: face}

	d.Src = image.NewUniform(shadowColor)
	d.Dot = fixed.Point26_6{X: x + fixed.I(shadowOffset), Y: baseline + fixed.I(shadowOffset)}
	d.DrawString(text)

	d.Src = image.NewUniform(TextColor(opts.Color))
	d.Dot = fixed.Point26_6{X: x, Y: baseline}
	d.DrawString(text)
	return nil
}
