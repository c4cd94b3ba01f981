// Package icon loads window icons.
//
// Icons are sniffed by content rather than extension and decoded into
// RGBA pixels, which is the form both engines hand to the OS.
package icon

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultSize is the edge length of the generated fallback icon.
const DefaultSize = 32

// ErrUnsupported is returned for files that are not a decodable image.
var ErrUnsupported = errors.New("icon: unsupported image type")

var supported = []string{"image/png", "image/jpeg", "image/gif"}

// Icon is a decoded RGBA icon.
type Icon struct {
	Width  int
	Height int
	// RGBA holds Width*Height*4 bytes, row-major.
	RGBA []byte
	// Source is the file the icon was loaded from; empty for generated icons.
	Source string
}

// Load reads and decodes an icon file.
func Load(path string) (*Icon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("icon: read %s: %w", path, err)
	}
	ic, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("icon: %s: %w", path, err)
	}
	ic.Source = path
	return ic, nil
}

// Decode sniffs and decodes icon bytes.
func Decode(data []byte) (*Icon, error) {
	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), supported...) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, mt.String())
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", mt.String(), err)
	}
	return fromImage(img), nil
}

// Default returns a generated solid icon used when no icon file is usable.
func Default() *Icon {
	img := image.NewRGBA(image.Rect(0, 0, DefaultSize, DefaultSize))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 0x2d, G: 0x6c, B: 0xdf, A: 0xff}}, image.Point{}, draw.Src)
	return fromImage(img)
}

func fromImage(img image.Image) *Icon {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Rect.Min != (image.Point{}) || rgba.Stride != 4*b.Dx() {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return &Icon{
		Width:  b.Dx(),
		Height: b.Dy(),
		RGBA:   rgba.Pix,
	}
}
