package label

import (
	"math"
	"sync"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontFamily is the CSS font stack for vector output. Go is listed first so
// viewers that have it match the metrics used for layout.
const FontFamily = "Go, Inter, system-ui, Segoe UI, Roboto, Arial, sans-serif"

type fontSet struct {
	regular *opentype.Font
	bold    *opentype.Font
}

var loadFonts = sync.OnceValues(func() (*fontSet, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, err
	}
	return &fontSet{regular: regular, bold: bold}, nil
})

// newFace returns a face at size px. Faces are not safe for concurrent use,
// so every layout or render creates its own.
func newFace(f *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

// measurer returns the advance width of s in whole pixels.
type measurer func(s string) int

func faceMeasurer(face font.Face) measurer {
	return func(s string) int {
		return font.MeasureString(face, s).Ceil()
	}
}

// approxMeasurer is used when the embedded fonts cannot be loaded.
func approxMeasurer(size float64) measurer {
	return func(s string) int {
		return int(math.Ceil(float64(utf8.RuneCountInString(s)) * size * 0.6))
	}
}

func measurerFor(bold bool, size float64) measurer {
	fonts, err := loadFonts()
	if err != nil {
		return approxMeasurer(size)
	}
	f := fonts.regular
	if bold {
		f = fonts.bold
	}
	face, err := newFace(f, size)
	if err != nil {
		return approxMeasurer(size)
	}
	return faceMeasurer(face)
}
