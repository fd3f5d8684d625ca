package label

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	qrcode "github.com/skip2/go-qrcode"
)

// ErrEncoding is returned when a payload cannot be encoded at label density.
var ErrEncoding = errors.New("payload cannot be encoded as a label barcode")

// Encoding policy. Medium error correction survives smudged or creased
// labels; version 10 (57 modules) is the densest symbol that still gets a
// 3 px module pitch in the label's barcode box.
const (
	RecoveryLevel = qrcode.Medium
	MaxVersion    = 10
	QuietModules  = 2
)

// Barcode is an encoded QR symbol without its quiet zone.
type Barcode struct {
	Content string
	Version int
	Modules [][]bool
}

// EncodeBarcode encodes payload as a QR symbol.
func EncodeBarcode(payload string) (*Barcode, error) {
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrEncoding)
	}

	q, err := qrcode.New(payload, RecoveryLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	if q.VersionNumber > MaxVersion {
		return nil, fmt.Errorf("%w: payload of %d bytes needs version %d (max %d)",
			ErrEncoding, len(payload), q.VersionNumber, MaxVersion)
	}

	q.DisableBorder = true
	return &Barcode{
		Content: payload,
		Version: q.VersionNumber,
		Modules: q.Bitmap(),
	}, nil
}

// Size returns the number of modules per side.
func (b *Barcode) Size() int {
	return len(b.Modules)
}

// Image renders the symbol with px pixels per module and a quiet zone of
// quiet modules on every side.
func (b *Barcode) Image(px, quiet int) *image.Gray {
	if px < 1 {
		px = 1
	}
	side := (b.Size() + 2*quiet) * px
	img := image.NewGray(image.Rect(0, 0, side, side))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}

	for y, row := range b.Modules {
		for x, dark := range row {
			if !dark {
				continue
			}
			x0 := (x + quiet) * px
			y0 := (y + quiet) * px
			for dy := 0; dy < px; dy++ {
				for dx := 0; dx < px; dx++ {
					img.SetGray(x0+dx, y0+dy, color.Gray{Y: 0})
				}
			}
		}
	}
	return img
}

// modulePath returns an SVG path in module units covering the dark modules,
// merging horizontal runs.
func (b *Barcode) modulePath(offset int) string {
	var buf []byte
	for y, row := range b.Modules {
		for x := 0; x < len(row); {
			if !row[x] {
				x++
				continue
			}
			start := x
			for x < len(row) && row[x] {
				x++
			}
			buf = fmt.Appendf(buf, "M%d %dh%dv1h-%dz", start+offset, y+offset, x-start, x-start)
		}
	}
	return string(buf)
}
