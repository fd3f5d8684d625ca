package label

import (
	"image"
	"image/color"
	"strings"

	"github.com/erazemk/labstock/internal/model"
)

// Label geometry in CSS pixels.
const (
	Width  = 340
	Height = 360

	barcodeBox = 220
	barcodeTop = 16
	textWidth  = 300
	maxLines   = 2

	nameSize       = 16
	nameLineHeight = 20
	nameGap        = 26

	badgeSize   = 12
	badgePadX   = 8
	badgeHeight = 22
	badgeRadius = 6
	badgeGap    = 12

	taglineSize   = 12
	taglineBottom = 14
)

// Tagline is printed at the bottom of every label.
const Tagline = "Low in Stock? Scan to notify manager"

// FailureMarker replaces the barcode when encoding fails.
const FailureMarker = "encoding failed"

const ellipsis = "…"

// Palette is a badge color pair.
type Palette struct {
	Fill color.RGBA
	Ink  color.RGBA
}

var (
	lowPalette = Palette{Fill: color.RGBA{0xfe, 0xe2, 0xe2, 0xff}, Ink: color.RGBA{0xb9, 0x1c, 0x1c, 0xff}}
	okPalette  = Palette{Fill: color.RGBA{0xdc, 0xfc, 0xe7, 0xff}, Ink: color.RGBA{0x15, 0x80, 0x3d, 0xff}}

	nameInk    = color.RGBA{0x11, 0x11, 0x11, 0xff}
	taglineInk = color.RGBA{0x44, 0x44, 0x44, 0xff}
	failureInk = color.RGBA{0xb9, 0x1c, 0x1c, 0xff}
)

// PaletteFor returns the badge palette of a status.
func PaletteFor(s model.Status) Palette {
	if s == model.StatusLow {
		return lowPalette
	}
	return okPalette
}

// TextLine is a horizontally centered line of text; Y is the baseline.
type TextLine struct {
	Text  string
	X, Y  int
	Size  int
	Width int
	Bold  bool
}

// Badge is the status pill under the name.
type Badge struct {
	Status  model.Status
	Rect    image.Rectangle
	Text    TextLine
	Palette Palette
}

// Layout positions every element of a label.
type Layout struct {
	Width, Height int

	// BarcodeBox is the area reserved for the barcode (or the failure marker).
	BarcodeBox image.Rectangle
	// Module is the barcode pixel pitch; Origin is the top-left of the first
	// module. Both are zero when encoding failed.
	Module int
	Origin image.Point

	Lines   []TextLine
	Badge   *Badge
	Tagline TextLine
}

// Artifact is a synthesized label ready for rendering.
type Artifact struct {
	Payload string
	Name    string
	Status  model.Status
	Barcode *Barcode
	// Err is set when the barcode could not be encoded; the artifact then
	// renders the failure marker in place of the barcode.
	Err    error
	Layout Layout
}

// Failed reports whether the barcode could not be encoded.
func (a *Artifact) Failed() bool {
	return a.Barcode == nil
}

// Synthesize lays out a label for payload with the item's display name and
// status. It never fails: an unencodable payload yields a placeholder.
func Synthesize(payload, name string, status model.Status) *Artifact {
	a := &Artifact{Payload: payload, Name: name, Status: status}
	a.Barcode, a.Err = EncodeBarcode(payload)

	l := Layout{
		Width:      Width,
		Height:     Height,
		BarcodeBox: image.Rect((Width-barcodeBox)/2, barcodeTop, (Width+barcodeBox)/2, barcodeTop+barcodeBox),
	}

	if a.Barcode != nil {
		n := a.Barcode.Size() + 2*QuietModules
		l.Module = barcodeBox / n
		side := l.Module * n
		l.Origin = image.Pt(
			l.BarcodeBox.Min.X+(barcodeBox-side)/2+QuietModules*l.Module,
			l.BarcodeBox.Min.Y+(barcodeBox-side)/2+QuietModules*l.Module,
		)
	}

	cx := Width / 2
	measureName := measurerFor(true, nameSize)
	y := l.BarcodeBox.Max.Y + nameGap
	for i, text := range wrapText(name, textWidth, maxLines, measureName) {
		l.Lines = append(l.Lines, TextLine{
			Text: text, X: cx, Y: y + i*nameLineHeight, Size: nameSize, Width: measureName(text), Bold: true,
		})
	}

	if status != model.StatusNone {
		top := l.BarcodeBox.Max.Y + badgeGap
		if n := len(l.Lines); n > 0 {
			top = l.Lines[n-1].Y + badgeGap
		}
		text := string(status)
		tw := measurerFor(true, badgeSize)(text)
		w := tw + 2*badgePadX
		l.Badge = &Badge{
			Status:  status,
			Rect:    image.Rect(cx-w/2, top, cx-w/2+w, top+badgeHeight),
			Text:    TextLine{Text: text, X: cx, Y: top + badgeHeight/2 + badgeSize*7/20, Size: badgeSize, Width: tw, Bold: true},
			Palette: PaletteFor(status),
		}
	}

	l.Tagline = TextLine{
		Text: Tagline, X: cx, Y: Height - taglineBottom, Size: taglineSize,
		Width: measurerFor(false, taglineSize)(Tagline),
	}

	a.Layout = l
	return a
}

// wrapText breaks text into at most maxLines lines no wider than maxWidth.
// When text does not fit, the last line ends in an ellipsis placed at the
// last word boundary that fits. Words wider than a whole line are split.
func wrapText(text string, maxWidth, maxLines int, measure measurer) []string {
	words := strings.Fields(text)
	var lines []string

	for len(words) > 0 && len(lines) < maxLines {
		line := ""
		for len(words) > 0 {
			candidate := words[0]
			if line != "" {
				candidate = line + " " + words[0]
			}
			if measure(candidate) <= maxWidth {
				line = candidate
				words = words[1:]
				continue
			}
			if line == "" {
				head, tail := splitRunes(words[0], maxWidth, measure)
				line = head
				if tail == "" {
					words = words[1:]
				} else {
					words[0] = tail
				}
			}
			break
		}
		lines = append(lines, line)
	}

	if len(words) > 0 && len(lines) > 0 {
		lines[len(lines)-1] = ellipsize(lines[len(lines)-1], maxWidth, measure)
	}
	return lines
}

// splitRunes returns the longest prefix of word that fits (at least one rune)
// and the remainder.
func splitRunes(word string, maxWidth int, measure measurer) (string, string) {
	runes := []rune(word)
	n := 1
	for n < len(runes) && measure(string(runes[:n+1])) <= maxWidth {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}

func ellipsize(line string, maxWidth int, measure measurer) string {
	if measure(line+ellipsis) <= maxWidth {
		return line + ellipsis
	}

	words := strings.Fields(line)
	for len(words) > 1 {
		words = words[:len(words)-1]
		candidate := strings.Join(words, " ") + ellipsis
		if measure(candidate) <= maxWidth {
			return candidate
		}
	}
	if len(words) == 0 {
		return ellipsis
	}

	runes := []rune(words[0])
	for len(runes) > 0 && measure(string(runes)+ellipsis) > maxWidth {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + ellipsis
}
