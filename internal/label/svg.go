package label

import (
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"
)

type svgRenderer struct{}

// SVG returns the vector renderer.
func SVG() Renderer { return svgRenderer{} }

func (svgRenderer) ContentType() string { return "image/svg+xml" }
func (svgRenderer) Extension() string   { return FormatSVG }

func (svgRenderer) Render(w io.Writer, a *Artifact) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	l := a.Layout

	canvas.Start(l.Width, l.Height, fmt.Sprintf(`viewBox="0 0 %d %d"`, l.Width, l.Height))
	canvas.Rect(0, 0, l.Width, l.Height, "fill:#ffffff")

	if a.Barcode != nil {
		canvas.Gtransform(fmt.Sprintf("translate(%d %d) scale(%d)", l.Origin.X, l.Origin.Y, l.Module))
		canvas.Path(a.Barcode.modulePath(0), "fill:#000000", `shape-rendering="crispEdges"`)
		canvas.Gend()
	} else {
		svgFailure(canvas, l)
	}

	for _, line := range l.Lines {
		svgText(canvas, line, hex(nameInk))
	}

	if b := l.Badge; b != nil {
		canvas.Roundrect(b.Rect.Min.X, b.Rect.Min.Y, b.Rect.Dx(), b.Rect.Dy(), badgeRadius, badgeRadius,
			"fill:"+hex(b.Palette.Fill))
		svgText(canvas, b.Text, hex(b.Palette.Ink))
	}

	svgText(canvas, l.Tagline, hex(taglineInk))
	canvas.End()
	return ew.err
}

func svgText(canvas *svg.SVG, t TextLine, ink string) {
	weight := 400
	if t.Bold {
		weight = 700
	}
	canvas.Text(t.X, t.Y, t.Text, fmt.Sprintf(
		"text-anchor:middle;font-family:%s;font-size:%dpx;font-weight:%d;fill:%s",
		FontFamily, t.Size, weight, ink))
}

func svgFailure(canvas *svg.SVG, l Layout) {
	box := l.BarcodeBox
	canvas.Rect(box.Min.X, box.Min.Y, box.Dx(), box.Dy(),
		"fill:#fafafa;stroke:"+hex(failureInk)+";stroke-width:2;stroke-dasharray:8 6")
	svgText(canvas, TextLine{
		Text: FailureMarker,
		X:    box.Min.X + box.Dx()/2,
		Y:    box.Min.Y + box.Dy()/2 + 5,
		Size: 14,
		Bold: true,
	}, hex(failureInk))
}

// RenderBarcode writes the bare barcode for payload in format, sized to
// roughly size pixels. When the payload cannot be encoded a placeholder is
// written and the returned error wraps ErrEncoding.
func RenderBarcode(w io.Writer, payload, format string, size int) error {
	b, encodeErr := EncodeBarcode(payload)
	if size <= 0 {
		size = 512
	}

	var err error
	switch format {
	case "", FormatSVG:
		err = barcodeSVG(w, b, size)
	case FormatPNG:
		err = barcodePNG(w, b, size)
	default:
		return fmt.Errorf("unsupported barcode format %q", format)
	}
	if err != nil {
		return err
	}
	return encodeErr
}

func barcodeSVG(w io.Writer, b *Barcode, size int) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)

	if b == nil {
		canvas.Start(size, size, fmt.Sprintf(`viewBox="0 0 %d %d"`, size, size))
		canvas.Rect(0, 0, size, size, "fill:#fafafa;stroke:"+hex(failureInk)+";stroke-width:4;stroke-dasharray:16 12")
		canvas.Text(size/2, size/2, FailureMarker, fmt.Sprintf(
			"text-anchor:middle;font-family:%s;font-size:%dpx;font-weight:700;fill:%s",
			FontFamily, size/12, hex(failureInk)))
		canvas.End()
		return ew.err
	}

	n := b.Size() + 2*QuietModules
	canvas.Start(size, size, fmt.Sprintf(`viewBox="0 0 %d %d"`, n, n), `shape-rendering="crispEdges"`)
	canvas.Rect(0, 0, n, n, "fill:#ffffff")
	canvas.Path(b.modulePath(QuietModules), "fill:#000000")
	canvas.End()
	return ew.err
}
