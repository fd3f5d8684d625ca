package label

import (
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

type pngRenderer struct {
	scale int
}

// PNG returns a raster renderer drawing the label at scale device pixels
// per CSS pixel.
func PNG(scale int) Renderer {
	if scale < 1 {
		scale = 1
	}
	return pngRenderer{scale: scale}
}

func (pngRenderer) ContentType() string { return "image/png" }
func (pngRenderer) Extension() string   { return FormatPNG }

func (r pngRenderer) Render(w io.Writer, a *Artifact) error {
	return png.Encode(w, r.Image(a))
}

// Image rasterizes the artifact.
func (r pngRenderer) Image(a *Artifact) *image.RGBA {
	s := r.scale
	l := a.Layout
	img := image.NewRGBA(image.Rect(0, 0, l.Width*s, l.Height*s))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	if a.Barcode != nil {
		m := l.Module * s
		for y, row := range a.Barcode.Modules {
			for x, dark := range row {
				if !dark {
					continue
				}
				x0 := l.Origin.X*s + x*m
				y0 := l.Origin.Y*s + y*m
				draw.Draw(img, image.Rect(x0, y0, x0+m, y0+m), image.Black, image.Point{}, draw.Src)
			}
		}
	} else {
		box := scaleRect(l.BarcodeBox, s)
		draw.Draw(img, box, image.NewUniform(color.RGBA{0xfa, 0xfa, 0xfa, 0xff}), image.Point{}, draw.Src)
		dashedBorder(img, box, 2*s, 8*s, 6*s, failureInk)
		r.drawText(img, TextLine{
			Text: FailureMarker,
			X:    l.BarcodeBox.Min.X + l.BarcodeBox.Dx()/2,
			Y:    l.BarcodeBox.Min.Y + l.BarcodeBox.Dy()/2 + 5,
			Size: 14,
			Bold: true,
		}, failureInk)
	}

	for _, line := range l.Lines {
		r.drawText(img, line, nameInk)
	}
	if b := l.Badge; b != nil {
		fillRoundRect(img, scaleRect(b.Rect, s), badgeRadius*s, b.Palette.Fill)
		r.drawText(img, b.Text, b.Palette.Ink)
	}
	r.drawText(img, l.Tagline, taglineInk)
	return img
}

func (r pngRenderer) drawText(img *image.RGBA, t TextLine, ink color.RGBA) {
	fonts, err := loadFonts()
	if err != nil || t.Text == "" {
		return
	}
	f := fonts.regular
	if t.Bold {
		f = fonts.bold
	}
	face, err := newFace(f, float64(t.Size*r.scale))
	if err != nil {
		return
	}
	defer face.Close()

	d := &font.Drawer{Dst: img, Src: image.NewUniform(ink), Face: face}
	width := d.MeasureString(t.Text)
	d.Dot = fixed.Point26_6{
		X: fixed.I(t.X*r.scale) - width/2,
		Y: fixed.I(t.Y * r.scale),
	}
	d.DrawString(t.Text)
}

func scaleRect(rect image.Rectangle, s int) image.Rectangle {
	return image.Rect(rect.Min.X*s, rect.Min.Y*s, rect.Max.X*s, rect.Max.Y*s)
}

func fillRoundRect(img *image.RGBA, rect image.Rectangle, radius int, c color.RGBA) {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if insideRounded(x, y, rect, radius) {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

func insideRounded(x, y int, rect image.Rectangle, radius int) bool {
	cx, cy := x, y
	switch {
	case x < rect.Min.X+radius:
		cx = rect.Min.X + radius
	case x >= rect.Max.X-radius:
		cx = rect.Max.X - radius - 1
	}
	switch {
	case y < rect.Min.Y+radius:
		cy = rect.Min.Y + radius
	case y >= rect.Max.Y-radius:
		cy = rect.Max.Y - radius - 1
	}
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy <= radius*radius
}

func dashedBorder(img *image.RGBA, rect image.Rectangle, stroke, dash, gap int, c color.RGBA) {
	on := func(i int) bool { return i%(dash+gap) < dash }
	for x := rect.Min.X; x < rect.Max.X; x++ {
		if !on(x - rect.Min.X) {
			continue
		}
		for t := 0; t < stroke; t++ {
			img.SetRGBA(x, rect.Min.Y+t, c)
			img.SetRGBA(x, rect.Max.Y-1-t, c)
		}
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		if !on(y - rect.Min.Y) {
			continue
		}
		for t := 0; t < stroke; t++ {
			img.SetRGBA(rect.Min.X+t, y, c)
			img.SetRGBA(rect.Max.X-1-t, y, c)
		}
	}
}

func barcodePNG(w io.Writer, b *Barcode, size int) error {
	if b == nil {
		img := image.NewRGBA(image.Rect(0, 0, size, size))
		draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{0xfa, 0xfa, 0xfa, 0xff}), image.Point{}, draw.Src)
		dashedBorder(img, img.Bounds(), 4, 16, 12, failureInk)
		textSize := size / 16
		pngRenderer{scale: 1}.drawText(img, TextLine{
			Text: FailureMarker,
			X:    size / 2,
			Y:    size/2 + textSize/3,
			Size: textSize,
			Bold: true,
		}, failureInk)
		return png.Encode(w, img)
	}
	px := size / (b.Size() + 2*QuietModules)
	return png.Encode(w, b.Image(px, QuietModules))
}
