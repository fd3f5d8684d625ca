package label

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"
	"golang.org/x/image/draw"

	"github.com/erazemk/labstock/internal/model"
)

func fixedWidth(s string) int {
	return 10 * len([]rune(s))
}

func decodeImage(t *testing.T, img image.Image) string {
	t.Helper()
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		t.Fatalf("binary bitmap: %v", err)
	}
	res, err := zxqr.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return res.GetText()
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "   ", nil},
		{"single line", "Pipette", []string{"Pipette"}},
		{"two lines", "aaaa bbbb cccc", []string{"aaaa bbbb", "cccc"}},
		{"ellipsis appended", "aaaa bbbb cccc dddd eeee", []string{"aaaa bbbb", "cccc dddd…"}},
		{"ellipsis at word boundary", "aaaa bbbb cccc ddddd eeee", []string{"aaaa bbbb", "cccc…"}},
		{"long word split", "abcdefghijklmnopqrstuvwxyz", []string{"abcdefghij", "klmnopqrs…"}},
		{"collapses whitespace", "aaaa \t\n bbbb", []string{"aaaa bbbb"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapText(tt.text, 100, 2, fixedWidth)
			if len(got) != len(tt.want) {
				t.Fatalf("wrapText(%q) = %q, want %q", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
				if w := fixedWidth(got[i]); w > 100 {
					t.Errorf("line %d width %d exceeds 100", i, w)
				}
			}
		})
	}
}

func TestSynthesizeNameFitsTwoLines(t *testing.T) {
	names := []string{
		"Pipette Tips",
		strings.Repeat("Nitrile Gloves Size Medium ", 8),
		strings.Repeat("W", 300),
		"Ünïcödé 试剂 ликвид " + strings.Repeat("ß", 80),
		"",
	}

	for _, name := range names {
		a := Synthesize("https://lab.example.com/item/abc123?notify=1", name, model.StatusOK)
		if n := len(a.Layout.Lines); n > 2 {
			t.Fatalf("name %.20q: %d lines, want at most 2", name, n)
		}
		for i, line := range a.Layout.Lines {
			if line.Width > textWidth {
				t.Errorf("name %.20q line %d width %d exceeds %d", name, i, line.Width, textWidth)
			}
		}
	}

	long := Synthesize("https://lab.example.com/item/x", strings.Repeat("Nitrile Gloves Size Medium ", 8), model.StatusNone)
	if len(long.Layout.Lines) != 2 || !strings.HasSuffix(long.Layout.Lines[1].Text, "…") {
		t.Errorf("long name lines = %+v, want two lines ending in ellipsis", long.Layout.Lines)
	}
}

func TestSynthesizeLayoutWithinBox(t *testing.T) {
	a := Synthesize("https://lab.example.com/item/abc123?notify=1", "Pipette Tips", model.StatusLow)
	if a.Failed() {
		t.Fatalf("unexpected encoding failure: %v", a.Err)
	}
	l := a.Layout
	if l.Module < 3 {
		t.Errorf("module pitch = %d, want >= 3", l.Module)
	}
	end := l.Origin.Add(image.Pt(a.Barcode.Size()*l.Module, a.Barcode.Size()*l.Module))
	quiet := image.Pt(QuietModules*l.Module, QuietModules*l.Module)
	if !l.Origin.Sub(quiet).In(l.BarcodeBox) || end.Add(quiet).X > l.BarcodeBox.Max.X || end.Add(quiet).Y > l.BarcodeBox.Max.Y {
		t.Errorf("barcode %v-%v with quiet zone escapes box %v", l.Origin, end, l.BarcodeBox)
	}
	if l.Badge == nil || l.Badge.Rect.Max.Y > l.Tagline.Y-taglineSize {
		t.Errorf("badge %+v overlaps tagline at %d", l.Badge, l.Tagline.Y)
	}
}

func TestSVGEscapesName(t *testing.T) {
	a := Synthesize("https://lab.example.com/item/abc123?notify=1", `<script>alert(1)</script> & Co`, model.StatusOK)

	var buf bytes.Buffer
	if err := SVG().Render(&buf, a); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<script>") {
		t.Fatal("SVG contains unescaped markup from the name")
	}
	if !strings.Contains(out, "&lt;script&gt;alert(1)&lt;/script&gt;") {
		t.Error("SVG missing escaped name")
	}
	if !strings.Contains(out, "&amp;") {
		t.Error("SVG missing escaped ampersand")
	}
}

func TestSVGBadge(t *testing.T) {
	tests := []struct {
		status    model.Status
		wantText  string
		wantFill  string
		wantBadge bool
	}{
		{model.StatusLow, "Low</text>", "#fee2e2", true},
		{model.StatusOK, "OK</text>", "#dcfce7", true},
		{model.StatusNone, "", "", false},
	}

	for _, tt := range tests {
		a := Synthesize("https://lab.example.com/item/abc123?notify=1", "Pipette Tips", tt.status)
		var buf bytes.Buffer
		if err := SVG().Render(&buf, a); err != nil {
			t.Fatalf("Render: %v", err)
		}
		out := buf.String()

		if !tt.wantBadge {
			if a.Layout.Badge != nil || strings.Contains(out, "#fee2e2") || strings.Contains(out, "#dcfce7") {
				t.Errorf("status %q: unexpected badge", tt.status)
			}
			continue
		}
		if !strings.Contains(out, tt.wantText) || !strings.Contains(out, tt.wantFill) {
			t.Errorf("status %q: badge text %q or fill %q missing", tt.status, tt.wantText, tt.wantFill)
		}
		if !strings.Contains(out, Tagline) {
			t.Errorf("status %q: tagline missing", tt.status)
		}
	}
}

func TestPNGBarcodeDecodes(t *testing.T) {
	payload := "https://lab.example.com/item/abc123?notify=1"
	a := Synthesize(payload, "Pipette Tips", model.StatusLow)

	var buf bytes.Buffer
	if err := PNG(3).Render(&buf, a); err != nil {
		t.Fatalf("Render: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if got := img.Bounds(); got.Dx() != Width*3 || got.Dy() != Height*3 {
		t.Fatalf("bounds = %v, want %dx%d", got, Width*3, Height*3)
	}

	box := scaleRect(a.Layout.BarcodeBox, 3)
	crop := image.NewRGBA(image.Rect(0, 0, box.Dx(), box.Dy()))
	draw.Draw(crop, crop.Bounds(), img, box.Min, draw.Src)

	if got := decodeImage(t, crop); got != payload {
		t.Errorf("decoded %q, want %q", got, payload)
	}
}

func TestRenderBarcode(t *testing.T) {
	payload := "https://lab.example.com/item/abc123"

	var buf bytes.Buffer
	if err := RenderBarcode(&buf, payload, FormatPNG, 400); err != nil {
		t.Fatalf("RenderBarcode: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if got := decodeImage(t, img); got != payload {
		t.Errorf("decoded %q, want %q", got, payload)
	}

	buf.Reset()
	if err := RenderBarcode(&buf, payload, FormatSVG, 400); err != nil {
		t.Fatalf("RenderBarcode svg: %v", err)
	}
	if !strings.Contains(buf.String(), "<path") {
		t.Error("SVG barcode has no modules")
	}

	if err := RenderBarcode(&buf, payload, "gif", 400); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestEncodingFailurePlaceholder(t *testing.T) {
	payload := "https://lab.example.com/item/" + strings.Repeat("x", 400)
	a := Synthesize(payload, "Pipette Tips", model.StatusOK)
	if !a.Failed() || !errors.Is(a.Err, ErrEncoding) {
		t.Fatalf("Failed() = %v, Err = %v; want encoding failure", a.Failed(), a.Err)
	}

	var buf bytes.Buffer
	if err := SVG().Render(&buf, a); err != nil {
		t.Fatalf("Render svg: %v", err)
	}
	if !strings.Contains(buf.String(), FailureMarker) {
		t.Error("SVG missing failure marker")
	}

	buf.Reset()
	if err := PNG(1).Render(&buf, a); err != nil {
		t.Fatalf("Render png: %v", err)
	}

	buf.Reset()
	err := RenderBarcode(&buf, payload, FormatSVG, 200)
	if !errors.Is(err, ErrEncoding) {
		t.Errorf("RenderBarcode error = %v, want ErrEncoding", err)
	}
	if !strings.Contains(buf.String(), FailureMarker) {
		t.Error("barcode placeholder missing failure marker")
	}
}

func TestBarcodePNGFailureMarker(t *testing.T) {
	payload := "https://lab.example.com/item/" + strings.Repeat("x", 400)

	var buf bytes.Buffer
	if err := RenderBarcode(&buf, payload, FormatPNG, 512); !errors.Is(err, ErrEncoding) {
		t.Fatalf("RenderBarcode error = %v, want ErrEncoding", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decoding placeholder: %v", err)
	}

	// The dashed border sits on the edges; anything inked in the middle is the marker text.
	inked := 0
	for y := 512 * 3 / 8; y < 512*5/8; y++ {
		for x := 512 / 8; x < 512*7/8; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r>>8 != 0xfa {
				inked++
			}
		}
	}
	if inked < 100 {
		t.Errorf("placeholder centre has %d inked pixels, want the failure marker", inked)
	}
}

func TestEncodeBarcodeVersionLimit(t *testing.T) {
	b, err := EncodeBarcode("https://lab.example.com/item/abc123?notify=1")
	if err != nil {
		t.Fatalf("EncodeBarcode: %v", err)
	}
	if b.Version > MaxVersion || b.Size() != 17+4*b.Version {
		t.Errorf("version %d size %d inconsistent", b.Version, b.Size())
	}
	if _, err := EncodeBarcode(""); !errors.Is(err, ErrEncoding) {
		t.Errorf("empty payload error = %v, want ErrEncoding", err)
	}
}

func TestRendererFor(t *testing.T) {
	for format, want := range map[string]string{"": "image/svg+xml", "svg": "image/svg+xml", "PNG": "image/png"} {
		r, err := RendererFor(format)
		if err != nil {
			t.Fatalf("RendererFor(%q): %v", format, err)
		}
		if r.ContentType() != want {
			t.Errorf("RendererFor(%q).ContentType() = %q, want %q", format, r.ContentType(), want)
		}
	}
	if _, err := RendererFor("bmp"); err == nil {
		t.Error("expected error for bmp")
	}
}
