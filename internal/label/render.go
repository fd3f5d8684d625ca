package label

import (
	"fmt"
	"image/color"
	"io"
	"strings"
)

// Renderer encodes an artifact in one output format.
type Renderer interface {
	ContentType() string
	Extension() string
	Render(w io.Writer, a *Artifact) error
}

// Supported formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

// DefaultPNGScale is the device pixel ratio of raster labels.
const DefaultPNGScale = 3

// RendererFor returns the renderer for a format name. An empty format
// selects SVG.
func RendererFor(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", FormatSVG:
		return SVG(), nil
	case FormatPNG:
		return PNG(DefaultPNGScale), nil
	default:
		return nil, fmt.Errorf("unsupported label format %q", format)
	}
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// errWriter remembers the first write error; svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
