// Package printing wraps a label image in a self-printing HTML document.
package printing

import (
	"errors"
	"html/template"
	"io"
	"net/url"
	"strings"
)

// ErrInvalidSource is returned when the label source is not a same-origin
// path, an http(s) URL or an inline image data URI.
var ErrInvalidSource = errors.New("invalid label source")

// LoadFailedText is shown in place of the label when the image fails to load.
const LoadFailedText = "Label could not be loaded"

// Page describes one print document.
type Page struct {
	Title  string
	Src    string
	Width  int
	Height int
}

var dataPrefixes = []string{
	"data:image/svg+xml;base64,",
	"data:image/png;base64,",
}

var tmpl = template.Must(template.New("print").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
@page { margin: 0; }
html, body { margin: 0; padding: 0; background: #fff; }
body { display: flex; align-items: center; justify-content: center; min-height: 100vh; }
img { display: block; width: {{.Width}}px; height: {{.Height}}px; }
.failed { width: {{.Width}}px; height: {{.Height}}px; display: flex; align-items: center; justify-content: center;
  border: 2px dashed #b91c1c; color: #b91c1c; font: 700 16px system-ui, sans-serif; box-sizing: border-box; }
</style>
</head>
<body>
<img id="label" src="{{.Src}}" width="{{.Width}}" height="{{.Height}}" alt="{{.Title}}">
<script>
(function () {
  var img = document.getElementById("label");
  var printed = false;
  function print() {
    if (printed) { return; }
    printed = true;
    window.print();
  }
  window.addEventListener("afterprint", function () { window.close(); });
  img.addEventListener("load", print);
  img.addEventListener("error", function () {
    var box = document.createElement("div");
    box.className = "failed";
    box.textContent = {{.Failed}};
    img.replaceWith(box);
    print();
  });
  if (img.complete && img.naturalWidth > 0) { print(); }
})();
</script>
</body>
</html>
`))

type pageData struct {
	Title  string
	Src    template.URL
	Width  int
	Height int
	Failed string
}

// Render writes the print document for p.
func Render(w io.Writer, p Page) error {
	src, err := checkSource(p.Src)
	if err != nil {
		return err
	}
	if p.Title == "" {
		p.Title = "Label"
	}

	return tmpl.Execute(w, pageData{
		Title:  p.Title,
		Src:    template.URL(src),
		Width:  p.Width,
		Height: p.Height,
		Failed: LoadFailedText,
	})
}

func checkSource(src string) (string, error) {
	if src == "" {
		return "", ErrInvalidSource
	}
	for _, prefix := range dataPrefixes {
		if strings.HasPrefix(src, prefix) {
			return src, nil
		}
	}

	u, err := url.Parse(src)
	if err != nil {
		return "", ErrInvalidSource
	}
	switch {
	case u.Scheme == "" && u.Host == "" && strings.HasPrefix(u.Path, "/"):
		return u.String(), nil
	case (u.Scheme == "http" || u.Scheme == "https") && u.Host != "":
		return u.String(), nil
	}
	return "", ErrInvalidSource
}
