package main

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/erazemk/labstock/internal/api"
	"github.com/erazemk/labstock/internal/identity"
	"github.com/erazemk/labstock/internal/label"
	"github.com/erazemk/labstock/internal/model"
	"github.com/erazemk/labstock/internal/printing"
)

var labelOpts struct {
	id     string
	name   string
	status string
	format string
	out    string
	print  bool
}

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Render an item label to a file",
	Long: `Render the printable label of an item without a running server.

The barcode points at {base-url}/item/{id}?notify=1, so --base-url (or
BASE_URL) is required. With --print the output is a self-contained HTML
page that opens the print dialog.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeLabel()
	},
}

func init() {
	f := labelCmd.Flags()
	f.StringVar(&labelOpts.id, "id", "", "item id (required)")
	f.StringVar(&labelOpts.name, "name", "", "item name printed under the barcode")
	f.StringVar(&labelOpts.status, "status", "", "stock badge: low or ok")
	f.StringVarP(&labelOpts.format, "format", "f", label.FormatSVG, "image format: svg or png")
	f.StringVarP(&labelOpts.out, "out", "o", "", "output path (default: derived from the name)")
	f.BoolVar(&labelOpts.print, "print", false, "write a print page instead of an image")
	labelCmd.MarkFlagRequired("id")
}

func writeLabel() error {
	payload, err := identity.Encode(cfg.BaseURL, labelOpts.id, true)
	if errors.Is(err, identity.ErrNoOrigin) {
		return errors.New("--base-url or BASE_URL is required to render labels")
	}
	if err != nil {
		return err
	}

	renderer, err := label.RendererFor(labelOpts.format)
	if err != nil {
		return err
	}

	artifact := label.Synthesize(payload, labelOpts.name, model.ParseStatus(labelOpts.status))
	if artifact.Failed() {
		slog.Warn("label barcode encoding failed", "item", labelOpts.id, "error", artifact.Err)
	}

	var img bytes.Buffer
	if err := renderer.Render(&img, artifact); err != nil {
		return fmt.Errorf("rendering label: %w", err)
	}

	out := labelOpts.out
	if out == "" {
		ext := renderer.Extension()
		if labelOpts.print {
			ext = "html"
		}
		out = api.LabelFilename(labelOpts.name, labelOpts.id, ext)
	}

	data := img.Bytes()
	if labelOpts.print {
		var page bytes.Buffer
		err := printing.Render(&page, printing.Page{
			Title:  "Print Label",
			Src:    "data:" + renderer.ContentType() + ";base64," + base64.StdEncoding.EncodeToString(data),
			Width:  label.Width,
			Height: label.Height,
		})
		if err != nil {
			return fmt.Errorf("rendering print page: %w", err)
		}
		data = page.Bytes()
	}

	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("writing label: %w", err)
	}

	slog.Info("label written", "item", labelOpts.id, "path", out, "payload", payload)
	return nil
}
