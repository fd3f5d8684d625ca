package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/labstock/internal/identity"
	"github.com/erazemk/labstock/internal/imaging"
	"github.com/erazemk/labstock/internal/scan"
)

// ScanPage handles GET /scan.
func (s *Server) ScanPage(w http.ResponseWriter, r *http.Request) {
	s.renderScan(w, http.StatusOK, "", "")
}

func (s *Server) renderScan(w http.ResponseWriter, status int, payload, errMsg string) {
	s.Templates.RenderStatus(w, status, "scan.html", &struct {
		PageData
		Payload string
	}{
		PageData: PageData{Title: "Scan", Error: errMsg},
		Payload:  payload,
	})
}

// ScanSubmit handles POST /scan. The form carries either the text typed by
// a keyboard wedge scanner or a photo of a label.
func (s *Server) ScanSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxBytes+1<<20)

	payload := strings.TrimSpace(r.FormValue("payload"))
	if payload == "" {
		file, _, err := r.FormFile("photo")
		if err != nil && !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
			s.renderScan(w, http.StatusBadRequest, "", "could not read upload")
			return
		}
		if file != nil {
			defer file.Close()
			payload, err = scan.DecodePhoto(file)
			if err != nil {
				slog.Warn("failed to decode scan photo", "error", err)
				msg := "no barcode found in the photo"
				switch {
				case errors.Is(err, imaging.ErrUnsupported):
					msg = "only JPEG and PNG photos are supported"
				case errors.Is(err, imaging.ErrTooLarge):
					msg = "the photo is too large"
				}
				s.renderScan(w, http.StatusUnprocessableEntity, "", msg)
				return
			}
		}
	}

	if payload == "" {
		s.renderScan(w, http.StatusBadRequest, "", "scan a label or enter an item id")
		return
	}

	path, err := identity.Route(payload)
	if err != nil {
		s.renderScan(w, http.StatusBadRequest, payload, "not a label from this inventory")
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}
