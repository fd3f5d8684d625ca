package scan

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"

	"github.com/erazemk/labstock/internal/imaging"
)

// ErrNoBarcode is returned when no QR code can be read from an image.
var ErrNoBarcode = errors.New("no barcode found in image")

// DecodeImage reads the text of the QR code in img.
func DecodeImage(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("preparing image: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	res, err := zxqr.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoBarcode, err)
	}
	return res.GetText(), nil
}

// DecodePhoto loads a JPEG or PNG photo and reads its QR code.
func DecodePhoto(r io.Reader) (string, error) {
	img, err := imaging.Load(r)
	if err != nil {
		return "", err
	}
	return DecodeImage(img)
}
