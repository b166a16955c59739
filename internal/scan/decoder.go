// Package scan reads copy codes from QR images: a decoder for single frames
// and an exclusive capture session that polls a frame source.
package scan

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register decoders for capture snapshots
	_ "image/png"
	"os"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ErrNoCode is returned when a frame holds no readable QR code.
var ErrNoCode = errors.New("no QR code in frame")

// Decoder extracts the text of a code from one frame.
type Decoder interface {
	Decode(img image.Image) (string, error)
}

// QRDecoder decodes QR codes with gozxing.
type QRDecoder struct {
	reader gozxing.Reader
	hints  map[gozxing.DecodeHintType]interface{}
}

// NewQRDecoder returns a decoder that tries hard on noisy camera frames.
func NewQRDecoder() *QRDecoder {
	return &QRDecoder{
		reader: qrcode.NewQRCodeReader(),
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// Decode returns the trimmed text of the QR code in img.
func (d *QRDecoder) Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("preparing frame: %w", err)
	}
	res, err := d.reader.Decode(bmp, d.hints)
	if err != nil {
		var re gozxing.ReaderException
		if errors.As(err, &re) {
			return "", ErrNoCode
		}
		return "", err
	}
	text := strings.TrimSpace(res.GetText())
	if text == "" {
		return "", ErrNoCode
	}
	return text, nil
}

// LoadImage reads and decodes an image file.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

// DecodeFile decodes the QR code in an image file.
func DecodeFile(d Decoder, path string) (string, error) {
	img, err := LoadImage(path)
	if err != nil {
		return "", err
	}
	return d.Decode(img)
}
