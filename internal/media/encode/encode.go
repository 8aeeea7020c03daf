package encode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"github.com/LAMpbrien/adventures-of/internal/media/sniffer"
)

type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

const jpegQuality = 90

var ErrUnsupportedFormat = errors.New("unsupported output format")

func (f Format) MIME() string {
	if f == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// To re-encodes data into format. Data already in the target format is
// returned untouched.
func To(data []byte, format Format) ([]byte, error) {
	if format != FormatJPEG && format != FormatPNG {
		return nil, ErrUnsupportedFormat
	}

	detected, err := sniffer.DetectHead(head(data))
	if err == nil && string(detected.Type) == string(format) {
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	case FormatPNG:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

func head(data []byte) []byte {
	if len(data) > 512 {
		return data[:512]
	}
	return data
}
