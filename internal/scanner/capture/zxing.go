package capture

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ZXingEngine decodes retail barcodes (EAN-13, EAN-8, UPC-A, Code 128) and QR codes
type ZXingEngine struct {
	readers []gozxing.Reader
	hints   map[gozxing.DecodeHintType]interface{}
}

// NewZXingEngine creates an engine with the retail and QR readers enabled
func NewZXingEngine() *ZXingEngine {
	return &ZXingEngine{
		readers: []gozxing.Reader{
			oned.NewEAN13Reader(),
			oned.NewEAN8Reader(),
			oned.NewUPCAReader(),
			oned.NewCode128Reader(),
			qrcode.NewQRCodeReader(),
		},
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

func (e *ZXingEngine) Decode(ctx context.Context, frames <-chan image.Image, fn func(text string, err error)) error {
	if frames == nil {
		return ErrSourceUnavailable
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case img, ok := <-frames:
			if !ok {
				return nil
			}
			fn(e.decodeFrame(img))
		}
	}
}

func (e *ZXingEngine) decodeFrame(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("failed to binarize frame: %w", err)
	}

	var failure error
	for _, reader := range e.readers {
		result, err := reader.Decode(bmp, e.hints)
		if err == nil {
			return result.GetText(), nil
		}
		if !isNoResult(err) && failure == nil {
			failure = err
		}
	}
	if failure != nil {
		return "", failure
	}
	return "", ErrNotFound
}

func (e *ZXingEngine) Reset() {
	for _, reader := range e.readers {
		reader.Reset()
	}
}

// isNoResult treats an unreadable or half-read symbol like an empty frame,
// the next frame usually reads cleanly.
func isNoResult(err error) bool {
	var (
		notFound gozxing.NotFoundException
		checksum gozxing.ChecksumException
		format   gozxing.FormatException
	)
	return errors.As(err, &notFound) || errors.As(err, &checksum) || errors.As(err, &format)
}
