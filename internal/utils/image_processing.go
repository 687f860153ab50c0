package utils

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"

	"github.com/disintegration/imaging"
)

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// RotateImage rotates img by degrees counter-clockwise. The output canvas
// grows to fit the rotated content; uncovered corners are filled with bg.
// Multiples of 90 are lossless.
func RotateImage(img image.Image, degrees float64, bg color.Color) (*image.NRGBA, error) {
	if img == nil {
		return nil, &ImageProcessingError{Operation: "rotate", Err: errors.New("input image is nil")}
	}
	if bg == nil {
		bg = color.White
	}
	return imaging.Rotate(img, degrees, bg), nil
}

// ParseHexColor parses colors like "#RRGGBB" or "RRGGBB".
func ParseHexColor(s string) (color.Color, error) {
	if s != "" && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return nil, fmt.Errorf("invalid color %q: expected #RRGGBB", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", s, err)
	}
	r, g, b := uint8(v>>16), uint8(v>>8), uint8(v) //nolint:gosec // G115: each byte is masked by the conversion
	return color.RGBA{r, g, b, 255}, nil
}
