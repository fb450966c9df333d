package media

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"

	"media-editor/internal/logging"

	// Decoders for the accepted upload formats
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
)

const (
	// MaxImagePixels is the largest image the pure-Go backend decodes at
	// full size. Larger inputs are downscaled before filtering.
	MaxImagePixels = 40_000_000

	// JPEGQuality is the output quality of both backends.
	JPEGQuality = 90
)

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns image dimensions without fully decoding the image
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}

// loadImageConstrained decodes path, downscaling it when it holds more than
// maxPixels pixels.
func loadImageConstrained(path string, maxPixels int) (image.Image, error) {
	dims, err := GetImageDimensions(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	pixels := dims.Width * dims.Height
	if pixels <= maxPixels {
		return img, nil
	}

	scale := float64(maxPixels) / float64(pixels)
	b := img.Bounds()
	w := max(1, int(float64(b.Dx())*math.Sqrt(scale)))
	logging.Info("Constraining large image %s from %dx%d (%d pixels) to width %d", path, b.Dx(), b.Dy(), pixels, w)
	return imaging.Resize(img, w, 0, imaging.Lanczos), nil
}

// filterWithImaging runs the chain with the pure-Go backend and writes JPEG
// to w.
func filterWithImaging(ctx context.Context, path string, params FilterParams, w io.Writer) error {
	img, err := loadImageConstrained(path, MaxImagePixels)
	if err != nil {
		return err
	}

	steps := []func(image.Image) image.Image{
		flattenOnWhite,
		func(src image.Image) image.Image { return imaging.Grayscale(src) },
		func(src image.Image) image.Image { return scaleBrightness(src, params.Brightness) },
		func(src image.Image) image.Image { return imaging.Sharpen(src, params.Sharpness) },
		func(src image.Image) image.Image { return imaging.AdjustGamma(src, params.Contrast) },
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		img = step(img)
	}

	if err := imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return nil
}

// flattenOnWhite composites img over an opaque white background. JPEG has
// no alpha, so transparency is resolved before the filters touch the color
// channels.
func flattenOnWhite(img image.Image) image.Image {
	if opaque, ok := img.(interface{ Opaque() bool }); ok && opaque.Opaque() {
		return img
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

// scaleBrightness multiplies every color channel by factor.
func scaleBrightness(img image.Image, factor float64) *image.NRGBA {
	if factor == 1 {
		return imaging.Clone(img)
	}

	var lut [256]uint8
	for i := range lut {
		lut[i] = uint8(clamp(float64(i)*factor+0.5, 0, 255))
	}

	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: lut[c.R], G: lut[c.G], B: lut[c.B], A: c.A}
	})
}
