package media

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidParameter is returned for filter parameters that are not
// finite positive numbers.
var ErrInvalidParameter = errors.New("invalid filter parameter")

// Parameter defaults.
const (
	DefaultBrightness = 1.0
	DefaultSharpness  = 1.0
	DefaultContrast   = 1.5
)

// Accepted ranges. Values outside are clamped.
const (
	MaxBrightness = 10.0
	MinSharpness  = 0.01
	MaxSharpness  = 10.0
	MinContrast   = 1.0
	MaxContrast   = 3.0
)

// FilterParams are the caller's knobs for the filter chain.
type FilterParams struct {
	Brightness float64 // multiplier applied after grayscale
	Sharpness  float64 // Gaussian sigma of the sharpen step
	Contrast   float64 // gamma exponent
}

// DefaultFilterParams returns the parameters used when the caller sets none.
func DefaultFilterParams() FilterParams {
	return FilterParams{
		Brightness: DefaultBrightness,
		Sharpness:  DefaultSharpness,
		Contrast:   DefaultContrast,
	}
}

// ParseFilterParams reads brightness, sharpness and contrast from query
// values. Missing or blank values take their defaults.
func ParseFilterParams(values url.Values) (FilterParams, error) {
	p := DefaultFilterParams()

	fields := []struct {
		name string
		dst  *float64
	}{
		{"brightness", &p.Brightness},
		{"sharpness", &p.Sharpness},
		{"contrast", &p.Contrast},
	}

	for _, f := range fields {
		raw := strings.TrimSpace(values.Get(f.name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return FilterParams{}, fmt.Errorf("%w: %s must be a positive number, got %q", ErrInvalidParameter, f.name, raw)
		}
		*f.dst = v
	}

	return p.Clamp(), nil
}

// Clamp limits each parameter to the range the filter operations accept.
func (p FilterParams) Clamp() FilterParams {
	return FilterParams{
		Brightness: math.Min(p.Brightness, MaxBrightness),
		Sharpness:  clamp(p.Sharpness, MinSharpness, MaxSharpness),
		Contrast:   clamp(p.Contrast, MinContrast, MaxContrast),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
