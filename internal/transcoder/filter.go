package transcoder

import (
	"strconv"
	"strings"
)

// ColorMix is a colorchannelmixer matrix. Row i gives the weights of the
// input red, green and blue channels that make up output channel i.
type ColorMix [3][3]float64

// Desaturate mixes every output channel from the same weighted sum of the
// inputs, producing a gray picture.
var Desaturate = ColorMix{
	{.3, .4, .3},
	{.3, .4, .3},
	{.3, .4, .3},
}

// Filter returns the FFmpeg video filter for the matrix. Alpha terms are
// left at zero.
func (m ColorMix) Filter() string {
	terms := make([]string, 0, 11)
	for i, row := range m {
		if i > 0 {
			terms = append(terms, "0")
		}
		for _, w := range row {
			terms = append(terms, formatWeight(w))
		}
	}
	return "colorchannelmixer=" + strings.Join(terms, ":")
}

func formatWeight(w float64) string {
	s := strconv.FormatFloat(w, 'f', -1, 64)
	if strings.HasPrefix(s, "0.") {
		return s[1:]
	}
	if strings.HasPrefix(s, "-0.") {
		return "-" + s[2:]
	}
	return s
}

// Profile is the video encoding configuration.
type Profile struct {
	Codec       string
	Preset      string
	PixelFormat string
}

// DefaultProfile is H.264 at the fast preset in yuv420p, which every browser
// can play.
var DefaultProfile = Profile{
	Codec:       "libx264",
	Preset:      "fast",
	PixelFormat: "yuv420p",
}

func (p Profile) args() []string {
	return []string{
		"-c:v", p.Codec,
		"-preset", p.Preset,
		"-pix_fmt", p.PixelFormat,
	}
}
