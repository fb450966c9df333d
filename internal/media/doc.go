// Package media applies the still-image filter chain.
//
// Every image goes through the same fixed sequence:
//
//  1. grayscale
//  2. brightness modulation (multiplier, 1 = unchanged)
//  3. sharpen with a Gaussian sigma
//  4. gamma correction (the "contrast" parameter)
//
// and is returned as JPEG bytes. libvips, through govips, does the work when
// it has been initialized with InitVips; otherwise a pure-Go implementation
// built on disintegration/imaging produces the same chain.
package media
