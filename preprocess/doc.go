// Package preprocess turns a rendered page bitmap into an image ready for
// recognition.
//
// Stages run in a fixed order and each can be switched off:
//
//  1. grayscale - convert to 8-bit luminance
//  2. denoise - 5x5 separable Gaussian blur
//  3. contrast - CLAHE (clip limit 2.0 on an 8x8 tile grid)
//  4. binarize - global Otsu threshold
//  5. deskew - projection-profile angle search, rotate when |angle| > 0.5°
//
// A stage that fails (or panics) leaves its input untouched for the next
// stage; the failure is reported in [Result.Failures] rather than aborting
// the page. Deskew skips rotations within the tolerance, so running it on
// an already corrected image does not rotate it again.
package preprocess
