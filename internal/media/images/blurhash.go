package images

import (
	"fmt"
	"image"

	"github.com/bbrks/go-blurhash"
	"golang.org/x/image/draw"
)

// blurHashSize is the thumbnail size used for BlurHash computation.
// BlurHash is a low-resolution placeholder, so a small thumbnail produces
// nearly identical results at a fraction of the cost.
const blurHashSize = 64

// computeBlurHash generates a BlurHash string from an image.
// Uses 4x3 components, a good balance of size (~20-30 chars) and detail.
func computeBlurHash(img image.Image) (string, error) {
	hash, err := blurhash.Encode(4, 3, thumbnailFor(img))
	if err != nil {
		return "", fmt.Errorf("encode blurhash: %w", err)
	}
	return hash, nil
}

// thumbnailFor scales the image down for fast BlurHash computation.
// A cheap scaler is sufficient here.
func thumbnailFor(img image.Image) image.Image {
	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	if srcWidth <= blurHashSize && srcHeight <= blurHashSize {
		return img
	}

	var dstWidth, dstHeight int
	if srcWidth > srcHeight {
		dstWidth = blurHashSize
		dstHeight = max((srcHeight*blurHashSize)/srcWidth, 1)
	} else {
		dstHeight = blurHashSize
		dstWidth = max((srcWidth*blurHashSize)/srcHeight, 1)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstWidth, dstHeight))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
