package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"os"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// jpegQuality is the encoder quality for optimized covers.
const jpegQuality = 80

// Optimizer applies the deterministic cover transform: a bounded-width resize
// preserving aspect ratio, re-encoded as JPEG.
type Optimizer struct {
	targetWidth int
}

// NewOptimizer creates an Optimizer scaling covers down to targetWidth.
func NewOptimizer(targetWidth int) *Optimizer {
	return &Optimizer{targetWidth: targetWidth}
}

// Result holds the optimized image data and derived metadata.
type Result struct {
	Data     []byte // JPEG-encoded optimized image
	Width    int
	Height   int
	BlurHash string
}

// Optimize reads the image at path, scales it to the target width if wider,
// and re-encodes it as JPEG. Images narrower than the target keep their size.
func (o *Optimizer) Optimize(path string) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	src, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	img := src
	bounds := src.Bounds()
	if bounds.Dx() > o.targetWidth {
		height := (bounds.Dy() * o.targetWidth) / bounds.Dx()
		if height < 1 {
			height = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, o.targetWidth, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	hash, err := computeBlurHash(img)
	if err != nil {
		// A missing placeholder never fails the optimization.
		hash = ""
	}

	out := img.Bounds()
	return &Result{
		Data:     buf.Bytes(),
		Width:    out.Dx(),
		Height:   out.Dy(),
		BlurHash: hash,
	}, nil
}
