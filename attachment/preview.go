package attachment

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	_ "image/gif"
	_ "image/jpeg"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/tailored-agentic-units/mentify/core/protocol"
)

// DecodePreview decodes an image and re-encodes it as a PNG whose longest
// side is at most maxEdge pixels. Images already within bounds keep their size.
//
// The header is read first: images whose width*height exceeds maxPixels fail
// with ErrImageTooLarge before any pixel data is decoded. maxPixels <= 0
// disables the check.
func DecodePreview(r io.Reader, maxEdge int, maxPixels int64) (*protocol.Preview, error) {
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); maxPixels > 0 && pixels > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, maxPixels)
	}

	src, _, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	w, h := scaledSize(bounds.Dx(), bounds.Dy(), maxEdge)
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("decode image: empty bounds %v", bounds)
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}

	return &protocol.Preview{
		Width:     w,
		Height:    h,
		MediaType: "image/png",
		Data:      buf.Bytes(),
	}, nil
}

func scaledSize(w, h, maxEdge int) (int, int) {
	if maxEdge <= 0 || (w <= maxEdge && h <= maxEdge) {
		return w, h
	}
	if w >= h {
		return maxEdge, max(1, h*maxEdge/w)
	}
	return max(1, w*maxEdge/h), maxEdge
}
