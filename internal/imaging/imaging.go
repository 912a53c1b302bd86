// Package imaging compresses uploaded images before they are stored.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var (
	// ErrTooLarge is returned before decoding when the input exceeds MaxBytes
	// or its header declares more than MaxPixels.
	ErrTooLarge = errors.New("image exceeds size limit")
	// ErrUnprocessable is returned when the input cannot be decoded or encoded.
	ErrUnprocessable = errors.New("image could not be processed")
)

// OutputMIMEType is the content type of every ingested image.
const OutputMIMEType = "image/jpeg"

// Options configures the target bounding box and encoder quality.
type Options struct {
	MaxBytes  int64
	MaxPixels int64
	MaxWidth  int
	MaxHeight int
	Quality   int
}

// DefaultOptions caps input at 5 MiB and 40 megapixels and fits output into
// 800x600 at quality 85.
func DefaultOptions() Options {
	return Options{
		MaxBytes:  5 * 1024 * 1024,
		MaxPixels: 40_000_000,
		MaxWidth:  800,
		MaxHeight: 600,
		Quality:   85,
	}
}

// Ingestor is a pure byte-in/byte-out transform. It is safe for concurrent use.
type Ingestor struct {
	opts Options
}

// New returns an Ingestor. Non-positive fields fall back to DefaultOptions.
func New(opts Options) *Ingestor {
	defaults := DefaultOptions()
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaults.MaxBytes
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = defaults.MaxPixels
	}
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = defaults.MaxWidth
	}
	if opts.MaxHeight <= 0 {
		opts.MaxHeight = defaults.MaxHeight
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = defaults.Quality
	}
	return &Ingestor{opts: opts}
}

// Options returns the effective configuration.
func (i *Ingestor) Options() Options {
	return i.opts
}

// Ingest checks the byte and pixel limits, decodes raw, scales it down to fit
// the bounding box and re-encodes it as JPEG.
func (i *Ingestor) Ingest(raw []byte) ([]byte, error) {
	if int64(len(raw)) > i.opts.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrTooLarge, len(raw), i.opts.MaxBytes)
	}

	// 只读取文件头中的尺寸，避免为超大分辨率分配像素缓冲
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: decode config: %v", ErrUnprocessable, err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > i.opts.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d pixels, max %d", ErrTooLarge, cfg.Width, cfg.Height, i.opts.MaxPixels)
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnprocessable, err)
	}

	bounds := src.Bounds()
	width, height := FitWithin(bounds.Dx(), bounds.Dy(), i.opts.MaxWidth, i.opts.MaxHeight)
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrUnprocessable)
	}

	// JPEG 不支持透明通道，先铺白底再缩放
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: i.opts.Quality}); err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrUnprocessable, err)
	}
	return out.Bytes(), nil
}

// FitWithin scales width x height down to fit maxWidth x maxHeight while
// keeping the aspect ratio. It never upscales.
func FitWithin(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}

	// 取宽高两个方向中更严格的缩放比例，整数运算避免浮点误差
	if width*maxHeight >= height*maxWidth {
		scaledHeight := height * maxWidth / width
		if scaledHeight < 1 {
			scaledHeight = 1
		}
		return maxWidth, scaledHeight
	}
	scaledWidth := width * maxHeight / height
	if scaledWidth < 1 {
		scaledWidth = 1
	}
	return scaledWidth, maxHeight
}
