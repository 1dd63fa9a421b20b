package export

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// ImageExtensions lists the raster formats SaveImage understands.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff"}

// SaveImage writes the frame's raster to req.Path, choosing the encoder by
// extension. scale > 1 upsamples with nearest neighbour.
func SaveImage(req Request, scale int) error {
	if !req.Frame.HasImage() {
		return ErrNoDataToExport
	}

	enc, err := encoderFor(req.Path)
	if err != nil {
		return &IOError{Path: req.Path, Detail: err.Error()}
	}

	img := Upscale(req.Frame.Image, scale)

	if dir := filepath.Dir(req.Path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return ioFailure(req.Path, err)
		}
	}

	file, err := os.Create(req.Path)
	if err != nil {
		return ioFailure(req.Path, err)
	}

	if err := enc(file, img); err != nil {
		file.Close()
		return ioFailure(req.Path, err)
	}
	if err := file.Close(); err != nil {
		return ioFailure(req.Path, err)
	}
	return nil
}

// Upscale returns src enlarged by an integer factor; factors below 2
// return src unchanged.
func Upscale(src image.Image, scale int) image.Image {
	if scale < 2 {
		return src
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

type encodeFunc func(io.Writer, image.Image) error

func encoderFor(path string) (encodeFunc, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return png.Encode, nil
	case ".jpg", ".jpeg":
		return func(w io.Writer, m image.Image) error {
			return jpeg.Encode(w, m, &jpeg.Options{Quality: 95})
		}, nil
	case ".gif":
		return func(w io.Writer, m image.Image) error {
			return gif.Encode(w, m, nil)
		}, nil
	case ".bmp":
		return bmp.Encode, nil
	case ".tif", ".tiff":
		return func(w io.Writer, m image.Image) error {
			return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate})
		}, nil
	case "":
		return nil, fmt.Errorf("missing image extension, want one of %s", strings.Join(ImageExtensions, " "))
	default:
		return nil, fmt.Errorf("unsupported image extension %q", filepath.Ext(path))
	}
}
