// Package imaging holds the pure-Go pixel operations of the capture pipeline:
// grayscale conversion, face cropping, thumbnail resizing, mirroring and the
// operator overlay. Keeping them free of cgo lets the kiosk loop be tested
// without a camera or an OpenCV install.
package imaging

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// ToGray returns img as an 8-bit grayscale image with its origin at (0, 0).
// Gray images that already start at the origin are returned as is.
func ToGray(img image.Image) *image.Gray {
	b := img.Bounds()
	if g, ok := img.(*image.Gray); ok && b.Min == (image.Point{}) {
		return g
	}
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// ToRGBA copies img onto a fresh RGBA canvas that the overlay can draw on.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// MirrorHorizontal returns a left-right flipped RGBA copy of img.
func MirrorHorizontal(img image.Image) *image.RGBA {
	src := ToRGBA(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		for x := range w {
			copy(out[(w-1-x)*4:(w-x)*4], row[x*4:(x+1)*4])
		}
	}
	return dst
}

// Crop returns the part of gray inside r, clipped to the image bounds.
// The result shares pixels with gray.
func Crop(gray *image.Gray, r image.Rectangle) *image.Gray {
	r = r.Intersect(gray.Bounds())
	return gray.SubImage(r).(*image.Gray)
}

// Resize scales gray to a size x size square with bilinear interpolation.
// A source that already has the target size is copied without resampling so
// that stored thumbnails round-trip exactly.
func Resize(gray *image.Gray, size int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, size, size))
	b := gray.Bounds()
	if b.Dx() == size && b.Dy() == size {
		draw.Draw(dst, dst.Bounds(), gray, b.Min, draw.Src)
		return dst
	}
	draw.BiLinear.Scale(dst, dst.Bounds(), gray, b, draw.Src, nil)
	return dst
}

// Thumbnail crops the face region out of gray and resizes it to the face size.
func Thumbnail(gray *image.Gray, face image.Rectangle, size int) *image.Gray {
	return Resize(Crop(gray, face), size)
}

// Overlay colors.
var (
	Accepted = color.RGBA{G: 255, A: 255}
	Rejected = color.RGBA{R: 255, A: 255}
)
