package imaging

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// BoxThickness matches the 2px rectangles drawn around detected faces.
const BoxThickness = 2

// DrawBox draws an unfilled rectangle of the given thickness onto canvas.
func DrawBox(canvas draw.Image, r image.Rectangle, c color.Color, thickness int) {
	r = r.Intersect(canvas.Bounds())
	if r.Empty() {
		return
	}
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness),
		image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y),
		image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(canvas, e.Intersect(r), src, image.Point{}, draw.Src)
	}
}

// DrawLabel writes text with its baseline at pt. Labels above the top edge of
// the canvas are pushed down so they stay readable.
func DrawLabel(canvas draw.Image, text string, pt image.Point, c color.Color) {
	face := basicfont.Face7x13
	if minY := canvas.Bounds().Min.Y + face.Ascent; pt.Y < minY {
		pt.Y = minY
	}
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(pt.X, pt.Y),
	}
	d.DrawString(text)
}

// LabelOrigin is where a face's identity label goes: 10px above its box.
func LabelOrigin(face image.Rectangle) image.Point {
	return image.Pt(face.Min.X, face.Min.Y-10)
}
