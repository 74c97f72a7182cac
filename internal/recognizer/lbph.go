package recognizer

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/kozaktomas/attendance-kiosk/internal/constants"
)

const (
	lbphGrid = 8   // cells per side of the spatial histogram
	lbphBins = 256 // one bin per 8-bit LBP code
)

// LBPH is a pure-Go local binary pattern histogram matcher: 3x3 LBP codes,
// an 8x8 grid of L1-normalised cell histograms and the chi-square distance
// 2(a-b)^2/(a+b), laid out like OpenCV's LBPH recognizer. Lower is closer.
type LBPH struct {
	hists  [][]float32
	labels []int
	index  *sampleIndex
}

// NewLBPH creates an untrained builtin matcher.
func NewLBPH() *LBPH {
	return &LBPH{}
}

// Train implements Matcher.
func (l *LBPH) Train(samples []*image.Gray, labels []int) error {
	if len(samples) == 0 {
		return errors.New("no training samples")
	}
	if len(samples) != len(labels) {
		return fmt.Errorf("got %d samples but %d labels", len(samples), len(labels))
	}

	hists := make([][]float32, len(samples))
	for i, s := range samples {
		hists[i] = spatialHistogram(s)
	}

	l.hists = hists
	l.labels = append([]int(nil), labels...)
	l.index = nil
	if len(hists) > constants.ExactScanLimit {
		l.index = newSampleIndex(hists)
	}
	return nil
}

// Predict implements Matcher.
func (l *LBPH) Predict(sample *image.Gray) (int, float64, error) {
	if len(l.hists) == 0 {
		return -1, 0, ErrUntrained
	}

	query := spatialHistogram(sample)

	var candidates []int
	if l.index != nil {
		candidates = l.index.search(query, constants.HNSWCandidates)
	}
	if len(candidates) == 0 {
		candidates = make([]int, len(l.hists))
		for i := range candidates {
			candidates[i] = i
		}
	}

	best, bestDist := -1, math.Inf(1)
	for _, i := range candidates {
		if d := chiSquare(l.hists[i], query); d < bestDist {
			best, bestDist = i, d
		}
	}
	return l.labels[best], bestDist, nil
}

// Close implements Matcher.
func (l *LBPH) Close() error {
	l.hists, l.labels, l.index = nil, nil, nil
	return nil
}

// lbpImage computes the 3x3 LBP code of every interior pixel. Neighbours are
// visited clockwise from the top-left; a neighbour >= the centre sets its bit.
func lbpImage(g *image.Gray) (codes []uint8, w, h int) {
	b := g.Bounds()
	w, h = b.Dx()-2, b.Dy()-2
	if w <= 0 || h <= 0 {
		return nil, 0, 0
	}

	offsets := [8]image.Point{{-1, -1}, {0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}}
	codes = make([]uint8, w*h)
	for y := range h {
		for x := range w {
			cx, cy := b.Min.X+x+1, b.Min.Y+y+1
			center := g.GrayAt(cx, cy).Y
			var code uint8
			for bit, o := range offsets {
				if g.GrayAt(cx+o.X, cy+o.Y).Y >= center {
					code |= 1 << (7 - bit)
				}
			}
			codes[y*w+x] = code
		}
	}
	return codes, w, h
}

// spatialHistogram concatenates the normalised LBP histograms of each grid cell.
func spatialHistogram(g *image.Gray) []float32 {
	hist := make([]float32, lbphGrid*lbphGrid*lbphBins)
	codes, w, h := lbpImage(g)
	cellW, cellH := w/lbphGrid, h/lbphGrid
	if cellW == 0 || cellH == 0 {
		return hist
	}

	for gy := range lbphGrid {
		for gx := range lbphGrid {
			cell := hist[(gy*lbphGrid+gx)*lbphBins : (gy*lbphGrid+gx+1)*lbphBins]
			for y := gy * cellH; y < (gy+1)*cellH; y++ {
				for x := gx * cellW; x < (gx+1)*cellW; x++ {
					cell[codes[y*w+x]]++
				}
			}
			total := float32(cellW * cellH)
			for i := range cell {
				cell[i] /= total
			}
		}
	}
	return hist
}

// chiSquare is the symmetric chi-square distance between two histograms.
func chiSquare(a, b []float32) float64 {
	var sum float64
	for i := range a {
		s := float64(a[i]) + float64(b[i])
		if s == 0 {
			continue
		}
		d := float64(a[i]) - float64(b[i])
		sum += 2 * d * d / s
	}
	return sum
}
