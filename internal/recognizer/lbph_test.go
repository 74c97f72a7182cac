package recognizer

import (
	"errors"
	"image"
	"image/color"
	"math/rand/v2"
	"testing"
)

func noise(size int, seed uint64) *image.Gray {
	rng := rand.New(rand.NewPCG(seed, seed*7+1))
	g := image.NewGray(image.Rect(0, 0, size, size))
	for i := range g.Pix {
		g.Pix[i] = uint8(10 + rng.IntN(230))
	}
	return g
}

func stripes(size int) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			v := uint8(40)
			if (y/3)%2 == 0 {
				v = 200
			}
			g.SetGray(x, y, color.Gray{Y: v + uint8(x%3)})
		}
	}
	return g
}

func brighten(g *image.Gray, delta uint8) *image.Gray {
	out := image.NewGray(g.Bounds())
	for i, v := range g.Pix {
		out.Pix[i] = v + delta
	}
	return out
}

func TestLBPH_IdenticalSampleHasZeroDistance(t *testing.T) {
	l := NewLBPH()
	samples := []*image.Gray{noise(64, 1), noise(64, 2)}
	if err := l.Train(samples, []int{0, 1}); err != nil {
		t.Fatal(err)
	}

	label, distance, err := l.Predict(noise(64, 2))
	if err != nil {
		t.Fatal(err)
	}
	if label != 1 {
		t.Errorf("expected label 1, got %d", label)
	}
	if distance != 0 {
		t.Errorf("expected distance 0, got %v", distance)
	}
}

func TestLBPH_BrightnessShiftInvariant(t *testing.T) {
	l := NewLBPH()
	face := noise(64, 3)
	if err := l.Train([]*image.Gray{face}, []int{0}); err != nil {
		t.Fatal(err)
	}

	// noise stays within [10, 240) so +5 never wraps
	_, distance, err := l.Predict(brighten(face, 5))
	if err != nil {
		t.Fatal(err)
	}
	if distance != 0 {
		t.Errorf("expected LBP codes to ignore a uniform brightness shift, got distance %v", distance)
	}
}

func TestLBPH_DifferentTextureIsFar(t *testing.T) {
	l := NewLBPH()
	if err := l.Train([]*image.Gray{stripes(64)}, []int{0}); err != nil {
		t.Fatal(err)
	}

	_, distance, err := l.Predict(noise(64, 4))
	if err != nil {
		t.Fatal(err)
	}
	if distance < 60 {
		t.Errorf("expected a different texture to be rejected by the default threshold, got %v", distance)
	}
}

func TestLBPH_UniformImageIsFarFromTexture(t *testing.T) {
	flat := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range flat.Pix {
		flat.Pix[i] = 128
	}

	l := NewLBPH()
	if err := l.Train([]*image.Gray{noise(64, 5)}, []int{0}); err != nil {
		t.Fatal(err)
	}
	_, distance, err := l.Predict(flat)
	if err != nil {
		t.Fatal(err)
	}
	if distance < 60 {
		t.Errorf("expected flat image to be far from noise, got %v", distance)
	}
}

func TestLBPH_TrainValidation(t *testing.T) {
	l := NewLBPH()

	if err := l.Train(nil, nil); err == nil {
		t.Error("expected error for empty training set")
	}
	if err := l.Train([]*image.Gray{noise(16, 1)}, []int{0, 1}); err == nil {
		t.Error("expected error for mismatched labels")
	}
}

func TestLBPH_PredictUntrained(t *testing.T) {
	_, _, err := NewLBPH().Predict(noise(16, 1))
	if !errors.Is(err, ErrUntrained) {
		t.Errorf("expected ErrUntrained, got %v", err)
	}
}

func TestLBPH_TinyImage(t *testing.T) {
	l := NewLBPH()
	if err := l.Train([]*image.Gray{noise(4, 1)}, []int{0}); err != nil {
		t.Fatal(err)
	}
	// Too small for the grid: empty histograms, but no panic
	if _, _, err := l.Predict(noise(4, 1)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLBPH_LargeGalleryUsesIndex(t *testing.T) {
	var samples []*image.Gray
	var labels []int
	for i := range 80 {
		samples = append(samples, noise(32, uint64(100+i)))
		labels = append(labels, i)
	}
	samples = append(samples, stripes(32))
	labels = append(labels, 80)

	l := NewLBPH()
	if err := l.Train(samples, labels); err != nil {
		t.Fatal(err)
	}
	if l.index == nil {
		t.Fatal("expected HNSW index for a gallery above the exact scan limit")
	}

	label, distance, err := l.Predict(stripes(32))
	if err != nil {
		t.Fatal(err)
	}
	if label != 80 || distance != 0 {
		t.Errorf("expected label 80 at distance 0, got %d at %v", label, distance)
	}
}

func TestChiSquare(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{"identical", []float32{0.5, 0.5}, []float32{0.5, 0.5}, 0},
		{"disjoint", []float32{1, 0}, []float32{0, 1}, 4},
		{"partial", []float32{0.75, 0.25}, []float32{0.25, 0.75}, 1},
		{"both empty", []float32{0, 0}, []float32{0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := chiSquare(tt.a, tt.b); got != tt.expected {
				t.Errorf("chiSquare = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLBPImage_Codes(t *testing.T) {
	// Centre 100 with a brighter right column: only the three right-hand
	// neighbours (top-right, right, bottom-right) set their bits.
	g := image.NewGray(image.Rect(0, 0, 3, 3))
	for i := range g.Pix {
		g.Pix[i] = 50
	}
	g.SetGray(1, 1, color.Gray{Y: 100})
	for y := range 3 {
		g.SetGray(2, y, color.Gray{Y: 200})
	}

	codes, w, h := lbpImage(g)
	if w != 1 || h != 1 {
		t.Fatalf("expected 1x1 code image, got %dx%d", w, h)
	}
	want := uint8(0b00111000)
	if codes[0] != want {
		t.Errorf("expected code %08b, got %08b", want, codes[0])
	}
}
