package recognizer

import (
	"github.com/coder/hnsw"

	"github.com/kozaktomas/attendance-kiosk/internal/constants"
)

// sampleIndex is an HNSW graph over training histograms, keyed by sample position.
// It narrows the candidates for large galleries; the final distance is always
// computed exactly by the caller.
type sampleIndex struct {
	graph *hnsw.Graph[int]
}

func newSampleIndex(hists [][]float32) *sampleIndex {
	g := hnsw.NewGraph[int]()
	g.M = constants.HNSWMaxNeighbors
	g.EfSearch = constants.HNSWEfSearch
	g.Distance = func(a, b []float32) float32 {
		return float32(chiSquare(a, b))
	}

	for i, h := range hists {
		g.Add(hnsw.MakeNode(i, h))
	}
	return &sampleIndex{graph: g}
}

// search returns the positions of the k samples nearest to query.
func (x *sampleIndex) search(query []float32, k int) []int {
	if x == nil || x.graph.Len() == 0 {
		return nil
	}
	neighbors := x.graph.Search(query, k)
	out := make([]int, len(neighbors))
	for i, n := range neighbors {
		out[i] = n.Key
	}
	return out
}
