package gallery

import (
	"image"
	"slices"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Snapshot is the gallery content as of one Reload: parallel slices of
// thumbnails, labels and source files, plus the label -> identity map
// (Identities[label]).
type Snapshot struct {
	Thumbnails []*image.Gray
	Labels     []int
	Files      []string
	Identities []string
}

// Len returns the number of thumbnails.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Thumbnails)
}

// Empty reports whether the snapshot holds no thumbnails.
func (s *Snapshot) Empty() bool {
	return s.Len() == 0
}

// IdentitySummary is one enrolled identity and how many thumbnails it has.
type IdentitySummary struct {
	Identity string `json:"identity"`
	Samples  int    `json:"samples"`
}

// Summary lists enrolled identities in human alphabetical order.
func (s *Snapshot) Summary() []IdentitySummary {
	if s.Empty() {
		return []IdentitySummary{}
	}

	counts := make([]int, len(s.Identities))
	for _, label := range s.Labels {
		counts[label]++
	}

	out := make([]IdentitySummary, len(s.Identities))
	for label, identity := range s.Identities {
		out[label] = IdentitySummary{Identity: identity, Samples: counts[label]}
	}

	c := collate.New(language.Und)
	slices.SortStableFunc(out, func(a, b IdentitySummary) int {
		return c.CompareString(a.Identity, b.Identity)
	})
	return out
}

// LookAlikes returns the enrolled identities that differ from name but fold
// to the same key, such as "Jiri" for "jiří".
func (s *Snapshot) LookAlikes(name string) []string {
	if s == nil {
		return nil
	}
	key := FoldIdentity(name)
	var out []string
	for _, id := range s.Identities {
		if id != name && FoldIdentity(id) == key {
			out = append(out, id)
		}
	}
	return out
}
