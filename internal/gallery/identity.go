package gallery

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidIdentity is returned when a name cannot be stored as a gallery identity.
var ErrInvalidIdentity = errors.New("invalid identity")

// IdentityFromFilename derives the identity a thumbnail belongs to: the part
// of the file name before the first underscore, byte for byte.
// "bob_smith_20240101120000.jpg" belongs to "bob". A name without an
// underscore is used whole, extension included, and a leading underscore
// yields the empty identity.
func IdentityFromFilename(name string) string {
	before, _, _ := strings.Cut(filepath.Base(name), "_")
	return before
}

// NormalizeIdentity trims surrounding space and converts a typed name to NFC.
// Names read back from files are never normalised.
func NormalizeIdentity(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// FoldIdentity reduces name to a key without case or diacritics
// ("Jiří" -> "jiri").
func FoldIdentity(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, _ := transform.String(t, name)
	return strings.ToLower(folded)
}

// ValidateIdentity rejects names that would not survive the filename round
// trip. Underscores are refused because only the text before the first one is
// read back, so "bob_smith" would silently enroll as "bob".
func ValidateIdentity(identity string) error {
	switch {
	case strings.TrimSpace(identity) == "":
		return fmt.Errorf("%w: empty name", ErrInvalidIdentity)
	case !utf8.ValidString(identity):
		return fmt.Errorf("%w: name is not valid UTF-8", ErrInvalidIdentity)
	case strings.Contains(identity, "_"):
		return fmt.Errorf("%w: %q contains an underscore", ErrInvalidIdentity, identity)
	case strings.ContainsAny(identity, `/\`) || identity == "." || identity == "..":
		return fmt.Errorf("%w: %q is not a valid file name", ErrInvalidIdentity, identity)
	}
	for _, r := range identity {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: %q contains control characters", ErrInvalidIdentity, identity)
		}
	}
	return nil
}
