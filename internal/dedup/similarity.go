package dedup

import (
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/transform"
)

// invalidDropper is a transform.Transformer that removes byte sequences that
// are not valid UTF-8. A literal U+FFFD in the input is valid and kept.
type invalidDropper struct{ transform.NopResetter }

func (invalidDropper) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size == 1 {
			if !atEOF && !utf8.FullRune(src[nSrc:]) {
				return nDst, nSrc, transform.ErrShortSrc
			}
			nSrc++
			continue
		}
		if nDst+size > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += copy(dst[nDst:], src[nSrc:nSrc+size])
		nSrc += size
	}
	return nDst, nSrc, nil
}

// decode converts a body to text, dropping undecodable bytes.
func decode(body []byte) string {
	if utf8.Valid(body) {
		return string(body)
	}
	text, _, err := transform.Bytes(invalidDropper{}, body)
	if err != nil {
		return string(body)
	}
	return string(text)
}

// chars splits text into one element per code point, which is the unit the
// matcher compares.
func chars(text string) []string {
	out := make([]string, 0, len(text))
	for _, r := range text {
		out = append(out, string(r))
	}
	return out
}

// Similarity returns the longest-matching-blocks ratio of a and b in [0, 1]:
// twice the number of matched characters divided by the total length.
// Similarity(a, a) is 1 and two empty strings are fully similar.
//
// For texts of 200 characters or more the matcher ignores characters that make
// up more than 1% of b when searching for blocks, so on long inputs the ratio
// can differ slightly depending on argument order.
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(chars(a), chars(b)).Ratio()
}
