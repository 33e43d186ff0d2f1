// Package fnvhash implements the 32-bit FNV-1a variant used by fastText-style
// toolkits to key words and character n-grams.
package fnvhash

const (
	// OffsetBasis is the initial accumulator and the hash of the empty string.
	OffsetBasis uint32 = 2166136261
	// Prime is the FNV 32-bit multiplier.
	Prime uint32 = 16777619
)

// Beginning- and end-of-word markers wrapped around a word before its n-grams are taken.
const (
	BOW = "<"
	EOW = ">"
)

// Hash returns the FNV-1a hash of s, folding in one code point per step.
// Non-ASCII characters contribute their code point value rather than their
// UTF-8 bytes, so "é" hashes differently from the byte-wise FNV-1a of its encoding.
// Externally trained models depend on this, do not change it to bytes.
func Hash(s string) uint32 {
	h := OffsetBasis
	for _, c := range s {
		h ^= uint32(c)
		h *= Prime
	}
	return h
}
