// Package hash implements the opaque content address used throughout
// graphdoc to identify operations, documents and schemas.
//
// A Hash is the hex encoding of a 34-byte YASMF multihash: one varint byte
// for the hash function code, one varint byte for the digest length, and
// the digest itself. For the SHA2-256 function used everywhere in this
// module that's 1 + 1 + 32 = 34 bytes, or 68 hex characters.
package hash

import (
	"encoding/hex"
	"errors"
	"fmt"

	mh "github.com/multiformats/go-multihash"
)

// Size is the fixed encoded length of a Hash in bytes (34) and HexSize is
// its length as a hex string (68).
const (
	Size    = 34
	HexSize = Size * 2
)

// ErrInvalidHash is returned when a string or byte slice does not decode to
// a well-formed 34-byte multihash.
var ErrInvalidHash = errors.New("invalid hash")

// Hash is an immutable, opaque content address. The zero value is not a
// valid Hash; construct one with Parse, FromBytes or Of.
type Hash struct {
	hex string
}

// Parse validates s as a 68-character hex multihash and returns the
// corresponding Hash. Upper- and lowercase hex digits are both accepted; the
// returned Hash always holds the lowercase form.
func Parse(s string) (Hash, error) {
	if len(s) != HexSize {
		return Hash{}, fmt.Errorf("%w: expected %d hex characters, got %d", ErrInvalidHash, HexSize, len(s))
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	if err := validateMultihash(raw); err != nil {
		return Hash{}, err
	}
	// Canonicalize to lowercase so two Hash values with identical content
	// always compare byte-for-byte equal, regardless of how they arrived.
	return Hash{hex: hex.EncodeToString(raw)}, nil
}

// FromBytes validates and wraps a 34-byte encoded multihash.
func FromBytes(raw []byte) (Hash, error) {
	if err := validateMultihash(raw); err != nil {
		return Hash{}, err
	}
	return Hash{hex: hex.EncodeToString(raw)}, nil
}

func validateMultihash(raw []byte) error {
	if len(raw) != Size {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidHash, Size, len(raw))
	}
	decoded, err := mh.Decode(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	if decoded.Length != len(decoded.Digest) {
		return fmt.Errorf("%w: multihash length field does not match digest", ErrInvalidHash)
	}
	return nil
}

// String returns the 68-character lowercase hex representation.
func (h Hash) String() string {
	return h.hex
}

// IsZero reports whether h is the unconstructed zero value.
func (h Hash) IsZero() bool {
	return h.hex == ""
}

// Bytes returns the raw 34-byte encoded multihash.
func (h Hash) Bytes() []byte {
	raw, _ := hex.DecodeString(h.hex)
	return raw
}

// Equal reports byte-lexicographic equality, i.e. equality of the hex
// representation.
func (h Hash) Equal(other Hash) bool {
	return h.hex == other.hex
}

// Less reports whether h sorts before other under byte-lexicographic
// (hex-string) order. This is the same order as the graph's topological-sort
// tie-breaker (spec §4.3) and the order Sorted produces.
func (h Hash) Less(other Hash) bool {
	return h.hex < other.hex
}

// Compare returns -1, 0 or 1 following the same byte-lexicographic order as
// Less, for use with sort.Slice / slices.SortFunc call sites that want a
// three-way comparator.
func (h Hash) Compare(other Hash) int {
	switch {
	case h.hex < other.hex:
		return -1
	case h.hex > other.hex:
		return 1
	default:
		return 0
	}
}

// MarshalText implements encoding.TextMarshaler so a Hash can be used
// directly as a CBOR/JSON text string without an intermediate type.
func (h Hash) MarshalText() ([]byte, error) {
	if h.IsZero() {
		return nil, fmt.Errorf("%w: cannot marshal zero-value hash", ErrInvalidHash)
	}
	return []byte(h.hex), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Sorted returns a sorted copy of hashes in the byte-lexicographic tie-break
// order of spec §4.3's deterministic topological sort; the input slice is
// left unchanged.
func Sorted(hashes []Hash) []Hash {
	out := make([]Hash, len(hashes))
	copy(out, hashes)
	insertionSort(out)
	return out
}

// insertionSort sorts in place by Hash.Less without importing package sort;
// it is quadratic, which is cheap for the small slices (graph tips, cache-key
// id lists) passed to Sorted.
func insertionSort(hashes []Hash) {
	for i := 1; i < len(hashes); i++ {
		for j := i; j > 0 && hashes[j].Less(hashes[j-1]); j-- {
			hashes[j], hashes[j-1] = hashes[j-1], hashes[j]
		}
	}
}
