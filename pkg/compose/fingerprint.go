package compose

import (
	"encoding/binary"
	"encoding/hex"
	"strconv"

	"github.com/zeebo/blake3"

	"github.com/matzehuels/tilesmith/pkg/recipe"
)

// Fingerprint identifies a composed document. It depends only on the
// background and the ordered (layer id, tint, alpha) tuples of a recipe,
// never on the recipe's name.
type Fingerprint [32]byte

// String returns the fingerprint in hex.
func (f Fingerprint) String() string { return hex.EncodeToString(f[:]) }

// Short returns the first 12 hex digits, for log output.
func (f Fingerprint) Short() string { return f.String()[:12] }

// FingerprintOf computes the fingerprint of a resolved recipe.
func FingerprintOf(res *recipe.Resolved) Fingerprint {
	h := blake3.New()
	write := func(s string) {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(s)))
		h.Write(n[:])
		h.Write([]byte(s))
	}

	bg := "-"
	if res.Recipe.Background != nil {
		bg = res.Recipe.Background.Hex()
	}
	write(bg)
	for _, l := range res.Layers {
		write(l.Layer.ID)
		tint := "-"
		if l.Tint != nil {
			tint = l.Tint.Hex()
		}
		write(tint)
		write(strconv.FormatFloat(l.Alpha, 'g', -1, 64))
	}

	var fp Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp
}

// contentKey extends the fingerprint with the digests of the layer sources.
// It keys the persistent store, which outlives a single run and therefore
// must notice edited layers.
func contentKey(fp Fingerprint, res *recipe.Resolved) string {
	h := blake3.New()
	h.Write(fp[:])
	for _, l := range res.Layers {
		h.Write([]byte(l.Layer.Digest))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
