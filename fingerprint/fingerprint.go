package fingerprint

import (
	"encoding/hex"
	"fmt"
	"math/bits"
)

// Fingerprint is a fixed-length bit-vector summarizing an image's
// coarse visual structure. Fingerprints are compared only by Hamming
// distance, never by equality; two visually similar images are expected
// to yield fingerprints a small distance apart.
type Fingerprint []byte

// BitLen returns the fingerprint length in bits
func (f Fingerprint) BitLen() int {
	return len(f) * 8
}

// Bit returns bit i (0 = most significant bit of the first byte)
func (f Fingerprint) Bit(i int) int {
	return int(f[i/8]>>(7-uint(i%8))) & 1
}

// Hex returns the fixed-width hexadecimal encoding used for persistence
func (f Fingerprint) Hex() string {
	return hex.EncodeToString(f)
}

// String implements fmt.Stringer
func (f Fingerprint) String() string {
	return f.Hex()
}

// FromHex decodes a fingerprint from its hexadecimal encoding
func FromHex(s string) (Fingerprint, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid fingerprint encoding %q: %v", s, err)
	}
	return Fingerprint(b), nil
}

// Distance returns the Hamming distance between two fingerprints: the
// number of bit positions at which they differ. Undefined for
// fingerprints of unequal length.
func Distance(a, b Fingerprint) (int, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("undefined for fingerprints of unequal length (%d vs %d bits)",
			a.BitLen(), b.BitLen())
	}
	return hamming(a, b), nil
}

// hamming computes the Hamming distance assuming equal lengths
func hamming(a, b Fingerprint) int {
	d := 0
	for i := range a {
		d += bits.OnesCount8(a[i] ^ b[i])
	}
	return d
}

// bitWriter assembles a fingerprint from a stream of bits, MSB-first
// within each byte. All extractors emit bits in a fixed row-major order
// through this writer so that the bit layout is stable across runs.
type bitWriter struct {
	buf  []byte
	cur  byte
	nbit uint
}

func newBitWriter(bitLen int) *bitWriter {
	return &bitWriter{buf: make([]byte, 0, (bitLen+7)/8)}
}

func (w *bitWriter) writeBit(set bool) {
	w.cur <<= 1
	if set {
		w.cur |= 1
	}
	w.nbit++
	if w.nbit == 8 {
		w.buf = append(w.buf, w.cur)
		w.cur = 0
		w.nbit = 0
	}
}

func (w *bitWriter) fingerprint() Fingerprint {
	if w.nbit > 0 {
		// Pad the final byte with zeros on the right
		w.buf = append(w.buf, w.cur<<(8-w.nbit))
		w.cur = 0
		w.nbit = 0
	}
	return Fingerprint(w.buf)
}
