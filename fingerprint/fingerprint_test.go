package fingerprint

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceSelfIsZero(t *testing.T) {
	fp := Fingerprint{0xde, 0xad, 0xbe, 0xef}
	d, err := Distance(fp, fp)
	require.NoError(t, err)
	assert.Equal(t, 0, d)
}

func TestDistanceKnownValues(t *testing.T) {
	cases := []struct {
		a, b Fingerprint
		want int
	}{
		{Fingerprint{0x00}, Fingerprint{0x00}, 0},
		{Fingerprint{0x00}, Fingerprint{0x01}, 1},
		{Fingerprint{0x00}, Fingerprint{0xff}, 8},
		{Fingerprint{0x01}, Fingerprint{0xff}, 7},
		{Fingerprint{0xf0, 0x0f}, Fingerprint{0x0f, 0xf0}, 16},
	}
	for _, tc := range cases {
		d, err := Distance(tc.a, tc.b)
		require.NoError(t, err)
		assert.Equal(t, tc.want, d, "distance(%s, %s)", tc.a, tc.b)

		// Symmetry
		d2, err := Distance(tc.b, tc.a)
		require.NoError(t, err)
		assert.Equal(t, d, d2)
	}
}

func TestDistanceUnequalLength(t *testing.T) {
	_, err := Distance(Fingerprint{0x00}, Fingerprint{0x00, 0x00})
	assert.Error(t, err)
}

func TestTriangleInequality(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		a, b, c := randomFingerprint(rng, 8), randomFingerprint(rng, 8), randomFingerprint(rng, 8)
		dab, _ := Distance(a, b)
		dbc, _ := Distance(b, c)
		dac, _ := Distance(a, c)
		assert.LessOrEqual(t, dac, dab+dbc)
	}
}

func TestHexRoundTrip(t *testing.T) {
	fp := Fingerprint{0x00, 0xab, 0xff, 0x3c}
	decoded, err := FromHex(fp.Hex())
	require.NoError(t, err)
	assert.Equal(t, fp, decoded)
	assert.Equal(t, "00abff3c", fp.Hex())
}

func TestFromHexInvalid(t *testing.T) {
	_, err := FromHex("not hex")
	assert.Error(t, err)
}

func TestBitOrder(t *testing.T) {
	// 0x80 = 10000000: bit 0 is the MSB of the first byte
	fp := Fingerprint{0x80, 0x01}
	assert.Equal(t, 1, fp.Bit(0))
	assert.Equal(t, 0, fp.Bit(1))
	assert.Equal(t, 0, fp.Bit(14))
	assert.Equal(t, 1, fp.Bit(15))
}

func randomFingerprint(rng *rand.Rand, nbytes int) Fingerprint {
	fp := make(Fingerprint, nbytes)
	rng.Read(fp)
	return fp
}
