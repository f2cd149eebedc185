package gxpacket

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_Hex(t *testing.T) {
	f := newFrame([]byte{0x01, 0xab, 0xCD, 0x00})
	assert.Equal(t, "01ABCD00", f.Hex())
	assert.Equal(t, f.Hex(), f.String())
	assert.Equal(t, 4, f.Len())
	assert.Equal(t, "", newFrame(nil).Hex())
}

func TestFrame_BytesIsCopy(t *testing.T) {
	f := newFrame([]byte{1, 2, 3})
	b := f.Bytes()
	b[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, f.Bytes())
	assert.Equal(t, "010203", f.Hex())
}

func TestFrame_HexRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 100; i++ {
		data := make([]byte, r.Intn(300))
		r.Read(data)
		f := newFrame(append([]byte(nil), data...))
		assert.Len(t, f.Hex(), 2*len(data))
		decoded, err := ParseHex(f.Hex())
		require.NoError(t, err)
		assert.Equal(t, len(data), len(decoded))
		assert.Equal(t, f.Bytes(), decoded)
	}
}

func TestParseHex_Invalid(t *testing.T) {
	_, err := ParseHex("ABC")
	assert.Error(t, err)
	_, err = ParseHex("ZZ")
	assert.Error(t, err)
}
