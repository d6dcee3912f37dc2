package tuple

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescriptorRoundTrip(t *testing.T) {
	d := UpdateDescriptor{Slices: []Slice{{Offset: 1, Length: 2}, {Offset: 5, Length: 1}}}
	raw := EncodeDescriptor(d)
	assert.Equal(t, d.Size(), len(raw))

	got, n := DecodeDescriptor(raw)
	assert.Equal(t, len(raw), n)
	assert.Equal(t, d, got)
	assert.Equal(t, 3, d.DiffLength())
}

func TestEmptyDescriptorDiffLengthZero(t *testing.T) {
	d := UpdateDescriptor{}
	assert.Equal(t, 0, d.DiffLength())
	assert.Equal(t, 2, d.Size())
	raw := EncodeDescriptor(d)
	got, n := DecodeDescriptor(raw)
	assert.Equal(t, 2, n)
	assert.Empty(t, got.Slices)
}

func TestGenerateAndApplyDiffRoundTrip(t *testing.T) {
	old := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	updated := []byte{0x01, 0xFF, 0xFF, 0x04, 0xEE}
	d := UpdateDescriptor{Slices: []Slice{{Offset: 1, Length: 2}, {Offset: 4, Length: 1}}}

	diff := make([]byte, d.DiffLength())
	GenerateDiff(d, diff, old)
	assert.Equal(t, []byte{0x02, 0x03, 0x05}, diff)

	scratch := append([]byte(nil), updated...)
	ApplyDiff(d, scratch, diff)
	assert.Equal(t, old, scratch)
}

func TestXorDiffRecoversPreImage(t *testing.T) {
	old := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	d := UpdateDescriptor{Slices: []Slice{{Offset: 1, Length: 2}, {Offset: 4, Length: 1}}}

	diff := make([]byte, d.DiffLength())
	GenerateDiff(d, diff, old)

	// Apply the update in place.
	updated := append([]byte(nil), old...)
	updated[1], updated[2], updated[4] = 0xFF, 0xFF, 0xEE

	// Overwrite the forward diff bytes with XOR(new, old).
	GenerateXorDiff(d, diff, updated)

	// XOR'ing into the post-image recovers the pre-image.
	restored := append([]byte(nil), updated...)
	ApplyXorDiff(d, restored, diff)
	assert.Equal(t, old, restored)

	// Unmodified ranges are bitwise unchanged.
	assert.Equal(t, old[0], restored[0])
	assert.Equal(t, old[3], restored[3])
}

func TestZeroLengthDiffIsValid(t *testing.T) {
	d := UpdateDescriptor{Slices: []Slice{{Offset: 0, Length: 0}}}
	diff := make([]byte, d.DiffLength())
	GenerateDiff(d, diff, []byte{1, 2, 3})
	assert.Empty(t, diff)
}
