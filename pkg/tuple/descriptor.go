package tuple

import "encoding/binary"

// Slice is one (offset, length) span of an update descriptor. Offsets and
// lengths are positions into the tuple's value payload, not the whole
// on-page record.
type Slice struct {
	Offset uint16
	Length uint16
}

// UpdateDescriptor is the ordered list of byte spans an update touches. It
// determines which bytes a delta carries and is serialized inline with
// every secondary version and WAL update record, matching spec.md §4.1.
type UpdateDescriptor struct {
	Slices []Slice
}

// Size returns the serialized size of the descriptor itself (not the diff
// bytes it describes): a 2-byte count followed by 4 bytes per slice.
func (d UpdateDescriptor) Size() int {
	return 2 + 4*len(d.Slices)
}

// DiffLength returns the total number of payload bytes the descriptor's
// spans cover; this is the size of the forward/XOR diff that accompanies
// the descriptor.
func (d UpdateDescriptor) DiffLength() int {
	n := 0
	for _, s := range d.Slices {
		n += int(s.Length)
	}
	return n
}

// EncodeDescriptor serializes d into a freshly allocated buffer of
// d.Size() bytes.
func EncodeDescriptor(d UpdateDescriptor) []byte {
	buf := make([]byte, d.Size())
	PutDescriptor(buf, d)
	return buf
}

// PutDescriptor writes d into the first d.Size() bytes of buf.
func PutDescriptor(buf []byte, d UpdateDescriptor) {
	binary.LittleEndian.PutUint16(buf, uint16(len(d.Slices)))
	off := 2
	for _, s := range d.Slices {
		binary.LittleEndian.PutUint16(buf[off:], s.Offset)
		binary.LittleEndian.PutUint16(buf[off+2:], s.Length)
		off += 4
	}
}

// DecodeDescriptor parses a descriptor from the front of buf and returns it
// along with the number of bytes consumed.
func DecodeDescriptor(buf []byte) (UpdateDescriptor, int) {
	count := int(binary.LittleEndian.Uint16(buf))
	d := UpdateDescriptor{Slices: make([]Slice, count)}
	off := 2
	for i := 0; i < count; i++ {
		d.Slices[i] = Slice{
			Offset: binary.LittleEndian.Uint16(buf[off:]),
			Length: binary.LittleEndian.Uint16(buf[off+2:]),
		}
		off += 4
	}
	return d, off
}

// GenerateDiff writes, into dst, the bytes of src covered by d's spans,
// concatenated in descriptor order. dst must be at least d.DiffLength()
// bytes. This is the forward diff: a plain copy of the pre-image bytes the
// update is about to overwrite, grounded on BTreeVI::generateDiff.
func GenerateDiff(d UpdateDescriptor, dst, src []byte) {
	o := 0
	for _, s := range d.Slices {
		copy(dst[o:o+int(s.Length)], src[s.Offset:s.Offset+s.Length])
		o += int(s.Length)
	}
}

// GenerateXorDiff overwrites dst (which holds the forward diff bytes
// written by GenerateDiff) with XOR(new, old) computed against src (the
// tuple's now-updated payload), per-span. XOR'ing the result back into the
// post-image recovers the pre-image; this is how the undo engine restores
// state without keeping a second full copy. Grounded on
// BTreeVI::generateXORDiff.
func GenerateXorDiff(d UpdateDescriptor, dst, src []byte) {
	o := 0
	for _, s := range d.Slices {
		for i := 0; i < int(s.Length); i++ {
			dst[o+i] ^= src[int(s.Offset)+i]
		}
		o += int(s.Length)
	}
}

// ApplyDiff applies a forward diff (as produced by GenerateDiff) onto dst,
// overwriting the spans named by d with the corresponding bytes from src.
// Used by the Reconstructor to walk a delta chain.
func ApplyDiff(d UpdateDescriptor, dst, src []byte) {
	o := 0
	for _, s := range d.Slices {
		copy(dst[s.Offset:s.Offset+s.Length], src[o:o+int(s.Length)])
		o += int(s.Length)
	}
}

// ApplyXorDiff XORs an XOR diff (as produced by GenerateXorDiff) into dst,
// recovering the pre-image for the spans named by d. Used by the undo
// engine to reverse a WALUpdateSSIP record.
func ApplyXorDiff(d UpdateDescriptor, dst, src []byte) {
	o := 0
	for _, s := range d.Slices {
		for i := 0; i < int(s.Length); i++ {
			dst[int(s.Offset)+i] ^= src[o+i]
		}
		o += int(s.Length)
	}
}
