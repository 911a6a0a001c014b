package binary

import "fmt"

// MaxSynchsafe is the largest value representable in a 4-byte synchsafe integer (28 bits).
const MaxSynchsafe = 0x0FFFFFFF

// DecodeSynchsafe decodes a 4-byte synchsafe integer (7 bits per byte).
//
// The returned value always has bit 7 of each byte masked off. ok is false
// when the input is not exactly 4 bytes or any byte had bit 7 set, which
// callers report as a warning rather than a hard failure.
func DecodeSynchsafe(b []byte) (uint32, bool) {
	if len(b) != 4 {
		return 0, false
	}
	ok := (b[0]|b[1]|b[2]|b[3])&0x80 == 0
	return uint32(b[0]&0x7F)<<21 |
		uint32(b[1]&0x7F)<<14 |
		uint32(b[2]&0x7F)<<7 |
		uint32(b[3]&0x7F), ok
}

// EncodeSynchsafe encodes v as a 4-byte synchsafe integer.
func EncodeSynchsafe(v uint32) ([4]byte, error) {
	if v > MaxSynchsafe {
		return [4]byte{}, fmt.Errorf("value %d exceeds synchsafe maximum %d", v, MaxSynchsafe)
	}
	return [4]byte{
		byte(v>>21) & 0x7F,
		byte(v>>14) & 0x7F,
		byte(v>>7) & 0x7F,
		byte(v) & 0x7F,
	}, nil
}
