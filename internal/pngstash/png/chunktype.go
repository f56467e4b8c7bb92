package png

import "fmt"

// ChunkType is a four byte chunk type code. Each byte must be an ASCII
// letter, and bit 5 (0x20) of each byte carries a property flag: the
// byte is uppercase when the bit is clear and lowercase when it is set.
type ChunkType [4]byte

// Well-known chunk types.
var (
	TypeIHDR = ChunkType{'I', 'H', 'D', 'R'}
	TypeIDAT = ChunkType{'I', 'D', 'A', 'T'}
	TypeIEND = ChunkType{'I', 'E', 'N', 'D'}
	TypeText = ChunkType{'t', 'E', 'X', 't'}
)

// ParseChunkType parses a four character type code
func ParseChunkType(s string) (ChunkType, error) {
	var t ChunkType
	if len(s) != 4 {
		return t, fmt.Errorf("%w: %q is not four bytes", ErrInvalidChunkType, s)
	}
	for i := 0; i < 4; i++ {
		if !isTypeByte(s[i]) {
			return t, fmt.Errorf("%w: %q contains a non-letter byte", ErrInvalidChunkType, s)
		}
		t[i] = s[i]
	}
	return t, nil
}

// isTypeByte reports whether b is an ASCII letter
func isTypeByte(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// String returns the type code as a string
func (t ChunkType) String() string {
	return string(t[:])
}

// IsCritical reports whether the chunk is required to display the image.
// The property lives in bit 5 of the first byte: 0 means critical.
func (t ChunkType) IsCritical() bool {
	return t[0]&0x20 == 0
}

// IsPublic reports whether the type code belongs to the public registry.
// The property lives in bit 5 of the second byte: 0 means public.
func (t ChunkType) IsPublic() bool {
	return t[1]&0x20 == 0
}

// IsReservedBitValid reports whether bit 5 of the third byte is clear.
// The bit is reserved and must be 0 in a conforming type code.
func (t ChunkType) IsReservedBitValid() bool {
	return t[2]&0x20 == 0
}

// IsSafeToCopy reports whether an editor that does not recognize the
// chunk may carry it over. The property lives in bit 5 of the fourth
// byte: 1 means safe to copy.
func (t ChunkType) IsSafeToCopy() bool {
	return t[3]&0x20 != 0
}

// IsValid reports whether every byte is an ASCII letter and the
// reserved bit is clear
func (t ChunkType) IsValid() bool {
	for _, b := range t {
		if !isTypeByte(b) {
			return false
		}
	}
	return t.IsReservedBitValid()
}
