package dedup

import "fmt"

// Field widths of a packed Key.
const (
	refBits    = 9
	posBits    = 31
	lengthBits = 24

	posShift = lengthBits
	refShift = posBits + lengthBits

	refMask    = 1<<refBits - 1
	posMask    = 1<<posBits - 1
	lengthMask = 1<<lengthBits - 1
)

// Key packs a reference id, a start coordinate and a length into 64 bits:
// ref<<55 | start<<24 | length.  Values wider than their field are truncated
// to the field's low bits, so refs >= 512, starts >= 2^31 and lengths >= 2^24
// alias other keys.  Negative values wrap the same way.
type Key uint64

// Pack returns the Key for the given triple.
func Pack(ref, start, length int) Key {
	return Key((uint64(ref)&refMask)<<refShift |
		(uint64(start)&posMask)<<posShift |
		uint64(length)&lengthMask)
}

// Unpack returns the fields of k.
func (k Key) Unpack() (ref, start, length int) {
	return int(uint64(k) >> refShift & refMask),
		int(uint64(k) >> posShift & posMask),
		int(uint64(k) & lengthMask)
}

func (k Key) String() string {
	ref, start, length := k.Unpack()
	return fmt.Sprintf("(%d,%d,%d)", ref, start, length)
}
