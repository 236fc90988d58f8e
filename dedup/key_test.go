package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPackRoundTrip(t *testing.T) {
	for _, test := range []struct {
		ref, start, length int
	}{
		{0, 0, 0},
		{1, 100, 10},
		{511, 1<<31 - 1, 1<<24 - 1},
		{23, 248956422, 151},
	} {
		k := Pack(test.ref, test.start, test.length)
		ref, start, length := k.Unpack()
		assert.Equal(t, test.ref, ref, "%v", test)
		assert.Equal(t, test.start, start, "%v", test)
		assert.Equal(t, test.length, length, "%v", test)
	}
}

func TestPackWraps(t *testing.T) {
	assert.Equal(t, Pack(0, 5, 7), Pack(512, 5, 7))
	assert.Equal(t, Pack(3, 0, 7), Pack(3, 1<<31, 7))
	assert.Equal(t, Pack(3, 5, 1), Pack(3, 5, 1<<24+1))

	ref, start, length := Pack(-1, -1, -1).Unpack()
	assert.Equal(t, 511, ref)
	assert.Equal(t, 1<<31-1, start)
	assert.Equal(t, 1<<24-1, length)

	// Fields never bleed into each other.
	assert.Equal(t, Key(1)<<55, Pack(1, 0, 0))
	assert.Equal(t, Key(1)<<24, Pack(0, 1, 0))
	assert.Equal(t, Key(1), Pack(0, 0, 1))
	assert.Equal(t, "(1,100,10)", Pack(1, 100, 10).String())
}
