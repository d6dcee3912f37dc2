package pagestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPutGetRoundTrip(t *testing.T) {
	p := NewLeafPage(1, nil)
	p.Put([]byte("b"), []byte("2"))
	p.Put([]byte("a"), []byte("1"))
	p.Put([]byte("c"), []byte("3"))

	v, ok := p.Get([]byte("a"))
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), v)

	assert.Equal(t, 3, p.Len())
	keys := []string{}
	for _, s := range p.Slots() {
		keys = append(keys, string(s.Key))
	}
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestPutOverwritesExisting(t *testing.T) {
	p := NewLeafPage(1, nil)
	p.Put([]byte("a"), []byte("1"))
	p.Put([]byte("a"), []byte("2"))
	assert.Equal(t, 1, p.Len())
	v, _ := p.Get([]byte("a"))
	assert.Equal(t, []byte("2"), v)
}

func TestGetMissingKey(t *testing.T) {
	p := NewLeafPage(1, nil)
	_, ok := p.Get([]byte("missing"))
	assert.False(t, ok)
}

func TestRemove(t *testing.T) {
	p := NewLeafPage(1, nil)
	p.Put([]byte("a"), []byte("1"))
	assert.True(t, p.Remove([]byte("a")))
	assert.False(t, p.Remove([]byte("a")))
	assert.True(t, p.Empty())
}

func TestHasSpaceForRespectsMaxPageBytes(t *testing.T) {
	p := NewLeafPage(1, nil)
	assert.True(t, p.HasSpaceFor(MaxPageBytes))
	assert.False(t, p.HasSpaceFor(MaxPageBytes+1))
}

func TestSplitDividesSlotsAndSetsStartKey(t *testing.T) {
	p := NewLeafPage(1, nil)
	for _, k := range []string{"a", "b", "c", "d"} {
		p.Put([]byte(k), []byte(k))
	}
	right := p.Split(2)

	assert.Equal(t, 2, p.Len())
	assert.Equal(t, 2, right.Len())
	assert.Equal(t, []byte("c"), right.StartKey)

	_, okLeft := p.Get([]byte("c"))
	assert.False(t, okLeft)
	_, okRight := right.Get([]byte("c"))
	assert.True(t, okRight)
}

func TestSetValueRequiresExistingKey(t *testing.T) {
	p := NewLeafPage(1, nil)
	assert.False(t, p.SetValue([]byte("a"), []byte("1")))
	p.Put([]byte("a"), []byte("1"))
	assert.True(t, p.SetValue([]byte("a"), []byte("2")))
	v, _ := p.Get([]byte("a"))
	assert.Equal(t, []byte("2"), v)
}
