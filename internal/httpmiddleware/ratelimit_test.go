package httpmiddleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowWithinCapacity(t *testing.T) {
	l := NewSimpleTokenBucket(3, 60)

	assert.True(t, l.allow("1.2.3.4"))
	assert.True(t, l.allow("1.2.3.4"))
	assert.True(t, l.allow("1.2.3.4"))
	assert.False(t, l.allow("1.2.3.4"), "fourth call exceeds capacity")
}

func TestAllowIsPerKey(t *testing.T) {
	l := NewSimpleTokenBucket(1, 60)

	assert.True(t, l.allow("1.2.3.4"))
	assert.False(t, l.allow("1.2.3.4"))
	assert.True(t, l.allow("5.6.7.8"), "a different IP has its own bucket")
}

func TestCapacityDefaultsToRate(t *testing.T) {
	l := NewSimpleTokenBucket(0, 2)

	assert.True(t, l.allow("a"))
	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))
}
