package ringbuf

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndConsumeRoundTrip(t *testing.T) {
	b := New()
	b.Append([]byte("hello "))
	b.Append([]byte("world"))
	assert.Equal(t, "hello world", string(b.Readable()))

	b.Consume(6)
	assert.Equal(t, "world", string(b.Readable()))
}

func TestReadFromGrowsPastInitialCapacity(t *testing.T) {
	b := New()
	large := bytes.Repeat([]byte("x"), 3*initialCapacity)
	r := bytes.NewReader(large)

	total := 0
	for total < len(large) {
		n, err := b.ReadFrom(r)
		require.NoError(t, err)
		total += n
	}
	assert.Equal(t, len(large), b.Len())
	assert.Equal(t, len(large), total)
	b.Consume(b.Len())
	assert.Equal(t, 0, b.Len())
}

func TestNewBoundedRejectsOversizeGrowth(t *testing.T) {
	// maxCapacity set below the default 8KiB read chunk: the very first
	// ReadFrom must already refuse rather than silently using space from
	// the buffer's initial allocation that exceeds the configured cap.
	b := NewBounded(4096)
	huge := bytes.Repeat([]byte("y"), 1<<20)
	r := bytes.NewReader(huge)

	_, err := b.ReadFrom(r)
	assert.True(t, errors.Is(err, ErrOversize))
	assert.Equal(t, 0, b.Len())
}

func TestNewBoundedAllowsGrowthUpToCapacity(t *testing.T) {
	b := NewBounded(2 * initialCapacity)
	data := bytes.Repeat([]byte("z"), 3*initialCapacity)
	r := bytes.NewReader(data)

	// Deliberately never Consume between reads: an attacker streaming an
	// oversized declared body wouldn't let the parser free any of it
	// either, since a Complete request never arrives.
	n, err := b.ReadFrom(r)
	require.NoError(t, err)
	assert.Equal(t, initialCapacity, n)

	n, err = b.ReadFrom(r)
	require.NoError(t, err)
	assert.Equal(t, initialCapacity, n)

	_, err = b.ReadFrom(r)
	assert.True(t, errors.Is(err, ErrOversize))
}

func TestAppendOnUnboundedBufferNeverReturnsOversize(t *testing.T) {
	b := New()
	b.Append(bytes.Repeat([]byte("z"), 5*softCap))
	assert.Equal(t, 5*softCap, b.Len())
}
