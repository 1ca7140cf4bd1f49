// Package ringbuf implements the growable byte buffer used for both the
// read and write side of every connection. It is the one place string vs.
// byte concerns meet: everything here is byte-exact, per spec §9; text
// interpretation of header ranges happens one layer up in internal/httpmsg.
package ringbuf

import (
	"errors"
	"io"
)

const (
	initialCapacity = 8 * 1024
	// softCap is the threshold past which growth switches from doubling to
	// adding the requested free space per step; implementation-defined per
	// spec §5.
	softCap = 1 << 20
)

// ErrOversize is returned by ReadFrom when growing the buffer to fit the
// next chunk would exceed its maxCapacity, per spec §8's requirement that
// an oversized request body be rejected without first buffering it in
// full.
var ErrOversize = errors.New("ringbuf: buffer exceeded its size limit")

// Buffer is a growable byte region with a read cursor and a write cursor.
// Bytes in [0, readPos) have already been consumed; bytes in
// [readPos, writePos) are readable; capacity beyond writePos is free space
// for the next fd read. Consume only moves the read cursor, resetting both
// cursors to the front once no readable bytes remain; unread bytes are
// shifted to the front by Compact, which ensureFree also calls before it
// grows the backing array.
type Buffer struct {
	data        []byte
	readPos     int
	writePos    int
	maxCapacity int // 0 means unbounded; enforced by ensureFree/ReadFrom only
}

// New allocates a buffer with the spec's recommended initial 8KiB capacity
// and no ceiling on how far it may grow. Used for response write buffers,
// whose content is produced by this server, not an untrusted peer.
func New() *Buffer {
	return &Buffer{data: make([]byte, initialCapacity)}
}

// NewBounded allocates a buffer like New, but ReadFrom refuses to grow it
// past maxCapacity bytes, returning ErrOversize instead of buffering an
// arbitrarily large declared body in full before any size check runs. Used
// for connection read buffers, where maxCapacity should track the
// binding's configured max body size.
func NewBounded(maxCapacity int) *Buffer {
	return &Buffer{data: make([]byte, initialCapacity), maxCapacity: maxCapacity}
}

// Readable returns the unconsumed bytes. The returned slice aliases the
// buffer's backing array and is only valid until the next mutating call.
func (b *Buffer) Readable() []byte {
	return b.data[b.readPos:b.writePos]
}

// Len returns the number of unconsumed bytes.
func (b *Buffer) Len() int { return b.writePos - b.readPos }

// Consume advances the read cursor by n bytes, as the HTTP parser does
// after it reports how much of the buffer it parsed.
func (b *Buffer) Consume(n int) {
	b.readPos += n
	if b.readPos > b.writePos {
		b.readPos = b.writePos
	}
	if b.readPos == b.writePos {
		// Nothing left to read: reset cursors instead of waiting for a
		// future Compact, so small request/response cycles don't grow
		// the backing array via unnecessary shifting.
		b.readPos, b.writePos = 0, 0
	}
}

// Compact shifts unread bytes to the front of the backing array, reclaiming
// the space before readPos.
func (b *Buffer) Compact() {
	if b.readPos == 0 {
		return
	}
	n := copy(b.data, b.data[b.readPos:b.writePos])
	b.readPos = 0
	b.writePos = n
}

// ensureFree grows the backing array (doubling, up to softCap, then by
// n at a time past softCap) so at least n bytes of free space
// follow writePos. If the buffer has a maxCapacity and fitting n would
// exceed it, ensureFree does not grow (or use any already-allocated space
// past the cap) and returns ErrOversize instead — checked unconditionally
// so a maxCapacity smaller than the buffer's initial allocation is still
// enforced from the very first call, not just once real growth is needed.
func (b *Buffer) ensureFree(n int) error {
	if b.maxCapacity > 0 && b.writePos+n > b.maxCapacity {
		return ErrOversize
	}
	if b.writePos+n <= len(b.data) {
		return nil
	}
	b.Compact()
	if b.writePos+n <= len(b.data) {
		return nil
	}
	newCap := len(b.data)
	if newCap == 0 {
		newCap = initialCapacity
	}
	for newCap < b.writePos+n {
		if newCap < softCap {
			newCap *= 2
		} else {
			newCap += n
		}
	}
	grown := make([]byte, newCap)
	copy(grown, b.data[:b.writePos])
	b.data = grown
	return nil
}

// ReadFrom reads once from r (intended to be a non-blocking fd) into free
// space, growing the buffer first if needed. It surfaces whatever r.Read
// returns, same as io.Reader, except that exceeding maxCapacity short-
// circuits with ErrOversize before any read is attempted — a bounded
// buffer never allocates past its limit to accommodate an oversized,
// attacker-controlled declared body.
func (b *Buffer) ReadFrom(r io.Reader) (int, error) {
	const chunk = 8 * 1024
	if err := b.ensureFree(chunk); err != nil {
		return 0, err
	}
	n, err := r.Read(b.data[b.writePos : b.writePos+chunk])
	b.writePos += n
	return n, err
}

// Append copies p into the buffer's write region, growing as needed. Used
// to queue an encoded response for draining; only unbounded buffers
// (New, not NewBounded) should call Append, since a bounded buffer that
// refuses to grow silently drops all of p.
func (b *Buffer) Append(p []byte) {
	if err := b.ensureFree(len(p)); err != nil {
		return
	}
	b.writePos += copy(b.data[b.writePos:], p)
}

// WriteTo writes once to w (intended to be a non-blocking fd) from the
// unread region and consumes what was written.
func (b *Buffer) WriteTo(w io.Writer) (int, error) {
	if b.Len() == 0 {
		return 0, nil
	}
	n, err := w.Write(b.Readable())
	b.Consume(n)
	return n, err
}

// IsEmpty reports whether there is nothing left to drain.
func (b *Buffer) IsEmpty() bool { return b.Len() == 0 }

// Reset discards all buffered bytes without shrinking the backing array.
func (b *Buffer) Reset() {
	b.readPos, b.writePos = 0, 0
}
