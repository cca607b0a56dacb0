package dbc

// pool.go - append-only string block management

// StringPool owns the string block of a table. Strings are stored as raw
// bytes followed by a NUL terminator and referenced by byte offset from
// record cells. Offset 0 conventionally denotes the empty string.
//
// The pool is strictly append-only: Intern never deduplicates, so
// interning the same string twice yields two distinct offsets. Offsets
// handed out earlier stay valid as the pool grows.
type StringPool struct {
	buf []byte
}

// NewStringPool wraps an existing string block. The block is kept
// verbatim so untouched tables serialize byte-identically.
func NewStringPool(block []byte) *StringPool {
	return &StringPool{buf: block}
}

// Intern appends s plus a NUL terminator and returns the offset the
// string starts at (the pool length before the append).
func (p *StringPool) Intern(s string) uint32 {
	offset := uint32(len(p.buf))
	p.buf = append(p.buf, s...)
	p.buf = append(p.buf, 0)
	return offset
}

// StringAt reads the NUL-terminated string starting at offset.
// Returns false if the offset lies outside the pool or the terminator
// is missing.
func (p *StringPool) StringAt(offset uint32) (string, bool) {
	if int(offset) >= len(p.buf) {
		return "", false
	}
	for i := int(offset); i < len(p.buf); i++ {
		if p.buf[i] == 0 {
			return string(p.buf[offset:i]), true
		}
	}
	return "", false
}

// Len returns the current size of the pool in bytes.
func (p *StringPool) Len() int {
	return len(p.buf)
}

// Bytes returns the raw pool contents. Callers must not modify the
// returned slice.
func (p *StringPool) Bytes() []byte {
	return p.buf
}
