package file

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// IntSize is the number of bytes a Page uses to store an int. Ints are always written as 8 big-endian bytes so
// that pages and log records are portable across architectures.
const IntSize = 8

// Page is a fixed-size byte buffer holding the contents of one block. Pages are the unit of transfer between disk
// and main memory; the buffer pool keeps one per buffer.
type Page struct {
	buffer []byte
}

// NewPage creates a zeroed Page of the given block size.
func NewPage(blockSize int) *Page {
	return &Page{buffer: make([]byte, blockSize)}
}

// NewPageFromBytes wraps b without copying it. Log records are built this way.
func NewPageFromBytes(b []byte) *Page {
	return &Page{buffer: b}
}

func (p *Page) GetInt(offset int) int {
	return int(binary.BigEndian.Uint64(p.buffer[offset:]))
}

func (p *Page) SetInt(offset int, n int) {
	binary.BigEndian.PutUint64(p.buffer[offset:], uint64(n))
}

func (p *Page) GetLong(offset int) int64 {
	return int64(binary.BigEndian.Uint64(p.buffer[offset:]))
}

func (p *Page) SetLong(offset int, n int64) {
	binary.BigEndian.PutUint64(p.buffer[offset:], uint64(n))
}

// GetBytes reads a length-prefixed byte slice starting at offset. The returned slice is a copy.
func (p *Page) GetBytes(offset int) ([]byte, error) {
	if offset < 0 || offset+IntSize > len(p.buffer) {
		return nil, fmt.Errorf("length prefix at %d: %w", offset, ErrOffsetOutRange)
	}
	length := p.GetInt(offset)
	start := offset + IntSize
	if length < 0 || start+length > len(p.buffer) {
		return nil, fmt.Errorf("%d bytes at %d: %w", length, start, ErrOffsetOutRange)
	}
	b := make([]byte, length)
	copy(b, p.buffer[start:start+length])
	return b, nil
}

// SetBytes writes b at offset, preceded by its length.
func (p *Page) SetBytes(offset int, b []byte) error {
	if offset < 0 || offset+IntSize+len(b) > len(p.buffer) {
		return fmt.Errorf("%d bytes at %d: %w", len(b), offset, ErrOffsetOutRange)
	}
	p.SetInt(offset, len(b))
	copy(p.buffer[offset+IntSize:], b)
	return nil
}

func (p *Page) GetString(offset int) (string, error) {
	b, err := p.GetBytes(offset)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", ErrInvalidUTF8
	}
	return string(b), nil
}

func (p *Page) SetString(offset int, s string) error {
	if !utf8.ValidString(s) {
		return ErrInvalidUTF8
	}
	return p.SetBytes(offset, []byte(s))
}

// MaxLength returns the worst-case number of bytes needed to store a string of strlen characters.
func MaxLength(strlen int) int {
	return IntSize + strlen*utf8.UTFMax
}

// Contents exposes the underlying bytes. Callers that write through it must mark the owning buffer modified.
func (p *Page) Contents() []byte {
	return p.buffer
}
