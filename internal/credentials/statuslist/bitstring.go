package statuslist

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

// multibasePrefix marks base64url (no padding) in multibase encoding.
const multibasePrefix = "u"

var ErrIndexOutOfRange = errors.New("bitstring index out of range")

// Bitstring is a fixed-length bit vector. Index 0 is the most significant bit
// of the first byte.
type Bitstring struct {
	bits []byte
	size int
}

// NewBitstring allocates an all-zero bitstring of size bits, rounded up to a
// whole byte.
func NewBitstring(size int) *Bitstring {
	if size < 0 {
		size = 0
	}
	return &Bitstring{bits: make([]byte, (size+7)/8), size: size}
}

// Len is the number of addressable bits.
func (b *Bitstring) Len() int { return b.size }

func (b *Bitstring) Get(index int) (bool, error) {
	if index < 0 || index >= b.size {
		return false, fmt.Errorf("%w: %d (size %d)", ErrIndexOutOfRange, index, b.size)
	}
	return b.bits[index/8]&(0x80>>(index%8)) != 0, nil
}

func (b *Bitstring) Set(index int, value bool) error {
	if index < 0 || index >= b.size {
		return fmt.Errorf("%w: %d (size %d)", ErrIndexOutOfRange, index, b.size)
	}
	mask := byte(0x80 >> (index % 8))
	if value {
		b.bits[index/8] |= mask
	} else {
		b.bits[index/8] &^= mask
	}
	return nil
}

// Encode gzips the bitstring and renders it as multibase base64url.
func (b *Bitstring) Encode() (string, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(b.bits); err != nil {
		return "", fmt.Errorf("compress bitstring: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compress bitstring: %w", err)
	}
	return multibasePrefix + base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeBitstring parses an encodedList value. The multibase prefix is optional
// and trailing padding is tolerated.
func DecodeBitstring(encoded string) (*Bitstring, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(encoded), multibasePrefix)
	raw = strings.TrimRight(raw, "=")
	compressed, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode encodedList: %w", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("decompress encodedList: %w", err)
	}
	defer zr.Close()
	bits, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress encodedList: %w", err)
	}
	return &Bitstring{bits: bits, size: len(bits) * 8}, nil
}
