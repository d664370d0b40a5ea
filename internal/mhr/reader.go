package mhr

import (
	"errors"
	"io"
)

// ErrShortRead reports a stream that ended before the expected data.
var ErrShortRead = errors.New("unexpected end of data")

// byteReader reads little-endian primitives from a byte stream. Read
// errors are sticky: once a read fails, every later read returns zero and
// the first error is kept for the next checkpoint.
type byteReader struct {
	r   io.Reader
	buf [4]byte
	err error
}

func newByteReader(r io.Reader) *byteReader {
	return &byteReader{r: r}
}

// ok reports whether all reads since the last checkpoint succeeded.
func (br *byteReader) ok() bool { return br.err == nil }

// take returns the sticky error, mapping stream exhaustion to ErrShortRead.
func (br *byteReader) take() error {
	if br.err == nil {
		return nil
	}
	if errors.Is(br.err, io.EOF) || errors.Is(br.err, io.ErrUnexpectedEOF) {
		return ErrShortRead
	}
	return br.err
}

func (br *byteReader) read(n int) []byte {
	if br.err != nil {
		return br.buf[:n]
	}
	if _, err := io.ReadFull(br.r, br.buf[:n]); err != nil {
		br.err = err
		clear(br.buf[:])
	}
	return br.buf[:n]
}

func (br *byteReader) u8() uint8 {
	return br.read(1)[0]
}

func (br *byteReader) u16() uint16 {
	b := br.read(2)
	return uint16(b[0]) | uint16(b[1])<<8
}

// i16 reads a two's-complement 16-bit value via its unsigned form.
func (br *byteReader) i16() int16 {
	v := int32(br.u16())
	return int16((v ^ 0x8000) - 0x8000)
}

// i24 reads a two's-complement 24-bit value via its unsigned form.
func (br *byteReader) i24() int32 {
	b := br.read(3)
	v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	return (v ^ 0x800000) - 0x800000
}

func (br *byteReader) u32() uint32 {
	b := br.read(4)
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
