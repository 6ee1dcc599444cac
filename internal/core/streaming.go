package core

// streaming.go normalizes CSV bytes on the fly, before encoding/csv sees them.
//
//   - SkipBOM drops a leading UTF-8 byte order mark (Excel on Windows adds one)
//   - UTF8Sanitizer replaces invalid UTF-8 bytes with '?'
//   - CountingReader tracks bytes consumed for the import log line
//
// Everything works in constant memory regardless of file size.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SkipBOM returns a reader positioned after the UTF-8 BOM, if r starts with one.
func SkipBOM(r io.Reader) *bufio.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// UTF8Sanitizer replaces each byte that is not part of a valid UTF-8
// sequence with '?'. Multi-byte runes split across underlying reads are
// reassembled by the buffered source.
type UTF8Sanitizer struct {
	src     *bufio.Reader
	pending []byte
	err     error
}

// NewUTF8Sanitizer wraps r.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &UTF8Sanitizer{src: br}
}

// Read implements io.Reader. It returns as soon as buffered input runs out
// so that callers are never blocked on data they did not ask for.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(s.pending) > 0 {
			c := copy(p[n:], s.pending)
			s.pending = s.pending[c:]
			n += c
			continue
		}
		if s.err != nil {
			break
		}
		if n > 0 && s.src.Buffered() == 0 {
			break
		}

		r, size, err := s.src.ReadRune()
		if err != nil {
			s.err = err
			break
		}
		if r == utf8.RuneError && size == 1 {
			r = '?'
		}

		var buf [utf8.UTFMax]byte
		w := utf8.EncodeRune(buf[:], r)
		c := copy(p[n:], buf[:w])
		n += c
		if c < w {
			s.pending = append(s.pending[:0], buf[c:w]...)
		}
	}

	if n > 0 {
		return n, nil
	}
	return 0, s.err
}

// CountingReader counts the bytes read through it.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// WrapForStreaming strips the BOM, then sanitizes, then counts.
func WrapForStreaming(r io.Reader) *CountingReader {
	return &CountingReader{reader: NewUTF8Sanitizer(SkipBOM(r))}
}
