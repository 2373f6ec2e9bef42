package loader

// streaming.go wraps input readers so the CSV parser sees clean UTF-8:
//
//   - bomReader drops a leading UTF-8 BOM written by spreadsheet exports
//   - utf8Sanitizer replaces invalid byte sequences with '?'
//   - countingReader tracks bytes consumed for the load log line
//
// wrapInput applies all three in that order.

import (
	"io"
	"unicode/utf8"
)

// utf8Sanitizer replaces invalid UTF-8 bytes on the fly. Incomplete
// multi-byte sequences at a buffer boundary are held until the next Read.
type utf8Sanitizer struct {
	r       io.Reader
	pending []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := 0
	if len(s.pending) > 0 {
		offset = copy(p, s.pending)
		s.pending = s.pending[:0]
	}

	n, err := s.r.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	if isASCII(p[:n]) {
		return n, err
	}
	return s.sanitize(p[:n], err == io.EOF), err
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// sanitize rewrites data in place and returns the number of bytes to hand
// back to the caller. Replacement uses '?' so output never grows.
func (s *utf8Sanitizer) sanitize(data []byte, atEOF bool) int {
	if utf8.Valid(data) {
		if !atEOF {
			if t := trailingPartial(data); t > 0 {
				s.pending = append(s.pending, data[len(data)-t:]...)
				return len(data) - t
			}
		}
		return len(data)
	}

	w := 0
	for rd := 0; rd < len(data); {
		r, size := utf8.DecodeRune(data[rd:])

		if !atEOF && rd+size >= len(data) && partialRune(data[rd:]) {
			s.pending = append(s.pending, data[rd:]...)
			return w
		}

		if r == utf8.RuneError && size == 1 {
			data[w] = '?'
			w++
			rd++
			continue
		}
		copy(data[w:], data[rd:rd+size])
		w += size
		rd += size
	}
	return w
}

// trailingPartial returns how many bytes at the end of data start a
// multi-byte sequence that has not been completed yet.
func trailingPartial(data []byte) int {
	for i := 1; i <= 3 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b >= 0xC0 {
			if i < seqLen(b) {
				return i
			}
			return 0
		}
		if b&0xC0 != 0x80 {
			return 0
		}
	}
	return 0
}

func seqLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}

func partialRune(data []byte) bool {
	return len(data) > 0 && seqLen(data[0]) > len(data)
}

// bomReader skips the UTF-8 byte order mark (EF BB BF) if the stream
// starts with one.
type bomReader struct {
	r       io.Reader
	checked bool
	head    []byte
}

func newBOMReader(r io.Reader) *bomReader {
	return &bomReader{r: r}
}

func (b *bomReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		var buf [3]byte
		n, err := io.ReadFull(b.r, buf[:])
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return 0, err
		}
		if !(n == 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF) {
			b.head = append(b.head, buf[:n]...)
		}
		if n < 3 && len(b.head) == 0 {
			return 0, io.EOF
		}
	}

	if len(b.head) > 0 {
		n := copy(p, b.head)
		b.head = b.head[n:]
		return n, nil
	}
	return b.r.Read(p)
}

// countingReader records how many bytes have passed through it.
type countingReader struct {
	r     io.Reader
	bytes int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.bytes += int64(n)
	return n, err
}

// wrapInput strips the BOM first, then sanitizes, then counts.
func wrapInput(r io.Reader) *countingReader {
	return &countingReader{r: newUTF8Sanitizer(newBOMReader(r))}
}
