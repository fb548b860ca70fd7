package ber

import "time"

// Cursor is a bounded read position over a caller-owned buffer. The zero
// value is an empty cursor. Cursors are values: copy one to fork a walk.
// Methods that fail leave the cursor where it was.
type Cursor struct {
	buf   []byte
	off   int
	limit int
}

// NewCursor returns a cursor over all of buf.
func NewCursor(buf []byte) Cursor {
	return Cursor{buf: buf, limit: len(buf)}
}

// NewCursorAt returns a cursor positioned at offset and limited to boundary.
func NewCursorAt(buf []byte, offset, boundary int) (Cursor, error) {
	if offset < 0 || boundary > len(buf) || offset > boundary {
		return Cursor{}, decodeErr("cursor bounds", offset, ErrMalformedHeader)
	}
	return Cursor{buf: buf, off: offset, limit: boundary}, nil
}

func (c Cursor) Offset() int    { return c.off }
func (c Cursor) Limit() int     { return c.limit }
func (c Cursor) Remaining() int { return c.limit - c.off }
func (c Cursor) Done() bool     { return c.off >= c.limit }

// Bytes returns the unread span without copying.
func (c Cursor) Bytes() []byte { return c.buf[c.off:c.limit] }

// AtEndOfContents reports whether the next two bytes are the end-of-contents
// marker closing an indefinite-length encoding.
func (c Cursor) AtEndOfContents() bool {
	return c.Remaining() >= 2 && c.buf[c.off] == 0 && c.buf[c.off+1] == 0
}

// Advance moves the cursor forward by n bytes.
func (c *Cursor) Advance(n int) error {
	if n < 0 || n > c.Remaining() {
		return decodeErr("advance", c.off, ErrTruncatedContent)
	}
	c.off += n
	return nil
}

// Sub returns a cursor over the next n bytes and advances c past them.
func (c *Cursor) Sub(n int) (Cursor, error) {
	if n < 0 || n > c.Remaining() {
		return Cursor{}, decodeErr("sub-cursor", c.off, ErrTruncatedContent)
	}
	sub := Cursor{buf: c.buf, off: c.off, limit: c.off + n}
	c.off += n
	return sub, nil
}

// ReadHeader decodes a header and leaves the cursor at its content.
func (c *Cursor) ReadHeader() (Header, error) {
	h, next, err := DecodeHeader(c.buf, c.off, c.limit)
	if err != nil {
		return Header{}, err
	}
	c.off = next
	return h, nil
}

// ReadElement decodes a header and returns a cursor over its content,
// leaving c past the element. Indefinite lengths consume the rest of c.
func (c *Cursor) ReadElement() (Header, Cursor, error) {
	h, next, err := DecodeHeader(c.buf, c.off, c.limit)
	if err != nil {
		return Header{}, Cursor{}, err
	}
	content := Cursor{buf: c.buf, off: next, limit: next + h.Length}
	c.off = next + h.Length
	return h, content, nil
}

// ReadInteger reads a full INTEGER element.
func (c *Cursor) ReadInteger() (int64, error) {
	v, next, err := DecodeIntegerElement(c.buf, c.off, c.limit)
	if err != nil {
		return 0, err
	}
	c.off = next
	return v, nil
}

// ReadString reads a UTF8String or IA5String element. Any other element is
// skipped and reported as ErrUnsupportedStringType.
func (c *Cursor) ReadString() (string, error) {
	start := c.off
	s, ok, next, err := DecodeString(c.buf, c.off, c.limit)
	if err != nil {
		return "", err
	}
	c.off = next
	if !ok {
		return "", decodeErr("string", start, ErrUnsupportedStringType)
	}
	return s, nil
}

// ReadOctets copies the next n bytes.
func (c *Cursor) ReadOctets(n int) ([]byte, error) {
	if n > c.Remaining() {
		return nil, decodeErr("octets", c.off, ErrTruncatedContent)
	}
	out, next, err := DecodeOctets(c.buf, c.off, n)
	if err != nil {
		return nil, err
	}
	c.off = next
	return out, nil
}

// ReadTimestamp reads a string element as a timestamp; ok is false when the
// element is not a string or does not parse.
func (c *Cursor) ReadTimestamp() (time.Time, bool, error) {
	t, ok, next, err := DecodeTimestamp(c.buf, c.off, c.limit)
	if err != nil {
		return time.Time{}, false, err
	}
	c.off = next
	return t, ok, nil
}

// ReadValue decodes the next element as a Value.
func (c *Cursor) ReadValue() (Value, error) {
	v, next, err := DecodeValue(c.buf, c.off, c.limit)
	if err != nil {
		return Value{}, err
	}
	c.off = next
	return v, nil
}

// ReadAttribute decodes an attribute record bounded by the cursor limit.
func (c *Cursor) ReadAttribute() (Attribute, error) {
	a, next, err := DecodeAttribute(c.buf, c.off, c.limit)
	if err != nil {
		return Attribute{}, err
	}
	if next > c.limit {
		next = c.limit
	}
	c.off = next
	return a, nil
}
