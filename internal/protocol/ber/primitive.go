package ber

import (
	"time"
	"unicode/utf8"
)

// TimestampLayout is the fixed receipt date format, always read as UTC.
const TimestampLayout = "2006-01-02T15:04:05Z"

// DecodeInteger interprets contentLength bytes at offset as a big-endian two's
// complement INTEGER.
func DecodeInteger(buf []byte, offset, contentLength int) (int64, int, error) {
	if offset < 0 || offset > len(buf) || contentLength <= 0 || contentLength > len(buf)-offset {
		return 0, offset, decodeErr("integer content", offset, ErrTruncatedContent)
	}
	content := buf[offset : offset+contentLength]

	// Sign-extension octets carry no value; strip them before sizing.
	for len(content) > 1 {
		if (content[0] == 0x00 && content[1]&0x80 == 0) || (content[0] == 0xFF && content[1]&0x80 != 0) {
			content = content[1:]
			continue
		}
		break
	}
	if len(content) > 8 {
		return 0, offset, decodeErr("integer content", offset, ErrIntegerTooLarge)
	}

	v := int64(int8(content[0]))
	for _, b := range content[1:] {
		v = v<<8 | int64(b)
	}
	return v, offset + contentLength, nil
}

// DecodeIntegerElement reads a full INTEGER element (header and content) at
// offset, bounded by boundary.
func DecodeIntegerElement(buf []byte, offset, boundary int) (int64, int, error) {
	h, next, err := DecodeHeader(buf, offset, boundary)
	if err != nil {
		return 0, offset, err
	}
	if !h.Universal(TagInteger) || h.Constructed {
		return 0, offset, decodeErr("integer tag", offset, ErrInvalidType)
	}
	v, end, err := DecodeInteger(buf, next, h.Length)
	if err != nil {
		return 0, offset, err
	}
	return v, end, nil
}

// DecodeString reads a string element. UTF8String and IA5String yield their
// text with ok=true; any other tag, or content that is not valid in the
// tagged encoding, yields ok=false without error. next is past the element in
// both cases.
func DecodeString(buf []byte, offset, boundary int) (s string, ok bool, next int, err error) {
	h, start, err := DecodeHeader(buf, offset, boundary)
	if err != nil {
		return "", false, offset, err
	}
	end := start + h.Length
	if h.Constructed || h.Class != ClassUniversal {
		return "", false, end, nil
	}
	content := buf[start:end]
	switch h.Tag {
	case TagUTF8String:
		if !utf8.Valid(content) {
			return "", false, end, nil
		}
		return string(content), true, end, nil
	case TagIA5String:
		for _, b := range content {
			if b > 0x7F {
				return "", false, end, nil
			}
		}
		return string(content), true, end, nil
	default:
		return "", false, end, nil
	}
}

// DecodeOctets copies exactly count bytes starting at offset.
func DecodeOctets(buf []byte, offset, count int) ([]byte, int, error) {
	if offset < 0 || offset > len(buf) || count < 0 || count > len(buf)-offset {
		return nil, offset, decodeErr("octets", offset, ErrTruncatedContent)
	}
	out := make([]byte, count)
	copy(out, buf[offset:offset+count])
	return out, offset + count, nil
}

// DecodeTimestamp reads a string element and parses it with TimestampLayout.
// A missing string or a date that does not parse yields ok=false without
// error.
func DecodeTimestamp(buf []byte, offset, boundary int) (t time.Time, ok bool, next int, err error) {
	s, ok, next, err := DecodeString(buf, offset, boundary)
	if err != nil || !ok {
		return time.Time{}, false, next, err
	}
	t, ok = ParseTimestamp(s)
	return t, ok, next, nil
}

// ParseTimestamp parses s with TimestampLayout in UTC.
// The layout is matched literally: fractional seconds and short fields are
// rejected.
func ParseTimestamp(s string) (time.Time, bool) {
	if len(s) != len(TimestampLayout) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(TimestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
