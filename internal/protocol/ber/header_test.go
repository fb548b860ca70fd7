package ber

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHeaderShortFormLengths(t *testing.T) {
	for l := 0; l <= 127; l++ {
		buf := make([]byte, 2+l)
		buf[0] = TagOctetString
		buf[1] = byte(l)

		h, next, err := DecodeHeader(buf, 0, len(buf))
		require.NoError(t, err, "length %d", l)
		assert.Equal(t, l, h.Length)
		assert.Equal(t, 2, next)
		assert.Equal(t, ClassUniversal, h.Class)
		assert.False(t, h.Constructed)
		assert.Equal(t, TagOctetString, h.Tag)
	}
}

func TestDecodeHeaderLongFormLengths(t *testing.T) {
	cases := []struct {
		name   string
		octets []byte
		want   int
	}{
		{name: "one byte", octets: []byte{0x81, 0x80}, want: 128},
		{name: "one byte max", octets: []byte{0x81, 0xFF}, want: 255},
		{name: "two bytes", octets: []byte{0x82, 0x01, 0x00}, want: 256},
		{name: "three bytes", octets: []byte{0x83, 0x01, 0x00, 0x01}, want: 65537},
		{name: "leading zero", octets: []byte{0x82, 0x00, 0x05}, want: 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := append([]byte{0x30}, tc.octets...)
			buf = append(buf, make([]byte, tc.want)...)

			h, next, err := DecodeHeader(buf, 0, len(buf))
			require.NoError(t, err)
			assert.Equal(t, tc.want, h.Length)
			assert.Equal(t, 1+len(tc.octets), next)
			assert.True(t, h.Constructed)
			assert.True(t, h.Universal(TagSequence))
		})
	}
}

func TestDecodeHeaderClassesAndLongTag(t *testing.T) {
	h, next, err := DecodeHeader([]byte{0xA3, 0x00}, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, ClassContextSpecific, h.Class)
	assert.True(t, h.Constructed)
	assert.Equal(t, 3, h.Tag)
	assert.Equal(t, 2, next)

	h, _, err = DecodeHeader([]byte{0x41, 0x00}, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, ClassApplication, h.Class)

	h, _, err = DecodeHeader([]byte{0xC2, 0x00}, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, ClassPrivate, h.Class)

	// All five tag bits set switches to a base-128 tag number.
	h, next, err = DecodeHeader([]byte{0x9F, 0x81, 0x00, 0x01, 0xAA}, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, 128, h.Tag)
	assert.Equal(t, 1, h.Length)
	assert.Equal(t, 4, next)
}

func TestDecodeHeaderAtOffset(t *testing.T) {
	buf := []byte{0xEE, 0xEE, 0x02, 0x01, 0x05, 0xEE}
	h, next, err := DecodeHeader(buf, 2, 5)
	require.NoError(t, err)
	assert.True(t, h.Universal(TagInteger))
	assert.Equal(t, 4, next)
}

func TestDecodeHeaderIndefiniteLength(t *testing.T) {
	buf := []byte{0x30, 0x80, 0x02, 0x01, 0x01, 0x00, 0x00}
	h, next, err := DecodeHeader(buf, 0, len(buf))
	require.NoError(t, err)
	assert.True(t, h.Indefinite)
	assert.Equal(t, 2, next)
	assert.Equal(t, len(buf)-2, h.Length)
}

func TestDecodeHeaderMalformed(t *testing.T) {
	cases := []struct {
		name     string
		buf      []byte
		offset   int
		boundary int
	}{
		{name: "empty", buf: nil, boundary: 0},
		{name: "identifier at boundary", buf: []byte{0x02, 0x01, 0x01}, boundary: 0},
		{name: "length past boundary", buf: []byte{0x02, 0x01, 0x01}, boundary: 1},
		{name: "long tag past boundary", buf: []byte{0x1F, 0x81}, boundary: 2},
		{name: "long length past boundary", buf: []byte{0x04, 0x82, 0x01}, boundary: 3},
		{name: "content past boundary", buf: []byte{0x04, 0x03, 'a', 'b', 'c'}, boundary: 4},
		{name: "content past buffer", buf: []byte{0x04, 0x05, 'a'}, boundary: 3},
		{name: "reserved length", buf: []byte{0x04, 0xFF, 0x00}, boundary: 3},
		{name: "indefinite primitive", buf: []byte{0x04, 0x80, 0x00, 0x00}, boundary: 4},
		{name: "boundary past buffer", buf: []byte{0x05, 0x00}, boundary: 3},
		{name: "offset past boundary", buf: []byte{0x05, 0x00}, offset: 2, boundary: 1},
		{name: "negative offset", buf: []byte{0x05, 0x00}, offset: -1, boundary: 2},
		{name: "length overflow", buf: []byte{0x04, 0x89, 0x01, 0, 0, 0, 0, 0, 0, 0, 0}, boundary: 11},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, next, err := DecodeHeader(tc.buf, tc.offset, tc.boundary)
			require.ErrorIs(t, err, ErrMalformedHeader)
			assert.Equal(t, tc.offset, next)

			var de *DecodeError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tc.offset, de.Offset)
		})
	}
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "universal", ClassUniversal.String())
	assert.Equal(t, "application", ClassApplication.String())
	assert.Equal(t, "context", ClassContextSpecific.String())
	assert.Equal(t, "private", ClassPrivate.String())
	assert.Equal(t, "unknown", Class(9).String())
}
