package ber

import (
	"testing"
	"time"

	"github.com/danmuck/receiptkit/internal/testutil/dertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorWalksAttributeSet(t *testing.T) {
	payload := dertest.Payload(
		dertest.Attr{Type: 2, Version: 1, Value: dertest.UTF8("com.example.app")},
		dertest.Attr{Type: 3, Version: 1, Value: dertest.UTF8("1.0")},
		dertest.Attr{Type: 12, Version: 1, Value: dertest.IA5("2020-01-01T00:00:00Z")},
	)

	c := NewCursor(payload)
	set, body, err := c.ReadElement()
	require.NoError(t, err)
	require.True(t, set.Universal(TagSet))
	assert.True(t, c.Done())

	var types []int
	for !body.Done() {
		attr, err := body.ReadAttribute()
		require.NoError(t, err)
		types = append(types, attr.Type)
	}
	assert.Equal(t, []int{2, 3, 12}, types)
}

func TestCursorPrimitiveReads(t *testing.T) {
	buf := append([]byte{}, dertest.Int(-5)...)
	buf = append(buf, dertest.UTF8("abc")...)
	buf = append(buf, dertest.IA5("2021-06-30T12:30:00Z")...)
	buf = append(buf, 0xDE, 0xAD)

	c := NewCursor(buf)
	n, err := c.ReadInteger()
	require.NoError(t, err)
	assert.Equal(t, int64(-5), n)

	s, err := c.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "abc", s)

	ts, ok, err := c.ReadTimestamp()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, time.Date(2021, 6, 30, 12, 30, 0, 0, time.UTC), ts)

	raw, err := c.ReadOctets(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDE, 0xAD}, raw)
	assert.True(t, c.Done())
	assert.Equal(t, len(buf), c.Offset())
}

func TestCursorReadStringUnsupportedIsSoft(t *testing.T) {
	buf := append(dertest.Bool(true), dertest.UTF8("next")...)
	c := NewCursor(buf)

	_, err := c.ReadString()
	require.ErrorIs(t, err, ErrUnsupportedStringType)
	assert.Equal(t, 3, c.Offset())

	s, err := c.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "next", s)
}

func TestCursorDoesNotMoveOnError(t *testing.T) {
	c := NewCursor([]byte{0x02, 0x05, 0x01})
	_, err := c.ReadInteger()
	require.ErrorIs(t, err, ErrMalformedHeader)
	assert.Equal(t, 0, c.Offset())

	_, err = c.ReadHeader()
	require.Error(t, err)
	assert.Equal(t, 0, c.Offset())

	_, err = c.ReadOctets(4)
	require.ErrorIs(t, err, ErrTruncatedContent)
	assert.Equal(t, 0, c.Offset())

	require.ErrorIs(t, c.Advance(4), ErrTruncatedContent)
	require.ErrorIs(t, c.Advance(-1), ErrTruncatedContent)
	assert.Equal(t, 0, c.Offset())
}

func TestCursorSubLimitsReads(t *testing.T) {
	buf := append(dertest.Int(1), dertest.Int(2)...)
	c := NewCursor(buf)

	first, err := c.Sub(3)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Remaining())
	assert.Equal(t, 3, c.Offset())

	_, err = first.ReadInteger()
	require.NoError(t, err)
	_, err = first.ReadInteger()
	require.ErrorIs(t, err, ErrMalformedHeader)

	_, err = c.Sub(4)
	require.ErrorIs(t, err, ErrTruncatedContent)

	n, err := c.ReadInteger()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestCursorEndOfContents(t *testing.T) {
	c := NewCursor([]byte{0x00, 0x00})
	assert.True(t, c.AtEndOfContents())
	require.NoError(t, c.Advance(1))
	assert.False(t, c.AtEndOfContents())
}

func TestNewCursorAtBounds(t *testing.T) {
	_, err := NewCursorAt([]byte{1, 2}, 1, 3)
	require.ErrorIs(t, err, ErrMalformedHeader)
	_, err = NewCursorAt([]byte{1, 2}, 2, 1)
	require.ErrorIs(t, err, ErrMalformedHeader)

	c, err := NewCursorAt([]byte{1, 2, 3}, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, c.Bytes())
	assert.Equal(t, 2, c.Limit())
}

func TestCursorReadValue(t *testing.T) {
	buf := append(dertest.IA5("2020-01-01T00:00:00Z"), dertest.Octets([]byte{1})...)
	c := NewCursor(buf)

	v, err := c.ReadValue()
	require.NoError(t, err)
	assert.Equal(t, KindTimestamp, v.Kind)

	v, err = c.ReadValue()
	require.NoError(t, err)
	assert.Equal(t, KindRawBytes, v.Kind)
	assert.Equal(t, dertest.Octets([]byte{1}), v.Bytes)
	assert.True(t, c.Done())
}
