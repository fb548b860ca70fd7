package ber

import (
	"encoding/hex"
	"strconv"
	"time"
)

// Kind identifies which member of Value is populated.
type Kind uint8

const (
	KindRawBytes Kind = iota
	KindInteger
	KindUTF8Text
	KindIA5Text
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindUTF8Text:
		return "utf8"
	case KindIA5Text:
		return "ia5"
	case KindTimestamp:
		return "timestamp"
	default:
		return "bytes"
	}
}

// Value is a decoded primitive. Exactly one of Int, Text, Bytes or Time is
// meaningful, selected by Kind. A timestamp keeps its source text in Text.
type Value struct {
	Kind  Kind      `json:"kind" yaml:"kind"`
	Int   int64     `json:"int,omitempty" yaml:"int,omitempty"`
	Text  string    `json:"text,omitempty" yaml:"text,omitempty"`
	Bytes []byte    `json:"bytes,omitempty" yaml:"bytes,omitempty"`
	Time  time.Time `json:"time,omitempty" yaml:"time,omitempty"`
}

func (v Value) String() string {
	switch v.Kind {
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindUTF8Text, KindIA5Text:
		return strconv.Quote(v.Text)
	case KindTimestamp:
		return v.Time.Format(time.RFC3339)
	default:
		return hex.EncodeToString(v.Bytes)
	}
}

// DecodeValue decodes the element at offset into a Value. INTEGER and the two
// string types decode to their natural kinds, with strings that match
// TimestampLayout promoted to KindTimestamp. Anything else, including strings
// that fail to decode, is returned as the raw element bytes.
func DecodeValue(buf []byte, offset, boundary int) (Value, int, error) {
	h, start, err := DecodeHeader(buf, offset, boundary)
	if err != nil {
		return Value{}, offset, err
	}
	end := start + h.Length

	if h.Universal(TagInteger) && !h.Constructed {
		n, next, err := DecodeInteger(buf, start, h.Length)
		if err != nil {
			return Value{}, offset, err
		}
		return Value{Kind: KindInteger, Int: n}, next, nil
	}

	if h.Universal(TagUTF8String) || h.Universal(TagIA5String) {
		s, ok, next, err := DecodeString(buf, offset, boundary)
		if err != nil {
			return Value{}, offset, err
		}
		if ok {
			if t, isTime := ParseTimestamp(s); isTime {
				return Value{Kind: KindTimestamp, Text: s, Time: t}, next, nil
			}
			kind := KindUTF8Text
			if h.Tag == TagIA5String {
				kind = KindIA5Text
			}
			return Value{Kind: kind, Text: s}, next, nil
		}
	}

	raw, next, err := DecodeOctets(buf, offset, end-offset)
	if err != nil {
		return Value{}, offset, err
	}
	return Value{Kind: KindRawBytes, Bytes: raw}, next, nil
}
