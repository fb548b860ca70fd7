package ber

import "math"

// Class is the two-bit tag class of an identifier octet.
type Class uint8

const (
	ClassUniversal Class = iota
	ClassApplication
	ClassContextSpecific
	ClassPrivate
)

func (c Class) String() string {
	switch c {
	case ClassUniversal:
		return "universal"
	case ClassApplication:
		return "application"
	case ClassContextSpecific:
		return "context"
	case ClassPrivate:
		return "private"
	default:
		return "unknown"
	}
}

// Universal tag numbers understood by this package.
const (
	TagBoolean     = 0x01
	TagInteger     = 0x02
	TagOctetString = 0x04
	TagNull        = 0x05
	TagOID         = 0x06
	TagUTF8String  = 0x0C
	TagSequence    = 0x10
	TagSet         = 0x11
	TagIA5String   = 0x16
)

const (
	identClassShift   = 6
	identConstructed  = 0x20
	identTagMask      = 0x1F
	lengthLongForm    = 0x80
	lengthCountMask   = 0x7F
	lengthReserved    = 0xFF
	maxTagNumber      = 1 << 24
	maxLengthPrefixed = math.MaxInt >> 8
)

// Header is one decoded identifier+length pair. Length is the content length;
// for indefinite encodings it is the span up to the boundary the header was
// read against.
type Header struct {
	Class       Class
	Constructed bool
	Tag         int
	Length      int
	Indefinite  bool
}

// Is reports whether the header carries the given class and tag number.
func (h Header) Is(class Class, tag int) bool {
	return h.Class == class && h.Tag == tag
}

// Universal reports whether the header is the universal tag with the given
// number.
func (h Header) Universal(tag int) bool {
	return h.Is(ClassUniversal, tag)
}

// DecodeHeader decodes the TLV header at offset, reading no further than
// boundary. It returns the header and the offset of the first content byte.
// The declared content must also fit before boundary.
func DecodeHeader(buf []byte, offset, boundary int) (Header, int, error) {
	if offset < 0 || boundary > len(buf) || offset > boundary {
		return Header{}, offset, decodeErr("header bounds", offset, ErrMalformedHeader)
	}
	i := offset
	if i >= boundary {
		return Header{}, offset, decodeErr("identifier", offset, ErrMalformedHeader)
	}
	ident := buf[i]
	i++

	h := Header{
		Class:       Class(ident >> identClassShift),
		Constructed: ident&identConstructed != 0,
		Tag:         int(ident & identTagMask),
	}

	if h.Tag == identTagMask {
		tag := 0
		for {
			if i >= boundary {
				return Header{}, offset, decodeErr("long-form tag", offset, ErrMalformedHeader)
			}
			b := buf[i]
			i++
			if tag > maxTagNumber {
				return Header{}, offset, decodeErr("long-form tag overflow", offset, ErrMalformedHeader)
			}
			tag = tag<<7 | int(b&0x7F)
			if b&0x80 == 0 {
				break
			}
		}
		h.Tag = tag
	}

	if i >= boundary {
		return Header{}, offset, decodeErr("length", offset, ErrMalformedHeader)
	}
	first := buf[i]
	i++

	switch {
	case first&lengthLongForm == 0:
		h.Length = int(first)
	case first == lengthLongForm:
		if !h.Constructed {
			return Header{}, offset, decodeErr("indefinite primitive length", offset, ErrMalformedHeader)
		}
		h.Indefinite = true
		h.Length = boundary - i
		return h, i, nil
	case first == lengthReserved:
		return Header{}, offset, decodeErr("reserved length octet", offset, ErrMalformedHeader)
	default:
		count := int(first & lengthCountMask)
		if count > boundary-i {
			return Header{}, offset, decodeErr("long-form length", offset, ErrMalformedHeader)
		}
		length := 0
		for _, b := range buf[i : i+count] {
			if length > maxLengthPrefixed {
				return Header{}, offset, decodeErr("length overflow", offset, ErrMalformedHeader)
			}
			length = length<<8 | int(b)
		}
		i += count
		h.Length = length
	}

	if h.Length > boundary-i {
		return Header{}, offset, decodeErr("content length", offset, ErrMalformedHeader)
	}
	return h, i, nil
}
