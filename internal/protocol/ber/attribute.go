package ber

// Attribute is one receipt attribute record:
//
//	SEQUENCE { type INTEGER, version INTEGER, value OCTET STRING }
//
// Offset is where the SEQUENCE starts, PayloadOffset where the OCTET STRING
// content starts and End the offset just past it.
type Attribute struct {
	Type          int    `json:"type" yaml:"type"`
	Version       int    `json:"version" yaml:"version"`
	Payload       []byte `json:"payload" yaml:"payload"`
	PayloadLength int    `json:"payload_length" yaml:"payload_length"`
	Offset        int    `json:"offset" yaml:"offset"`
	PayloadOffset int    `json:"payload_offset" yaml:"payload_offset"`
	End           int    `json:"end" yaml:"end"`
}

// DecodeAttribute decodes the attribute record starting at offset. boundary
// is the end of the record as known to the caller.
//
// The OCTET STRING header is bounded by the span the record started with
// (boundary-offset) measured from the current position rather than by
// boundary itself, so a payload may run past boundary. The looser limit is
// still clamped to the buffer. Callers that need the payload confined to the
// record compare Attribute.End against boundary.
func DecodeAttribute(buf []byte, offset, boundary int) (Attribute, int, error) {
	seq, cur, err := DecodeHeader(buf, offset, boundary)
	if err != nil {
		return Attribute{}, offset, err
	}
	if !seq.Universal(TagSequence) || !seq.Constructed || seq.Indefinite {
		return Attribute{}, offset, decodeErr("attribute sequence", offset, ErrInvalidType)
	}
	span := boundary - offset

	typ, cur, err := readAttributeInt(buf, cur, boundary)
	if err != nil {
		return Attribute{}, offset, wrapErr("attribute type", offset, ErrInvalidSequenceType, err)
	}

	version, cur, err := readAttributeInt(buf, cur, boundary)
	if err != nil {
		return Attribute{}, offset, wrapErr("attribute version", offset, ErrMissingLength, err)
	}

	limit := cur + span
	if limit > len(buf) {
		limit = len(buf)
	}
	octet, payloadStart, err := DecodeHeader(buf, cur, limit)
	if err != nil {
		return Attribute{}, offset, wrapErr("attribute value", cur, ErrMissingOctet, err)
	}
	if !octet.Universal(TagOctetString) || octet.Indefinite {
		return Attribute{}, offset, decodeErr("attribute value", cur, ErrMissingOctet)
	}

	payload, end, err := DecodeOctets(buf, payloadStart, octet.Length)
	if err != nil {
		return Attribute{}, offset, wrapErr("attribute value", payloadStart, ErrMissingOctet, err)
	}

	return Attribute{
		Type:          typ,
		Version:       version,
		Payload:       payload,
		PayloadLength: octet.Length,
		Offset:        offset,
		PayloadOffset: payloadStart,
		End:           end,
	}, end, nil
}

func readAttributeInt(buf []byte, offset, boundary int) (int, int, error) {
	v, next, err := DecodeIntegerElement(buf, offset, boundary)
	if err != nil {
		return 0, offset, err
	}
	n := int(v)
	if int64(n) != v {
		return 0, offset, decodeErr("attribute integer", offset, ErrIntegerTooLarge)
	}
	return n, next, nil
}
