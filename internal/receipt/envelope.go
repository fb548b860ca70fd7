package receipt

import (
	"bytes"
	"fmt"

	"github.com/danmuck/receiptkit/internal/protocol/ber"
)

// DER content octets of the PKCS#7 content type OIDs.
var (
	oidSignedData = []byte{0x2A, 0x86, 0x48, 0x86, 0xF7, 0x0D, 0x01, 0x07, 0x02}
	oidData       = []byte{0x2A, 0x86, 0x48, 0x86, 0xF7, 0x0D, 0x01, 0x07, 0x01}
)

// Payload locates the receipt attribute SET inside a PKCS#7 SignedData
// container:
//
//	ContentInfo ::= SEQUENCE {
//	    contentType OBJECT IDENTIFIER (signedData),
//	    content [0] EXPLICIT SEQUENCE {
//	        version INTEGER,
//	        digestAlgorithms SET,
//	        encapContentInfo SEQUENCE {
//	            eContentType OBJECT IDENTIFIER (data),
//	            eContent [0] EXPLICIT OCTET STRING
//	        },
//	        ...
//	    }
//	}
//
// Signatures and certificates are not examined. Input that already starts
// with a SET is returned as is. The result aliases buf unless the OCTET
// STRING was split into constructed chunks.
func Payload(buf []byte) ([]byte, error) {
	if len(buf) == 0 {
		return nil, ErrEmptyReceipt
	}
	c := ber.NewCursor(buf)
	h, info, err := c.ReadElement()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotPKCS7, err)
	}
	if h.Universal(ber.TagSet) && h.Constructed && !h.Indefinite {
		return buf[:c.Offset()], nil
	}
	if !h.Universal(ber.TagSequence) || !h.Constructed {
		return nil, fmt.Errorf("%w: outer %s tag %d", ErrNotPKCS7, h.Class, h.Tag)
	}

	if err := expectOID(&info, oidSignedData); err != nil {
		return nil, fmt.Errorf("%w: content type: %w", ErrNotPKCS7, err)
	}
	signed, err := enterExplicit(&info, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: signed data: %w", ErrNotPKCS7, err)
	}
	signed, err = enter(&signed, ber.TagSequence)
	if err != nil {
		return nil, fmt.Errorf("%w: signed data: %w", ErrNotPKCS7, err)
	}
	if _, err := signed.ReadInteger(); err != nil {
		return nil, fmt.Errorf("%w: signed data version: %w", ErrNotPKCS7, err)
	}
	if _, err := enter(&signed, ber.TagSet); err != nil {
		return nil, fmt.Errorf("%w: digest algorithms: %w", ErrNotPKCS7, err)
	}

	encap, err := enter(&signed, ber.TagSequence)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoPayload, err)
	}
	if err := expectOID(&encap, oidData); err != nil {
		return nil, fmt.Errorf("%w: content type: %w", ErrNoPayload, err)
	}
	if encap.Done() || encap.AtEndOfContents() {
		return nil, ErrNoPayload
	}
	content, err := enterExplicit(&encap, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoPayload, err)
	}
	payload, err := readOctetString(&content, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoPayload, err)
	}
	return payload, nil
}

func enter(c *ber.Cursor, tag int) (ber.Cursor, error) {
	h, inner, err := c.ReadElement()
	if err != nil {
		return ber.Cursor{}, err
	}
	if !h.Universal(tag) || !h.Constructed {
		return ber.Cursor{}, fmt.Errorf("expected universal %d, got %s %d", tag, h.Class, h.Tag)
	}
	return inner, nil
}

func enterExplicit(c *ber.Cursor, tag int) (ber.Cursor, error) {
	h, inner, err := c.ReadElement()
	if err != nil {
		return ber.Cursor{}, err
	}
	if !h.Is(ber.ClassContextSpecific, tag) || !h.Constructed {
		return ber.Cursor{}, fmt.Errorf("expected [%d], got %s %d", tag, h.Class, h.Tag)
	}
	return inner, nil
}

func expectOID(c *ber.Cursor, want []byte) error {
	h, inner, err := c.ReadElement()
	if err != nil {
		return err
	}
	if !h.Universal(ber.TagOID) || h.Constructed {
		return fmt.Errorf("expected object identifier, got %s %d", h.Class, h.Tag)
	}
	if !bytes.Equal(inner.Bytes(), want) {
		return fmt.Errorf("unexpected object identifier % x", inner.Bytes())
	}
	return nil
}

// maxChunkDepth bounds how deeply constructed OCTET STRING chunks may nest.
const maxChunkDepth = 8

// readOctetString returns the content of a primitive OCTET STRING without
// copying, or the concatenated chunks of a constructed one.
func readOctetString(c *ber.Cursor, depth int) ([]byte, error) {
	if depth > maxChunkDepth {
		return nil, fmt.Errorf("octet string chunks nested deeper than %d", maxChunkDepth)
	}
	h, inner, err := c.ReadElement()
	if err != nil {
		return nil, err
	}
	if !h.Universal(ber.TagOctetString) {
		return nil, fmt.Errorf("expected octet string, got %s %d", h.Class, h.Tag)
	}
	if !h.Constructed {
		return inner.Bytes(), nil
	}

	var chunks [][]byte
	for !inner.Done() && !inner.AtEndOfContents() {
		chunk, err := readOctetString(&inner, depth+1)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	switch len(chunks) {
	case 0:
		return nil, nil
	case 1:
		return chunks[0], nil
	default:
		return bytes.Join(chunks, nil), nil
	}
}
