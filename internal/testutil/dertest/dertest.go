// Package dertest builds synthetic DER receipts for tests.
package dertest

import (
	encasn1 "encoding/asn1"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

var (
	OIDData       = encasn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 1}
	OIDSignedData = encasn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 2}
	OIDSHA256     = encasn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1}
)

// Attr is one receipt attribute; Value is the DER element stored in its
// OCTET STRING.
type Attr struct {
	Type    int64
	Version int64
	Value   []byte
}

func build(fn func(b *cryptobyte.Builder)) []byte {
	var b cryptobyte.Builder
	fn(&b)
	return b.BytesOrPanic()
}

// Int encodes an INTEGER element.
func Int(v int64) []byte {
	return build(func(b *cryptobyte.Builder) { b.AddASN1Int64(v) })
}

// UTF8 encodes a UTF8String element.
func UTF8(s string) []byte {
	return build(func(b *cryptobyte.Builder) {
		b.AddASN1(cbasn1.UTF8String, func(b *cryptobyte.Builder) { b.AddBytes([]byte(s)) })
	})
}

// IA5 encodes an IA5String element.
func IA5(s string) []byte {
	return build(func(b *cryptobyte.Builder) {
		b.AddASN1(cbasn1.IA5String, func(b *cryptobyte.Builder) { b.AddBytes([]byte(s)) })
	})
}

// Bool encodes a BOOLEAN element.
func Bool(v bool) []byte {
	return build(func(b *cryptobyte.Builder) { b.AddASN1Boolean(v) })
}

// Octets encodes an OCTET STRING element.
func Octets(p []byte) []byte {
	return build(func(b *cryptobyte.Builder) { b.AddASN1OctetString(p) })
}

// Attribute encodes SEQUENCE { type INTEGER, version INTEGER, value OCTET STRING }.
func Attribute(a Attr) []byte {
	return build(func(b *cryptobyte.Builder) {
		b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1Int64(a.Type)
			b.AddASN1Int64(a.Version)
			b.AddASN1OctetString(a.Value)
		})
	})
}

// Sequence wraps raw content bytes in a SEQUENCE header.
func Sequence(content ...[]byte) []byte {
	return wrap(cbasn1.SEQUENCE, content...)
}

// Set wraps raw content bytes in a SET header.
func Set(content ...[]byte) []byte {
	return wrap(cbasn1.SET, content...)
}

func wrap(tag cbasn1.Tag, content ...[]byte) []byte {
	return build(func(b *cryptobyte.Builder) {
		b.AddASN1(tag, func(b *cryptobyte.Builder) {
			for _, c := range content {
				b.AddBytes(c)
			}
		})
	})
}

// Payload encodes the receipt attribute SET.
func Payload(attrs ...Attr) []byte {
	parts := make([][]byte, 0, len(attrs))
	for _, a := range attrs {
		parts = append(parts, Attribute(a))
	}
	return Set(parts...)
}

// PKCS7 wraps payload in a definite-length SignedData ContentInfo with an
// empty signer set.
func PKCS7(payload []byte) []byte {
	return build(func(b *cryptobyte.Builder) {
		b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(OIDSignedData)
			b.AddASN1(cbasn1.Tag(0).ContextSpecific().Constructed(), func(b *cryptobyte.Builder) {
				b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
					b.AddASN1Int64(1)
					b.AddASN1(cbasn1.SET, func(b *cryptobyte.Builder) {
						b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
							b.AddASN1ObjectIdentifier(OIDSHA256)
							b.AddASN1NULL()
						})
					})
					b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
						b.AddASN1ObjectIdentifier(OIDData)
						b.AddASN1(cbasn1.Tag(0).ContextSpecific().Constructed(), func(b *cryptobyte.Builder) {
							b.AddASN1OctetString(payload)
						})
					})
					b.AddASN1(cbasn1.SET, func(b *cryptobyte.Builder) {})
				})
			})
		})
	})
}

// PKCS7Indefinite wraps payload the way Apple's signer does: indefinite
// lengths on the outer structures and the content split into constructed
// OCTET STRING chunks of at most chunk bytes.
func PKCS7Indefinite(payload []byte, chunk int) []byte {
	if chunk <= 0 {
		chunk = len(payload)
	}
	var chunks []byte
	for off := 0; off < len(payload); off += chunk {
		end := min(off+chunk, len(payload))
		chunks = append(chunks, Octets(payload[off:end])...)
	}

	oid := func(o encasn1.ObjectIdentifier) []byte {
		return build(func(b *cryptobyte.Builder) { b.AddASN1ObjectIdentifier(o) })
	}
	digestAlgs := Set(Sequence(oid(OIDSHA256), []byte{0x05, 0x00}))

	out := []byte{0x30, 0x80}
	out = append(out, oid(OIDSignedData)...)
	out = append(out, 0xA0, 0x80, 0x30, 0x80)
	out = append(out, Int(1)...)
	out = append(out, digestAlgs...)
	out = append(out, 0x30, 0x80)
	out = append(out, oid(OIDData)...)
	out = append(out, 0xA0, 0x80, 0x24, 0x80)
	out = append(out, chunks...)
	out = append(out, 0x00, 0x00) // octet string
	out = append(out, 0x00, 0x00) // [0] eContent
	out = append(out, 0x00, 0x00) // encapContentInfo
	out = append(out, Set()...)
	out = append(out, 0x00, 0x00) // SignedData
	out = append(out, 0x00, 0x00) // [0] content
	out = append(out, 0x00, 0x00) // ContentInfo
	return out
}
