// Package ber decodes the subset of ASN.1 BER/DER needed to walk an App Store
// receipt: TLV headers, INTEGER, OCTET STRING, UTF8String and IA5String
// content, and the receipt attribute record
//
//	ReceiptAttribute ::= SEQUENCE {
//	    type    INTEGER,
//	    version INTEGER,
//	    value   OCTET STRING
//	}
//
// Every entry point takes the buffer, an offset and a bound, and returns the
// offset following what it consumed. Nothing reads outside [offset, bound)
// except the attribute value, whose limit is described on DecodeAttribute.
// Decoded strings and octets are copies; the buffer is never retained.
//
// Cursor wraps the same functions for callers that prefer to walk a buffer
// with a single moving position.
package ber
