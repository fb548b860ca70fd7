package receipt

import (
	"errors"

	"github.com/danmuck/receiptkit/internal/protocol/ber"
)

var (
	ErrEmptyReceipt      = errors.New("receipt: empty input")
	ErrNotPKCS7          = errors.New("receipt: not a PKCS#7 signed-data container")
	ErrNoPayload         = errors.New("receipt: signed data carries no receipt payload")
	ErrNotAttributeSet   = errors.New("receipt: payload is not an attribute set")
	ErrAttributeOverrun  = errors.New("receipt: attribute value runs past its record")
	ErrReceiptTooLarge   = errors.New("receipt: input exceeds size limit")
	ErrUnsupportedFormat = errors.New("receipt: unsupported output format")
)

var receiptKinds = []struct {
	err  error
	kind string
}{
	{ErrEmptyReceipt, "empty_receipt"},
	{ErrNotPKCS7, "not_pkcs7"},
	{ErrNoPayload, "no_payload"},
	{ErrNotAttributeSet, "not_attribute_set"},
	{ErrAttributeOverrun, "attribute_overrun"},
	{ErrReceiptTooLarge, "receipt_too_large"},
	{ErrUnsupportedFormat, "unsupported_format"},
}

// ErrorKind labels err by the first receipt sentinel it wraps, falling back
// to the decoder's labels and then "unknown".
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range receiptKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	if kind := ber.ErrorKind(err); kind != "" {
		return kind
	}
	return "unknown"
}
