package receipt

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/danmuck/receiptkit/internal/observability"
	"github.com/danmuck/receiptkit/internal/protocol/ber"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultMaxBytes caps receipt input read from files and requests.
const DefaultMaxBytes int64 = 4 << 20

// Receipt is the decoded App Store receipt.
type Receipt struct {
	BundleID           string          `json:"bundle_id,omitempty" yaml:"bundle_id,omitempty"`
	AppVersion         string          `json:"application_version,omitempty" yaml:"application_version,omitempty"`
	OriginalAppVersion string          `json:"original_application_version,omitempty" yaml:"original_application_version,omitempty"`
	Opaque             []byte          `json:"opaque,omitempty" yaml:"opaque,omitempty"`
	SHA1Hash           []byte          `json:"sha1_hash,omitempty" yaml:"sha1_hash,omitempty"`
	CreationDate       *time.Time      `json:"creation_date,omitempty" yaml:"creation_date,omitempty"`
	ExpirationDate     *time.Time      `json:"expiration_date,omitempty" yaml:"expiration_date,omitempty"`
	InApp              []Purchase      `json:"in_app,omitempty" yaml:"in_app,omitempty"`
	Skipped            int             `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Attributes         []ber.Attribute `json:"-" yaml:"-"`
}

// Purchase is one in-app purchase record (attribute 17).
type Purchase struct {
	Quantity              int64           `json:"quantity" yaml:"quantity"`
	ProductID             string          `json:"product_id,omitempty" yaml:"product_id,omitempty"`
	TransactionID         string          `json:"transaction_id,omitempty" yaml:"transaction_id,omitempty"`
	OriginalTransactionID string          `json:"original_transaction_id,omitempty" yaml:"original_transaction_id,omitempty"`
	PurchaseDate          *time.Time      `json:"purchase_date,omitempty" yaml:"purchase_date,omitempty"`
	OriginalPurchaseDate  *time.Time      `json:"original_purchase_date,omitempty" yaml:"original_purchase_date,omitempty"`
	ExpiresDate           *time.Time      `json:"expires_date,omitempty" yaml:"expires_date,omitempty"`
	CancellationDate      *time.Time      `json:"cancellation_date,omitempty" yaml:"cancellation_date,omitempty"`
	WebOrderLineItemID    int64           `json:"web_order_line_item_id,omitempty" yaml:"web_order_line_item_id,omitempty"`
	IntroOfferPeriod      bool            `json:"is_in_intro_offer_period" yaml:"is_in_intro_offer_period"`
	Attributes            []ber.Attribute `json:"-" yaml:"-"`
}

// Parser turns receipt bytes into a Receipt.
//
// By default a record that fails to decode, or a field whose value has the
// wrong shape, is logged and skipped so the rest of the receipt survives.
// Strict turns both into errors and also rejects records whose value runs
// past the record's own length.
type Parser struct {
	Strict      bool
	SkipUnknown bool
	Metrics     bool
	Logger      *zerolog.Logger
}

func (p *Parser) log() *zerolog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return &log.Logger
}

// Parse decodes a PKCS#7 receipt, or a bare attribute SET.
func (p *Parser) Parse(buf []byte) (*Receipt, error) {
	start := time.Now()
	r, err := p.parse(buf)
	if p.Metrics {
		observability.RecordReceipt(err == nil, time.Since(start))
		if err != nil {
			observability.RecordDecodeError(ErrorKind(err))
		}
	}
	if err != nil {
		return nil, err
	}
	p.log().Debug().
		Str("bundle_id", r.BundleID).
		Int("attributes", len(r.Attributes)).
		Int("in_app", len(r.InApp)).
		Int("skipped", r.Skipped).
		Dur("duration", time.Since(start)).
		Msg("receipt parsed")
	return r, nil
}

func (p *Parser) parse(buf []byte) (*Receipt, error) {
	payload, err := Payload(buf)
	if err != nil {
		return nil, err
	}
	attrs, skipped, err := p.Attributes(payload)
	if err != nil {
		return nil, err
	}

	r := &Receipt{Attributes: attrs, Skipped: skipped}
	for _, a := range attrs {
		if err := p.applyReceipt(r, a); err != nil {
			if p.Strict {
				return nil, err
			}
			p.skip(a.Offset, err)
			r.Skipped++
		}
	}
	return r, nil
}

// Attributes decodes every record of an attribute SET. It returns the
// decoded records and the number of records skipped.
func (p *Parser) Attributes(set []byte) ([]ber.Attribute, int, error) {
	c := ber.NewCursor(set)
	h, body, err := c.ReadElement()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrNotAttributeSet, err)
	}
	if !h.Universal(ber.TagSet) || !h.Constructed {
		return nil, 0, fmt.Errorf("%w: got %s tag %d", ErrNotAttributeSet, h.Class, h.Tag)
	}

	var (
		attrs   []ber.Attribute
		skipped int
	)
	for !body.Done() && !body.AtEndOfContents() {
		start := body.Offset()
		rec, _, err := body.ReadElement()
		if err != nil {
			return nil, skipped, fmt.Errorf("receipt: record at offset %d: %w", start, err)
		}
		if rec.Indefinite {
			return nil, skipped, fmt.Errorf("receipt: record at offset %d: %w", start, ber.ErrMalformedHeader)
		}
		end := body.Offset()

		a, _, err := ber.DecodeAttribute(set, start, end)
		if err == nil && a.End > end {
			err = fmt.Errorf("%w: record at offset %d ends at %d, value at %d",
				ErrAttributeOverrun, start, end, a.End)
			if !p.Strict {
				p.log().Debug().Int("offset", start).Int("type", a.Type).Msg("attribute value past record end")
				err = nil
				if skip := min(a.End, body.Limit()) - end; skip > 0 {
					_ = body.Advance(skip)
				}
			}
		}
		if err != nil {
			if p.Strict {
				return nil, skipped, err
			}
			p.skip(start, err)
			skipped++
			continue
		}

		typ := AttributeType(a.Type)
		if p.SkipUnknown && !typ.Known() {
			continue
		}
		if p.Metrics {
			observability.RecordAttribute(typ.String())
		}
		attrs = append(attrs, a)
	}
	return attrs, skipped, nil
}

func (p *Parser) skip(offset int, err error) {
	kind := ErrorKind(err)
	if p.Metrics {
		observability.RecordDecodeError(kind)
	}
	p.log().Warn().Int("offset", offset).Str("kind", kind).Err(err).Msg("skipping receipt attribute")
}

func (p *Parser) applyReceipt(r *Receipt, a ber.Attribute) error {
	var err error
	switch AttributeType(a.Type) {
	case TypeBundleID:
		r.BundleID, err = p.text(a)
	case TypeAppVersion:
		r.AppVersion, err = p.text(a)
	case TypeOriginalAppVersion:
		r.OriginalAppVersion, err = p.text(a)
	case TypeOpaque:
		r.Opaque = a.Payload
	case TypeSHA1Hash:
		r.SHA1Hash = a.Payload
	case TypeCreationDate:
		r.CreationDate, err = date(a)
	case TypeExpirationDate:
		r.ExpirationDate, err = date(a)
	case TypeInAppPurchase:
		var purchase Purchase
		purchase, err = p.parsePurchase(a)
		if err == nil {
			r.InApp = append(r.InApp, purchase)
		}
	}
	return err
}

func (p *Parser) parsePurchase(a ber.Attribute) (Purchase, error) {
	attrs, skipped, err := p.Attributes(a.Payload)
	if err != nil {
		return Purchase{}, fmt.Errorf("receipt: in-app record at offset %d: %w", a.Offset, err)
	}
	if skipped > 0 {
		p.log().Warn().Int("offset", a.Offset).Int("skipped", skipped).Msg("in-app record had undecodable fields")
	}

	out := Purchase{Attributes: attrs}
	for _, f := range attrs {
		var err error
		switch AttributeType(f.Type) {
		case TypeQuantity:
			out.Quantity, err = integer(f)
		case TypeProductID:
			out.ProductID, err = p.text(f)
		case TypeTransactionID:
			out.TransactionID, err = p.text(f)
		case TypeOriginalTransactionID:
			out.OriginalTransactionID, err = p.text(f)
		case TypePurchaseDate:
			out.PurchaseDate, err = date(f)
		case TypeOriginalPurchaseDate:
			out.OriginalPurchaseDate, err = date(f)
		case TypeSubscriptionExpirationDate:
			out.ExpiresDate, err = date(f)
		case TypeCancellationDate:
			out.CancellationDate, err = date(f)
		case TypeWebOrderLineItemID:
			out.WebOrderLineItemID, err = integer(f)
		case TypeSubscriptionIntroductoryPeriod:
			var n int64
			n, err = integer(f)
			out.IntroOfferPeriod = n != 0
		default:
			if !AttributeType(f.Type).IsPurchaseField() {
				p.log().Debug().Int("offset", f.Offset).Int("type", f.Type).Msg("non-purchase field in in-app record")
			}
		}
		if err != nil {
			if p.Strict {
				return Purchase{}, err
			}
			p.skip(f.Offset, err)
		}
	}
	return out, nil
}

func (p *Parser) text(a ber.Attribute) (string, error) {
	s, ok, _, err := ber.DecodeString(a.Payload, 0, len(a.Payload))
	if err != nil {
		return "", fmt.Errorf("receipt: %s: %w", AttributeType(a.Type), err)
	}
	if !ok && p.Strict {
		return "", fmt.Errorf("receipt: %s: %w", AttributeType(a.Type), ber.ErrUnsupportedStringType)
	}
	return s, nil
}

// date tolerates empty and unparsable dates: Apple writes an empty string for
// dates that do not apply.
func date(a ber.Attribute) (*time.Time, error) {
	t, ok, _, err := ber.DecodeTimestamp(a.Payload, 0, len(a.Payload))
	if err != nil {
		return nil, fmt.Errorf("receipt: %s: %w", AttributeType(a.Type), err)
	}
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func integer(a ber.Attribute) (int64, error) {
	n, _, err := ber.DecodeIntegerElement(a.Payload, 0, len(a.Payload))
	if err != nil {
		return 0, fmt.Errorf("receipt: %s: %w", AttributeType(a.Type), err)
	}
	return n, nil
}

// ReadLimited reads all of r, failing with ErrReceiptTooLarge past maxBytes.
func ReadLimited(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, ErrReceiptTooLarge
	}
	return data, nil
}

// ParseFile reads and parses the receipt at path.
func (p *Parser) ParseFile(path string, maxBytes int64) (*Receipt, error) {
	data, err := ReadFile(path, maxBytes)
	if err != nil {
		return nil, err
	}
	return p.Parse(data)
}

// ReadFile reads the receipt at path with the same size cap as ReadLimited.
func ReadFile(path string, maxBytes int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("receipt: open %s: %w", path, err)
	}
	defer f.Close()
	data, err := ReadLimited(f, maxBytes)
	if err != nil {
		return nil, fmt.Errorf("receipt: read %s: %w", path, err)
	}
	return data, nil
}
