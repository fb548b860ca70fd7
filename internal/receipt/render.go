package receipt

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/danmuck/receiptkit/internal/protocol/ber"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// ParseFormat accepts json, yaml/yml and text/txt. Empty means text.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}

// AttributeView is the display form of one attribute record.
type AttributeView struct {
	Type    int    `json:"type" yaml:"type"`
	Name    string `json:"name" yaml:"name"`
	Version int    `json:"version" yaml:"version"`
	Kind    string `json:"kind" yaml:"kind"`
	Value   string `json:"value" yaml:"value"`
	Length  int    `json:"length" yaml:"length"`
	Offset  int    `json:"offset" yaml:"offset"`
}

// Describe decodes each attribute payload as a single element. Payloads that
// are not one well-formed element are shown as hex.
func Describe(attrs []ber.Attribute) []AttributeView {
	out := make([]AttributeView, 0, len(attrs))
	for _, a := range attrs {
		view := AttributeView{
			Type:    a.Type,
			Name:    AttributeType(a.Type).String(),
			Version: a.Version,
			Length:  a.PayloadLength,
			Offset:  a.Offset,
		}
		v, next, err := ber.DecodeValue(a.Payload, 0, len(a.Payload))
		switch {
		case err != nil || next != len(a.Payload):
			view.Kind = ber.KindRawBytes.String()
			view.Value = hex.EncodeToString(a.Payload)
		case v.Kind == ber.KindRawBytes && AttributeType(a.Type) == TypeInAppPurchase:
			view.Kind = "set"
			view.Value = fmt.Sprintf("%d bytes", len(a.Payload))
		default:
			view.Kind = v.Kind.String()
			view.Value = v.String()
		}
		out = append(out, view)
	}
	return out
}

// RenderReceipt writes r in the given format.
func RenderReceipt(w io.Writer, r *Receipt, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, r)
	case FormatYAML:
		return writeYAML(w, r)
	case FormatText:
		return writeReceiptText(w, r)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// RenderAttributes writes the attribute table in the given format.
func RenderAttributes(w io.Writer, attrs []ber.Attribute, format Format) error {
	views := Describe(attrs)
	switch format {
	case FormatJSON:
		return writeJSON(w, views)
	case FormatYAML:
		return writeYAML(w, views)
	case FormatText:
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TYPE\tNAME\tVERSION\tKIND\tLENGTH\tVALUE")
		for _, v := range views {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%d\t%s\n", v.Type, v.Name, v.Version, v.Kind, v.Length, v.Value)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeReceiptText(w io.Writer, r *Receipt) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	row := func(key, value string) {
		if value != "" {
			fmt.Fprintf(tw, "%s\t%s\n", key, value)
		}
	}
	row("bundle_id", r.BundleID)
	row("application_version", r.AppVersion)
	row("original_application_version", r.OriginalAppVersion)
	row("creation_date", formatTime(r.CreationDate))
	row("expiration_date", formatTime(r.ExpirationDate))
	row("opaque", hex.EncodeToString(r.Opaque))
	row("sha1_hash", hex.EncodeToString(r.SHA1Hash))
	for i, p := range r.InApp {
		prefix := fmt.Sprintf("in_app[%d].", i)
		row(prefix+"product_id", p.ProductID)
		row(prefix+"quantity", fmt.Sprint(p.Quantity))
		row(prefix+"transaction_id", p.TransactionID)
		row(prefix+"original_transaction_id", p.OriginalTransactionID)
		row(prefix+"purchase_date", formatTime(p.PurchaseDate))
		row(prefix+"original_purchase_date", formatTime(p.OriginalPurchaseDate))
		row(prefix+"expires_date", formatTime(p.ExpiresDate))
		row(prefix+"cancellation_date", formatTime(p.CancellationDate))
		if p.WebOrderLineItemID != 0 {
			row(prefix+"web_order_line_item_id", fmt.Sprint(p.WebOrderLineItemID))
		}
		if p.IntroOfferPeriod {
			row(prefix+"is_in_intro_offer_period", "true")
		}
	}
	if r.Skipped > 0 {
		row("skipped", fmt.Sprint(r.Skipped))
	}
	return tw.Flush()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
