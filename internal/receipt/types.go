package receipt

import "strconv"

// AttributeType is the type code of a receipt or in-app purchase attribute.
type AttributeType int

// Receipt fields.
const (
	TypeBundleID           AttributeType = 2
	TypeAppVersion         AttributeType = 3
	TypeOpaque             AttributeType = 4
	TypeSHA1Hash           AttributeType = 5
	TypeCreationDate       AttributeType = 12
	TypeInAppPurchase      AttributeType = 17
	TypeOriginalAppVersion AttributeType = 19
	TypeExpirationDate     AttributeType = 21
)

// In-app purchase fields.
const (
	TypeQuantity                       AttributeType = 1701
	TypeProductID                      AttributeType = 1702
	TypeTransactionID                  AttributeType = 1703
	TypePurchaseDate                   AttributeType = 1704
	TypeOriginalTransactionID          AttributeType = 1705
	TypeOriginalPurchaseDate           AttributeType = 1706
	TypeSubscriptionExpirationDate     AttributeType = 1708
	TypeWebOrderLineItemID             AttributeType = 1711
	TypeCancellationDate               AttributeType = 1712
	TypeSubscriptionIntroductoryPeriod AttributeType = 1719
)

var typeNames = map[AttributeType]string{
	TypeBundleID:                       "bundle_id",
	TypeAppVersion:                     "app_version",
	TypeOpaque:                         "opaque",
	TypeSHA1Hash:                       "sha1_hash",
	TypeCreationDate:                   "creation_date",
	TypeInAppPurchase:                  "in_app",
	TypeOriginalAppVersion:             "original_app_version",
	TypeExpirationDate:                 "expiration_date",
	TypeQuantity:                       "quantity",
	TypeProductID:                      "product_id",
	TypeTransactionID:                  "transaction_id",
	TypePurchaseDate:                   "purchase_date",
	TypeOriginalTransactionID:          "original_transaction_id",
	TypeOriginalPurchaseDate:           "original_purchase_date",
	TypeSubscriptionExpirationDate:     "expires_date",
	TypeWebOrderLineItemID:             "web_order_line_item_id",
	TypeCancellationDate:               "cancellation_date",
	TypeSubscriptionIntroductoryPeriod: "is_in_intro_offer_period",
}

// Known reports whether t is in the attribute table.
func (t AttributeType) Known() bool {
	_, ok := typeNames[t]
	return ok
}

// IsPurchaseField reports whether t belongs to the in-app purchase range.
func (t AttributeType) IsPurchaseField() bool {
	return t >= 1700 && t < 1800
}

func (t AttributeType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "type_" + strconv.Itoa(int(t))
}
