// Package catalog implements product lookups against the storefront GraphQL
// API.
package catalog

import (
	"github.com/shopspring/decimal"
)

// TypeProduct is the __typename of product route nodes.
const TypeProduct = "Product"

// Product is a storefront product as selected by the productInfo fragment.
//
// A node tagged as Product is trusted to carry every selected field; fields
// the backend omitted are left at their zero value.
type Product struct {
	EntityID    int64
	Name        string
	Path        string
	Description string
	Brand       *Brand
	Prices      *Prices
	Images      []Image
	Variants    []Variant
	Options     []Option
	// LocaleMeta holds the locale namespace metafields. It is nil unless the
	// query ran with a locale.
	LocaleMeta []Metafield
}

// Brand identifies the product brand.
type Brand struct {
	EntityID int64
}

// Money is an amount in a given currency.
type Money struct {
	Value        decimal.Decimal
	CurrencyCode string
}

// Prices groups the product price points. SalePrice and RetailPrice are nil
// when not set in the catalog.
type Prices struct {
	Price       Money
	SalePrice   *Money
	RetailPrice *Money
}

// Image is a product or variant image.
type Image struct {
	URLOriginal string
	AltText     string
	IsDefault   bool
}

// Variant is a purchasable product variant.
type Variant struct {
	EntityID     int64
	DefaultImage *Image
}

// Option is a product option such as size or color.
type Option struct {
	TypeName    string
	EntityID    int64
	DisplayName string
	// Values is populated for multiple choice options only.
	Values []OptionValue
}

// OptionValue is one choice of a multiple choice option. IsDefault and
// HexColors are populated for swatch values only.
type OptionValue struct {
	Label     string
	IsDefault bool
	HexColors []string
}

// Metafield is a key/value pair attached to a product.
type Metafield struct {
	Key   string
	Value string
}
