package domain

import "time"

// Variant type enumeration values persisted in product_variant.variant_type
const (
	VariantTypeWeight = "weight"
	VariantTypePcs    = "pcs"
	VariantTypePrice  = "price"
	VariantTypeFlavor = "flavor"
	VariantTypeSize   = "size"
)

// VariantTypes lists every accepted variant_type value.
var VariantTypes = []string{
	VariantTypeWeight,
	VariantTypePcs,
	VariantTypePrice,
	VariantTypeFlavor,
	VariantTypeSize,
}

// DefaultVariantValue is the placeholder value of the auto-provisioned variant.
const DefaultVariantValue = "default"

// Category groups products by a case-normalized lowercase name.
// Products reference categories by name, not by id.
type Category struct {
	ID          int64     `gorm:"primaryKey" json:"id,string" form:"id"`
	Name        string    `gorm:"uniqueIndex;size:120" json:"name" form:"name"`
	Description string    `gorm:"size:500" json:"description" form:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "category"
}

// Product is a catalog entry owning a nonempty set of variants.
// Category is nullable; an empty string is never stored.
type Product struct {
	ID          int64            `gorm:"primaryKey" json:"id,string" form:"id"`
	Name        string           `gorm:"index;size:200" json:"name" form:"name"`
	Description string           `gorm:"size:1000" json:"description" form:"description"`
	Category    *string          `gorm:"index;size:120" json:"category" form:"category"`
	IsVisible   bool             `gorm:"default:true" json:"is_visible" form:"is_visible"`
	ImageURL    string           `gorm:"size:1024" json:"image_url" form:"image_url"`
	LastUpdated time.Time        `gorm:"index" json:"last_updated"`
	UpdatedBy   int64            `json:"updated_by,string"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
}

func (Product) TableName() string {
	return "product"
}

// ProductVariant is one purchasable configuration of a product.
// (ProductID, VariantType, VariantValue) is unique per product and
// Sku is unique across the whole catalog.
type ProductVariant struct {
	ID           int64     `gorm:"primaryKey" json:"id,string" form:"id"`
	ProductID    int64     `gorm:"index;uniqueIndex:uidx_variant_combo" json:"product_id,string" form:"product_id"`
	Sku          string    `gorm:"uniqueIndex;size:64" json:"sku" form:"sku"`
	VariantType  string    `gorm:"size:16;uniqueIndex:uidx_variant_combo" json:"variant_type" form:"variant_type"`
	VariantValue string    `gorm:"size:120;uniqueIndex:uidx_variant_combo" json:"variant_value" form:"variant_value"`
	Price        int64     `json:"price"`
	Quantity     int64     `json:"quantity"`
	LastUpdated  time.Time `gorm:"index" json:"last_updated"`
	UpdatedBy    int64     `json:"updated_by,string"`
}

func (ProductVariant) TableName() string {
	return "product_variant"
}

// SkuSequence backs the monotonic SKU counter. A single named row is
// incremented atomically; values are never reused or reset.
type SkuSequence struct {
	Name  string `gorm:"primaryKey;size:32" json:"name"`
	Value int64  `json:"value"`
}

func (SkuSequence) TableName() string {
	return "sku_sequence"
}
