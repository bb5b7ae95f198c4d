package catalog

import (
	"net/url"
	"strings"

	"github.com/talkincode/toughstore/internal/domain"
)

const (
	maxNameLen        = 200
	maxDescriptionLen = 1000
	maxCategoryLen    = 120
	maxVariantValue   = 120
	maxSkuLen         = 64
	maxImageURLLen    = 1024
)

// ProductInput is the payload for product creation.
type ProductInput struct {
	Name        string
	Description string
	Category    string
	IsVisible   *bool
	ImageURL    string
}

// ProductUpdate carries a partial product mutation; nil fields are
// left untouched.
type ProductUpdate struct {
	Name        *string
	Description *string
	Category    *string
	IsVisible   *bool
	ImageURL    *string
}

// VariantInput is the payload for variant creation.
type VariantInput struct {
	Sku          string
	VariantType  string
	VariantValue string
	Price        int64
	Quantity     int64
}

// VariantUpdate carries a partial variant mutation.
type VariantUpdate struct {
	Sku          *string
	VariantType  *string
	VariantValue *string
	Price        *int64
	Quantity     *int64
}

// CategoryInput is the payload for category creation.
type CategoryInput struct {
	Name        string
	Description string
}

// normalizeCategory lowercases and trims a category name; an empty
// result is represented as nil, never as "".
func normalizeCategory(name string) *string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return nil
	}
	return &n
}

func validateImageURL(raw string) error {
	if raw == "" {
		return nil
	}
	if len(raw) > maxImageURLLen {
		return errorf(KindValidation, "image url exceeds %d characters", maxImageURLLen)
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return errorf(KindValidation, "image url is not a valid http(s) url")
	}
	return nil
}

func validateProductName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errorf(KindValidation, "product name is required")
	}
	if len(name) > maxNameLen {
		return errorf(KindValidation, "product name exceeds %d characters", maxNameLen)
	}
	return nil
}

func validateDescription(desc string) error {
	if len(desc) > maxDescriptionLen {
		return errorf(KindValidation, "description exceeds %d characters", maxDescriptionLen)
	}
	return nil
}

func validateCategoryName(name string) error {
	if len(name) > maxCategoryLen {
		return errorf(KindValidation, "category name exceeds %d characters", maxCategoryLen)
	}
	return nil
}

func validVariantType(vt string) bool {
	for _, t := range domain.VariantTypes {
		if vt == t {
			return true
		}
	}
	return false
}

func validateVariantInput(in VariantInput) error {
	if !validVariantType(in.VariantType) {
		return errorf(KindValidation, "variant type must be one of %s",
			strings.Join(domain.VariantTypes, ", "))
	}
	if strings.TrimSpace(in.VariantValue) == "" {
		return errorf(KindValidation, "variant value is required")
	}
	if len(in.VariantValue) > maxVariantValue {
		return errorf(KindValidation, "variant value exceeds %d characters", maxVariantValue)
	}
	if len(in.Sku) > maxSkuLen {
		return errorf(KindValidation, "sku exceeds %d characters", maxSkuLen)
	}
	if in.Price < 0 {
		return errorf(KindValidation, "price must not be negative")
	}
	if in.Quantity < 0 {
		return errorf(KindValidation, "quantity must not be negative")
	}
	return nil
}
