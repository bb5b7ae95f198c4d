package catalog

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/talkincode/toughstore/internal/domain"
)

// Variant display resolution. Every view that lists a product's
// variants sorts them with SortVariants and picks the shown one with
// ActiveVariant, so ordering is identical everywhere and never depends
// on insertion or storage order.

var numberPattern = regexp.MustCompile(`\d+(\.\d+)?`)

// parseLeadingNumber extracts the first numeric substring of value.
func parseLeadingNumber(value string) (float64, bool) {
	m := numberPattern.FindString(value)
	if m == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseWeightGrams normalizes a weight value string to grams. The unit
// is matched by substring on the lowercased value; a bare number with
// no unit keyword is taken as grams already.
func parseWeightGrams(value string) (float64, bool) {
	s := strings.ToLower(value)
	n, ok := parseLeadingNumber(s)
	if !ok {
		return 0, false
	}
	switch {
	case strings.Contains(s, "kg"):
		return n * 1000, true
	case strings.Contains(s, "mg"):
		return n / 1000, true
	case strings.Contains(s, "lb"), strings.Contains(s, "pound"):
		return n * 453.592, true
	case strings.Contains(s, "oz"), strings.Contains(s, "ounce"):
		return n * 28.3495, true
	case strings.Contains(s, "g"):
		return n, true
	default:
		return n, true
	}
}

type variantKey struct {
	num   float64
	valid bool
}

func variantKeys(variants []domain.ProductVariant) []variantKey {
	weighted := false
	for _, v := range variants {
		if v.VariantType == domain.VariantTypeWeight {
			weighted = true
			break
		}
	}
	keys := make([]variantKey, len(variants))
	for i, v := range variants {
		if weighted {
			keys[i].num, keys[i].valid = parseWeightGrams(v.VariantValue)
		} else {
			keys[i].num, keys[i].valid = parseLeadingNumber(v.VariantValue)
		}
	}
	return keys
}

// compareVariants is the total-order comparator: numeric magnitude
// ascending, then parsed-before-unparsed, then price ascending for two
// unparsed values, then case-insensitive value comparison.
func compareVariants(a, b domain.ProductVariant, ka, kb variantKey) int {
	switch {
	case ka.valid && kb.valid && ka.num != kb.num:
		if ka.num < kb.num {
			return -1
		}
		return 1
	case ka.valid && !kb.valid:
		return -1
	case !ka.valid && kb.valid:
		return 1
	case !ka.valid && !kb.valid && a.Price != b.Price:
		if a.Price < b.Price {
			return -1
		}
		return 1
	default:
		return strings.Compare(strings.ToLower(a.VariantValue), strings.ToLower(b.VariantValue))
	}
}

// SortVariants returns a new slice with the product's variants in
// display order. The input is never modified.
func SortVariants(variants []domain.ProductVariant) []domain.ProductVariant {
	keys := variantKeys(variants)
	order := make([]int, len(variants))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		return compareVariants(variants[a], variants[b], keys[a], keys[b]) < 0
	})
	sorted := make([]domain.ProductVariant, len(variants))
	for i, idx := range order {
		sorted[i] = variants[idx]
	}
	return sorted
}

// ActiveVariant picks the variant shown by default: a previously
// selected id that still exists wins, otherwise the first of the
// sorted sequence. Returns nil for an empty set.
func ActiveVariant(sorted []domain.ProductVariant, selectedID int64) *domain.ProductVariant {
	if len(sorted) == 0 {
		return nil
	}
	if selectedID != 0 {
		for i := range sorted {
			if sorted[i].ID == selectedID {
				return &sorted[i]
			}
		}
	}
	return &sorted[0]
}
