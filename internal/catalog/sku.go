package catalog

import (
	"context"
	"fmt"

	"github.com/talkincode/toughstore/internal/domain"
	"gorm.io/gorm"
)

// skuSequenceName is the single counter row backing SKU generation.
const skuSequenceName = "catalog_sku"

// FormatSku renders a counter value as PREFIX-0007. The width grows
// past four digits without truncation.
func FormatSku(prefix string, value int64) string {
	return fmt.Sprintf("%s-%04d", prefix, value)
}

// nextSkuValue increments the shared counter and returns the new value
// in one statement, so concurrent callers can never observe the same
// value.
func nextSkuValue(tx *gorm.DB) (int64, error) {
	var value int64
	err := tx.Raw(
		"UPDATE sku_sequence SET value = value + 1 WHERE name = ? RETURNING value",
		skuSequenceName).Scan(&value).Error
	if err != nil {
		return 0, err
	}
	if value == 0 {
		return 0, errorf(KindTransient, "sku sequence %q is not seeded", skuSequenceName)
	}
	return value, nil
}

// generateSku produces the next unique SKU inside tx.
func (s *Service) generateSku(tx *gorm.DB) (string, error) {
	value, err := nextSkuValue(tx)
	if err != nil {
		return "", wrapStoreErr(err, "failed to advance sku sequence")
	}
	return FormatSku(s.skuPrefix, value), nil
}

// GenerateSku returns the next value of the shared monotonic counter.
func (s *Service) GenerateSku(ctx context.Context) (string, error) {
	var sku string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		sku, err = s.generateSku(tx)
		return err
	})
	if err != nil {
		return "", err
	}
	return sku, nil
}

// ensureSkuSequence seeds the counter row if it does not exist yet.
// The counter is never reset afterwards.
func ensureSkuSequence(db *gorm.DB) error {
	return db.Where(domain.SkuSequence{Name: skuSequenceName}).
		FirstOrCreate(&domain.SkuSequence{Name: skuSequenceName, Value: 0}).Error
}
