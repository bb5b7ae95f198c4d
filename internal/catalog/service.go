package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/talkincode/toughstore/internal/domain"
	"github.com/talkincode/toughstore/pkg/common"
	"github.com/talkincode/toughstore/pkg/metrics"
	"gorm.io/gorm"
)

// Change notification topics. Payloads are plain maps with at least
// "op" and "id"; delivery is fire-and-forget.
const (
	TopicProduct  = "catalog:product"
	TopicVariant  = "catalog:variant"
	TopicCategory = "catalog:category"
	TopicStatus   = "store:status"
)

// Publisher is the change notification channel the service emits row
// change events to after a successful mutation. The service does not
// depend on delivery.
type Publisher interface {
	Publish(topic string, payload map[string]interface{})
}

// Service enforces the catalog invariants at the data layer: every
// mutation path goes through it regardless of transport.
type Service struct {
	db        *gorm.DB
	bus       Publisher
	skuPrefix string
	now       func() time.Time
}

// NewService wires a catalog service over db. The sku sequence row is
// seeded on construction. bus may be nil.
func NewService(db *gorm.DB, skuPrefix string, bus Publisher) (*Service, error) {
	if skuPrefix == "" {
		skuPrefix = "TSK"
	}
	if err := ensureSkuSequence(db); err != nil {
		return nil, wrapStoreErr(err, "failed to seed sku sequence")
	}
	return &Service{db: db, bus: bus, skuPrefix: skuPrefix, now: time.Now}, nil
}

func (s *Service) publish(topic, op string, id int64, extra map[string]interface{}) {
	metrics.Incr(strings.ReplaceAll(topic, ":", "_") + "_" + op)
	if s.bus == nil {
		return
	}
	payload := map[string]interface{}{"op": op, "id": id}
	for k, v := range extra {
		payload[k] = v
	}
	s.bus.Publish(topic, payload)
}

// IsAdmin reports whether the actor is an enabled operator.
func (s *Service) IsAdmin(ctx context.Context, actorID int64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.SysOpr{}).
		Where("id = ? AND status = ?", actorID, common.ENABLED).
		Count(&count).Error
	if err != nil {
		return false, wrapStoreErr(err, "failed to check admin membership")
	}
	return count > 0, nil
}

func requireAdmin(tx *gorm.DB, actorID int64) error {
	var count int64
	err := tx.Model(&domain.SysOpr{}).
		Where("id = ? AND status = ?", actorID, common.ENABLED).
		Count(&count).Error
	if err != nil {
		return wrapStoreErr(err, "failed to check admin membership")
	}
	if count == 0 {
		return errorf(KindNotAuthorized, "operator %d is not authorized for catalog changes", actorID)
	}
	return nil
}

func checkCategoryExists(tx *gorm.DB, category *string) error {
	if category == nil {
		return nil
	}
	var count int64
	err := tx.Model(&domain.Category{}).Where("name = ?", *category).Count(&count).Error
	if err != nil {
		return wrapStoreErr(err, "failed to check category")
	}
	if count == 0 {
		return errorf(KindNotFound, "category %q does not exist", *category)
	}
	return nil
}

// CreateProduct validates the payload, inserts the product row and
// provisions exactly one default variant with a fresh SKU inside the
// same transaction, so no reader ever observes a variantless product.
func (s *Service) CreateProduct(ctx context.Context, actorID int64, in ProductInput) (*domain.Product, error) {
	if err := validateProductName(in.Name); err != nil {
		return nil, err
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}
	if err := validateCategoryName(in.Category); err != nil {
		return nil, err
	}
	if err := validateImageURL(strings.TrimSpace(in.ImageURL)); err != nil {
		return nil, err
	}
	category := normalizeCategory(in.Category)
	visible := true
	if in.IsVisible != nil {
		visible = *in.IsVisible
	}

	var created domain.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireAdmin(tx, actorID); err != nil {
			return err
		}
		if err := checkCategoryExists(tx, category); err != nil {
			return err
		}
		now := s.now()
		created = domain.Product{
			ID:          common.UUIDint64(),
			Name:        strings.TrimSpace(in.Name),
			Description: in.Description,
			Category:    category,
			IsVisible:   visible,
			ImageURL:    strings.TrimSpace(in.ImageURL),
			LastUpdated: now,
			UpdatedBy:   actorID,
		}
		if err := tx.Create(&created).Error; err != nil {
			return wrapStoreErr(err, "failed to create product")
		}
		sku, err := s.generateSku(tx)
		if err != nil {
			return err
		}
		def := domain.ProductVariant{
			ID:           common.UUIDint64(),
			ProductID:    created.ID,
			Sku:          sku,
			VariantType:  domain.VariantTypePcs,
			VariantValue: domain.DefaultVariantValue,
			Price:        0,
			Quantity:     0,
			LastUpdated:  now,
			UpdatedBy:    actorID,
		}
		if err := tx.Create(&def).Error; err != nil {
			return wrapStoreErr(err, "failed to create default variant")
		}
		created.Variants = []domain.ProductVariant{def}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(TopicProduct, "create", created.ID, nil)
	return &created, nil
}

// UpdateProduct applies a partial payload. last_updated is stamped
// server side and never trusted from the caller.
func (s *Service) UpdateProduct(ctx context.Context, actorID, id int64, in ProductUpdate) (*domain.Product, error) {
	updates := map[string]interface{}{}
	if in.Name != nil {
		if err := validateProductName(*in.Name); err != nil {
			return nil, err
		}
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		if err := validateDescription(*in.Description); err != nil {
			return nil, err
		}
		updates["description"] = *in.Description
	}
	var category *string
	if in.Category != nil {
		if err := validateCategoryName(*in.Category); err != nil {
			return nil, err
		}
		category = normalizeCategory(*in.Category)
		updates["category"] = category
	}
	if in.IsVisible != nil {
		updates["is_visible"] = *in.IsVisible
	}
	if in.ImageURL != nil {
		img := strings.TrimSpace(*in.ImageURL)
		if err := validateImageURL(img); err != nil {
			return nil, err
		}
		updates["image_url"] = img
	}

	var updated domain.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireAdmin(tx, actorID); err != nil {
			return err
		}
		var p domain.Product
		if err := tx.First(&p, id).Error; err != nil {
			return wrapStoreErr(err, "product not found")
		}
		if in.Category != nil {
			if err := checkCategoryExists(tx, category); err != nil {
				return err
			}
		}
		updates["last_updated"] = s.now()
		updates["updated_by"] = actorID
		if err := tx.Model(&domain.Product{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return wrapStoreErr(err, "failed to update product")
		}
		if err := tx.Preload("Variants").First(&updated, id).Error; err != nil {
			return wrapStoreErr(err, "failed to reload product")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	updated.Variants = SortVariants(updated.Variants)
	s.publish(TopicProduct, "update", id, nil)
	return &updated, nil
}

// DeleteProduct removes a product and all of its variants.
func (s *Service) DeleteProduct(ctx context.Context, actorID, id int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireAdmin(tx, actorID); err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&domain.Product{})
		if res.Error != nil {
			return wrapStoreErr(res.Error, "failed to delete product")
		}
		if res.RowsAffected == 0 {
			return errorf(KindNotFound, "product %d not found", id)
		}
		if err := tx.Where("product_id = ?", id).Delete(&domain.ProductVariant{}).Error; err != nil {
			return wrapStoreErr(err, "failed to delete product variants")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(TopicProduct, "delete", id, nil)
	return nil
}

// CreateVariant adds a variant to an existing product. The SKU is
// generated when the payload omits one.
func (s *Service) CreateVariant(ctx context.Context, actorID, productID int64, in VariantInput) (*domain.ProductVariant, error) {
	in.Sku = strings.TrimSpace(in.Sku)
	in.VariantValue = strings.TrimSpace(in.VariantValue)
	if err := validateVariantInput(in); err != nil {
		return nil, err
	}

	var created domain.ProductVariant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireAdmin(tx, actorID); err != nil {
			return err
		}
		var p domain.Product
		if err := tx.First(&p, productID).Error; err != nil {
			return wrapStoreErr(err, "product not found")
		}
		var dup int64
		err := tx.Model(&domain.ProductVariant{}).
			Where("product_id = ? AND variant_type = ? AND variant_value = ?",
				productID, in.VariantType, in.VariantValue).
			Count(&dup).Error
		if err != nil {
			return wrapStoreErr(err, "failed to check variant combination")
		}
		if dup > 0 {
			return errorf(KindUniqueness, "variant %s/%s already exists for this product",
				in.VariantType, in.VariantValue)
		}
		sku := in.Sku
		if sku == "" {
			sku, err = s.generateSku(tx)
			if err != nil {
				return err
			}
		} else {
			var skuDup int64
			if err := tx.Model(&domain.ProductVariant{}).Where("sku = ?", sku).Count(&skuDup).Error; err != nil {
				return wrapStoreErr(err, "failed to check sku")
			}
			if skuDup > 0 {
				return errorf(KindUniqueness, "sku %q already exists", sku)
			}
		}
		created = domain.ProductVariant{
			ID:           common.UUIDint64(),
			ProductID:    productID,
			Sku:          sku,
			VariantType:  in.VariantType,
			VariantValue: in.VariantValue,
			Price:        in.Price,
			Quantity:     in.Quantity,
			LastUpdated:  s.now(),
			UpdatedBy:    actorID,
		}
		if err := tx.Create(&created).Error; err != nil {
			return wrapStoreErr(err, "failed to create variant")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(TopicVariant, "create", created.ID,
		map[string]interface{}{"product_id": productID, "quantity": created.Quantity, "sku": created.Sku})
	return &created, nil
}

// UpdateVariant applies a partial payload and stamps last_updated.
func (s *Service) UpdateVariant(ctx context.Context, actorID, id int64, in VariantUpdate) (*domain.ProductVariant, error) {
	var updated domain.ProductVariant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireAdmin(tx, actorID); err != nil {
			return err
		}
		var v domain.ProductVariant
		if err := tx.First(&v, id).Error; err != nil {
			return wrapStoreErr(err, "variant not found")
		}
		merged := VariantInput{
			Sku:          v.Sku,
			VariantType:  v.VariantType,
			VariantValue: v.VariantValue,
			Price:        v.Price,
			Quantity:     v.Quantity,
		}
		if in.Sku != nil {
			merged.Sku = strings.TrimSpace(*in.Sku)
			if merged.Sku == "" {
				return errorf(KindValidation, "sku must not be empty")
			}
		}
		if in.VariantType != nil {
			merged.VariantType = *in.VariantType
		}
		if in.VariantValue != nil {
			merged.VariantValue = strings.TrimSpace(*in.VariantValue)
		}
		if in.Price != nil {
			merged.Price = *in.Price
		}
		if in.Quantity != nil {
			merged.Quantity = *in.Quantity
		}
		if err := validateVariantInput(merged); err != nil {
			return err
		}
		var dup int64
		err := tx.Model(&domain.ProductVariant{}).
			Where("product_id = ? AND variant_type = ? AND variant_value = ? AND id <> ?",
				v.ProductID, merged.VariantType, merged.VariantValue, id).
			Count(&dup).Error
		if err != nil {
			return wrapStoreErr(err, "failed to check variant combination")
		}
		if dup > 0 {
			return errorf(KindUniqueness, "variant %s/%s already exists for this product",
				merged.VariantType, merged.VariantValue)
		}
		if merged.Sku != v.Sku {
			var skuDup int64
			if err := tx.Model(&domain.ProductVariant{}).
				Where("sku = ? AND id <> ?", merged.Sku, id).Count(&skuDup).Error; err != nil {
				return wrapStoreErr(err, "failed to check sku")
			}
			if skuDup > 0 {
				return errorf(KindUniqueness, "sku %q already exists", merged.Sku)
			}
		}
		updates := map[string]interface{}{
			"sku":           merged.Sku,
			"variant_type":  merged.VariantType,
			"variant_value": merged.VariantValue,
			"price":         merged.Price,
			"quantity":      merged.Quantity,
			"last_updated":  s.now(),
			"updated_by":    actorID,
		}
		if err := tx.Model(&domain.ProductVariant{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return wrapStoreErr(err, "failed to update variant")
		}
		return tx.First(&updated, id).Error
	})
	if err != nil {
		return nil, err
	}
	s.publish(TopicVariant, "update", id,
		map[string]interface{}{"product_id": updated.ProductID, "quantity": updated.Quantity, "sku": updated.Sku})
	return &updated, nil
}

// DeleteVariant removes a variant unless it is the product's last one.
// The remaining-count check and the delete run as a single conditional
// statement, so two concurrent deletes on a two-variant product cannot
// both succeed.
func (s *Service) DeleteVariant(ctx context.Context, actorID, id int64) error {
	var productID int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireAdmin(tx, actorID); err != nil {
			return err
		}
		var v domain.ProductVariant
		if err := tx.First(&v, id).Error; err != nil {
			return wrapStoreErr(err, "variant not found")
		}
		productID = v.ProductID
		res := tx.Exec(
			"DELETE FROM product_variant WHERE id = ? AND "+
				"(SELECT COUNT(*) FROM product_variant WHERE product_id = ?) > 1",
			id, v.ProductID)
		if res.Error != nil {
			return wrapStoreErr(res.Error, "failed to delete variant")
		}
		if res.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&domain.ProductVariant{}).Where("id = ?", id).Count(&exists).Error; err != nil {
				return wrapStoreErr(err, "failed to recheck variant")
			}
			if exists == 0 {
				return errorf(KindNotFound, "variant %d not found", id)
			}
			return errorf(KindInvariant, "a product must have at least one variant")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(TopicVariant, "delete", id, map[string]interface{}{"product_id": productID})
	return nil
}

// CreateCategory inserts a category with a case-normalized name.
func (s *Service) CreateCategory(ctx context.Context, actorID int64, in CategoryInput) (*domain.Category, error) {
	name := normalizeCategory(in.Name)
	if name == nil {
		return nil, errorf(KindValidation, "category name is required")
	}
	if err := validateCategoryName(*name); err != nil {
		return nil, err
	}
	if len(in.Description) > 500 {
		return nil, errorf(KindValidation, "category description exceeds 500 characters")
	}
	var created domain.Category
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireAdmin(tx, actorID); err != nil {
			return err
		}
		var dup int64
		if err := tx.Model(&domain.Category{}).Where("name = ?", *name).Count(&dup).Error; err != nil {
			return wrapStoreErr(err, "failed to check category")
		}
		if dup > 0 {
			return errorf(KindUniqueness, "category %q already exists", *name)
		}
		created = domain.Category{
			ID:          common.UUIDint64(),
			Name:        *name,
			Description: in.Description,
		}
		if err := tx.Create(&created).Error; err != nil {
			return wrapStoreErr(err, "failed to create category")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(TopicCategory, "create", created.ID, nil)
	return &created, nil
}

// DeleteCategory removes a category and nulls the reference on every
// product that points at it. Products themselves are never deleted or
// hidden.
func (s *Service) DeleteCategory(ctx context.Context, actorID, id int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireAdmin(tx, actorID); err != nil {
			return err
		}
		var cat domain.Category
		if err := tx.First(&cat, id).Error; err != nil {
			return wrapStoreErr(err, "category not found")
		}
		err := tx.Model(&domain.Product{}).Where("category = ?", cat.Name).
			Updates(map[string]interface{}{
				"category":     nil,
				"last_updated": s.now(),
				"updated_by":   actorID,
			}).Error
		if err != nil {
			return wrapStoreErr(err, "failed to detach products")
		}
		if err := tx.Delete(&domain.Category{}, id).Error; err != nil {
			return wrapStoreErr(err, "failed to delete category")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(TopicCategory, "delete", id, nil)
	return nil
}

// SetStoreStatus appends a new status snapshot. Older rows are kept;
// the latest by updated_at is the effective status.
func (s *Service) SetStoreStatus(ctx context.Context, actorID int64, isOpen bool) (*domain.StoreStatus, error) {
	var status domain.StoreStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireAdmin(tx, actorID); err != nil {
			return err
		}
		status = domain.StoreStatus{
			ID:        common.UUIDint64(),
			IsOpen:    isOpen,
			UpdatedAt: s.now(),
			UpdatedBy: actorID,
		}
		if err := tx.Create(&status).Error; err != nil {
			return wrapStoreErr(err, "failed to record store status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(TopicStatus, "update", status.ID,
		map[string]interface{}{"is_open": isOpen})
	return &status, nil
}

// CurrentStoreStatus returns the effective status snapshot.
func (s *Service) CurrentStoreStatus(ctx context.Context) (*domain.StoreStatus, error) {
	var status domain.StoreStatus
	err := s.db.WithContext(ctx).Order("updated_at DESC, id DESC").First(&status).Error
	if err != nil {
		return nil, wrapStoreErr(err, "store status not found")
	}
	return &status, nil
}

// GetProduct loads one product with its variants in display order.
func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var p domain.Product
	err := s.db.WithContext(ctx).Preload("Variants").First(&p, id).Error
	if err != nil {
		return nil, wrapStoreErr(err, "product not found")
	}
	p.Variants = SortVariants(p.Variants)
	return &p, nil
}

// ProductFilter narrows ListProducts. OrderBy must already be
// whitelisted by the caller.
type ProductFilter struct {
	Query        string
	Category     string
	VisibleOnly  bool
	UpdatedSince *time.Time
	OrderBy      string
	Page         int
	PageSize     int
}

// ListProducts returns a page of products, each with variants in
// display order.
func (s *Service) ListProducts(ctx context.Context, f ProductFilter) ([]domain.Product, int64, error) {
	db := s.db.WithContext(ctx).Model(&domain.Product{})
	if q := strings.TrimSpace(f.Query); q != "" {
		db = db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(q)+"%")
	}
	if f.Category != "" {
		db = db.Where("category = ?", strings.ToLower(strings.TrimSpace(f.Category)))
	}
	if f.VisibleOnly {
		db = db.Where("is_visible = ?", true)
	}
	if f.UpdatedSince != nil {
		db = db.Where("last_updated >= ?", *f.UpdatedSince)
	}
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, wrapStoreErr(err, "failed to count products")
	}
	orderBy := f.OrderBy
	if orderBy == "" {
		orderBy = "last_updated DESC"
	}
	page, pageSize := f.Page, f.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	var products []domain.Product
	err := db.Preload("Variants").Order(orderBy).
		Offset((page - 1) * pageSize).Limit(pageSize).Find(&products).Error
	if err != nil {
		return nil, 0, wrapStoreErr(err, "failed to query products")
	}
	for i := range products {
		products[i].Variants = SortVariants(products[i].Variants)
	}
	return products, total, nil
}

// ListCategories returns all categories ordered by name.
func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	if err != nil {
		return nil, wrapStoreErr(err, "failed to query categories")
	}
	return categories, nil
}
