package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/talkincode/toughstore/internal/domain"
	"github.com/talkincode/toughstore/pkg/common"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "catalog.db") + "?_busy_timeout=10000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrator().AutoMigrate(domain.Tables...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedOperator(t *testing.T, db *gorm.DB, status string) int64 {
	t.Helper()
	opr := domain.SysOpr{
		ID:       common.UUIDint64(),
		Username: fmt.Sprintf("opr-%d", common.UUIDint64()),
		Level:    "admin",
		Status:   status,
	}
	if err := db.Create(&opr).Error; err != nil {
		t.Fatalf("seed operator: %v", err)
	}
	return opr.ID
}

// recordingBus captures publishes for assertions.
type recordingBus struct {
	mu     sync.Mutex
	topics []string
}

func (b *recordingBus) Publish(topic string, payload map[string]interface{}) {
	b.mu.Lock()
	b.topics = append(b.topics, topic)
	b.mu.Unlock()
}

func newTestService(t *testing.T) (*Service, *gorm.DB, int64) {
	t.Helper()
	db := openTestDB(t)
	svc, err := NewService(db, "TSK", nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	admin := seedOperator(t, db, common.ENABLED)
	return svc, db, admin
}

func TestCreateProductProvisionsDefaultVariant(t *testing.T) {
	svc, db, admin := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, admin, ProductInput{Name: "Arabica Beans"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if len(p.Variants) != 1 {
		t.Fatalf("variants = %d, want 1", len(p.Variants))
	}
	v := p.Variants[0]
	if v.VariantType != domain.VariantTypePcs || v.VariantValue != domain.DefaultVariantValue {
		t.Fatalf("default variant = %s/%s, want pcs/default", v.VariantType, v.VariantValue)
	}
	if v.Price != 0 || v.Quantity != 0 {
		t.Fatalf("default variant price/qty = %d/%d, want 0/0", v.Price, v.Quantity)
	}
	if v.Sku != "TSK-0001" {
		t.Fatalf("sku = %q, want TSK-0001", v.Sku)
	}

	var count int64
	db.Model(&domain.ProductVariant{}).Where("product_id = ?", p.ID).Count(&count)
	if count != 1 {
		t.Fatalf("stored variants = %d, want 1", count)
	}
}

func TestCreateProductRequiresAdmin(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	disabled := seedOperator(t, db, common.DISABLED)

	for _, actor := range []int64{disabled, 424242} {
		_, err := svc.CreateProduct(ctx, actor, ProductInput{Name: "Denied"})
		if !IsKind(err, KindNotAuthorized) {
			t.Fatalf("actor %d: err = %v, want not_authorized", actor, err)
		}
	}

	// Nothing may be written when authorization fails.
	var products, variants int64
	db.Model(&domain.Product{}).Count(&products)
	db.Model(&domain.ProductVariant{}).Count(&variants)
	if products != 0 || variants != 0 {
		t.Fatalf("rows after denied create = %d/%d, want 0/0", products, variants)
	}
}

func TestCreateProductValidation(t *testing.T) {
	svc, _, admin := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   ProductInput
	}{
		{"empty name", ProductInput{Name: "   "}},
		{"bad image scheme", ProductInput{Name: "x", ImageURL: "ftp://img/x.png"}},
		{"not a url", ProductInput{Name: "x", ImageURL: "not a url"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateProduct(ctx, admin, tt.in); !IsKind(err, KindValidation) {
				t.Fatalf("err = %v, want validation", err)
			}
		})
	}
}

func TestCreateProductUnknownCategory(t *testing.T) {
	svc, _, admin := newTestService(t)
	_, err := svc.CreateProduct(context.Background(), admin,
		ProductInput{Name: "Orphan", Category: "missing"})
	if !IsKind(err, KindNotFound) {
		t.Fatalf("err = %v, want not_found", err)
	}
}

func TestCategoryNormalization(t *testing.T) {
	svc, _, admin := newTestService(t)
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, admin, CategoryInput{Name: "  Coffee "})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	if cat.Name != "coffee" {
		t.Fatalf("category name = %q, want coffee", cat.Name)
	}

	// Any casing of an existing name resolves to the same category.
	p, err := svc.CreateProduct(ctx, admin, ProductInput{Name: "Blend", Category: "COFFEE"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if p.Category == nil || *p.Category != "coffee" {
		t.Fatalf("product category = %v, want coffee", p.Category)
	}

	// An empty category is stored as null, never "".
	p2, err := svc.CreateProduct(ctx, admin, ProductInput{Name: "Loose", Category: "  "})
	if err != nil {
		t.Fatalf("create uncategorized product: %v", err)
	}
	if p2.Category != nil {
		t.Fatalf("category = %v, want nil", p2.Category)
	}

	if _, err := svc.CreateCategory(ctx, admin, CategoryInput{Name: "Coffee"}); !IsKind(err, KindUniqueness) {
		t.Fatalf("duplicate category err = %v, want uniqueness", err)
	}
}

func TestDeleteCategoryDetachesProducts(t *testing.T) {
	svc, db, admin := newTestService(t)
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, admin, CategoryInput{Name: "tea"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	p, err := svc.CreateProduct(ctx, admin, ProductInput{Name: "Sencha", Category: "tea"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	if err := svc.DeleteCategory(ctx, admin, cat.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}

	var reloaded domain.Product
	if err := db.First(&reloaded, p.ID).Error; err != nil {
		t.Fatalf("product was deleted with its category: %v", err)
	}
	if reloaded.Category != nil {
		t.Fatalf("category = %v, want nil after detach", reloaded.Category)
	}
}

func TestUpdateProductStampsLastUpdated(t *testing.T) {
	svc, _, admin := newTestService(t)
	ctx := context.Background()

	stamp := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	svc.now = func() time.Time { return stamp }

	p, err := svc.CreateProduct(ctx, admin, ProductInput{Name: "Clock"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	later := stamp.Add(time.Hour)
	svc.now = func() time.Time { return later }

	name := "Clock v2"
	updated, err := svc.UpdateProduct(ctx, admin, p.ID, ProductUpdate{Name: &name})
	if err != nil {
		t.Fatalf("update product: %v", err)
	}
	if !updated.LastUpdated.Equal(later) {
		t.Fatalf("last_updated = %v, want %v", updated.LastUpdated, later)
	}
	if updated.UpdatedBy != admin {
		t.Fatalf("updated_by = %d, want %d", updated.UpdatedBy, admin)
	}
}

func TestVariantUniqueness(t *testing.T) {
	svc, _, admin := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, admin, ProductInput{Name: "Beans"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	v, err := svc.CreateVariant(ctx, admin, p.ID, VariantInput{
		VariantType: domain.VariantTypeWeight, VariantValue: "500g", Price: 1200, Quantity: 5,
	})
	if err != nil {
		t.Fatalf("create variant: %v", err)
	}

	// Same (type, value) pair on the same product is rejected.
	_, err = svc.CreateVariant(ctx, admin, p.ID, VariantInput{
		VariantType: domain.VariantTypeWeight, VariantValue: "500g",
	})
	if !IsKind(err, KindUniqueness) {
		t.Fatalf("combo dup err = %v, want uniqueness", err)
	}

	// A caller supplied SKU must be globally unique.
	_, err = svc.CreateVariant(ctx, admin, p.ID, VariantInput{
		Sku: v.Sku, VariantType: domain.VariantTypeWeight, VariantValue: "1kg",
	})
	if !IsKind(err, KindUniqueness) {
		t.Fatalf("sku dup err = %v, want uniqueness", err)
	}

	// The same pair on another product is fine.
	p2, err := svc.CreateProduct(ctx, admin, ProductInput{Name: "Other Beans"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if _, err := svc.CreateVariant(ctx, admin, p2.ID, VariantInput{
		VariantType: domain.VariantTypeWeight, VariantValue: "500g",
	}); err != nil {
		t.Fatalf("same combo on other product: %v", err)
	}
}

func TestUpdateVariantPartial(t *testing.T) {
	svc, _, admin := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, admin, ProductInput{Name: "Beans"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	v := p.Variants[0]

	qty := int64(42)
	updated, err := svc.UpdateVariant(ctx, admin, v.ID, VariantUpdate{Quantity: &qty})
	if err != nil {
		t.Fatalf("update variant: %v", err)
	}
	if updated.Quantity != 42 {
		t.Fatalf("quantity = %d, want 42", updated.Quantity)
	}
	if updated.Sku != v.Sku || updated.VariantType != v.VariantType {
		t.Fatalf("untouched fields changed: %+v", updated)
	}

	neg := int64(-1)
	if _, err := svc.UpdateVariant(ctx, admin, v.ID, VariantUpdate{Quantity: &neg}); !IsKind(err, KindValidation) {
		t.Fatalf("negative quantity err = %v, want validation", err)
	}
}

func TestDeleteVariantLastGuard(t *testing.T) {
	svc, _, admin := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, admin, ProductInput{Name: "Beans"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	def := p.Variants[0]

	// The only variant can never be removed.
	if err := svc.DeleteVariant(ctx, admin, def.ID); !IsKind(err, KindInvariant) {
		t.Fatalf("last variant delete err = %v, want invariant_violation", err)
	}

	v2, err := svc.CreateVariant(ctx, admin, p.ID, VariantInput{
		VariantType: domain.VariantTypeWeight, VariantValue: "500g",
	})
	if err != nil {
		t.Fatalf("create second variant: %v", err)
	}

	if err := svc.DeleteVariant(ctx, admin, def.ID); err != nil {
		t.Fatalf("delete with sibling present: %v", err)
	}
	if err := svc.DeleteVariant(ctx, admin, v2.ID); !IsKind(err, KindInvariant) {
		t.Fatalf("new last variant delete err = %v, want invariant_violation", err)
	}

	if err := svc.DeleteVariant(ctx, admin, 987654); !IsKind(err, KindNotFound) {
		t.Fatalf("missing variant err = %v, want not_found", err)
	}
}

func TestConcurrentVariantDeletes(t *testing.T) {
	svc, db, admin := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, admin, ProductInput{Name: "Beans"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	v2, err := svc.CreateVariant(ctx, admin, p.ID, VariantInput{
		VariantType: domain.VariantTypeWeight, VariantValue: "500g",
	})
	if err != nil {
		t.Fatalf("create second variant: %v", err)
	}

	ids := []int64{p.Variants[0].ID, v2.ID}
	errs := make([]error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			errs[i] = svc.DeleteVariant(ctx, admin, id)
		}(i, id)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case IsKind(err, KindInvariant):
		default:
			t.Fatalf("unexpected err: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("succeeded deletes = %d, want exactly 1", succeeded)
	}

	var remaining int64
	db.Model(&domain.ProductVariant{}).Where("product_id = ?", p.ID).Count(&remaining)
	if remaining != 1 {
		t.Fatalf("remaining variants = %d, want 1", remaining)
	}
}

func TestGenerateSkuConcurrent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	const n = 20
	skus := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sku, err := svc.GenerateSku(ctx)
			if err != nil {
				t.Errorf("generate sku: %v", err)
				return
			}
			skus[i] = sku
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, sku := range skus {
		if sku == "" {
			t.Fatal("missing sku")
		}
		if seen[sku] {
			t.Fatalf("duplicate sku %q", sku)
		}
		seen[sku] = true
	}
}

func TestFormatSkuWidth(t *testing.T) {
	tests := []struct {
		value int64
		want  string
	}{
		{1, "TSK-0001"},
		{7, "TSK-0007"},
		{9999, "TSK-9999"},
		{10234, "TSK-10234"},
	}
	for _, tt := range tests {
		if got := FormatSku("TSK", tt.value); got != tt.want {
			t.Errorf("FormatSku(TSK, %d) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestStoreStatus(t *testing.T) {
	svc, _, admin := newTestService(t)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	if _, err := svc.SetStoreStatus(ctx, admin, true); err != nil {
		t.Fatalf("set status: %v", err)
	}

	svc.now = func() time.Time { return base.Add(time.Hour) }
	if _, err := svc.SetStoreStatus(ctx, admin, false); err != nil {
		t.Fatalf("set status: %v", err)
	}

	cur, err := svc.CurrentStoreStatus(ctx)
	if err != nil {
		t.Fatalf("current status: %v", err)
	}
	if cur.IsOpen {
		t.Fatal("current is_open = true, want latest snapshot (closed)")
	}

	if _, err := svc.SetStoreStatus(ctx, 313131, true); !IsKind(err, KindNotAuthorized) {
		t.Fatalf("non-admin status err = %v, want not_authorized", err)
	}
}

func TestListProducts(t *testing.T) {
	svc, _, admin := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateCategory(ctx, admin, CategoryInput{Name: "coffee"}); err != nil {
		t.Fatalf("create category: %v", err)
	}
	hidden := false
	seeds := []ProductInput{
		{Name: "Dark Roast", Category: "coffee"},
		{Name: "Light Roast", Category: "coffee"},
		{Name: "Secret Blend", IsVisible: &hidden},
	}
	for _, in := range seeds {
		if _, err := svc.CreateProduct(ctx, admin, in); err != nil {
			t.Fatalf("seed %q: %v", in.Name, err)
		}
	}

	rows, total, err := svc.ListProducts(ctx, ProductFilter{Query: "roast"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("query match = %d/%d, want 2", total, len(rows))
	}

	_, total, err = svc.ListProducts(ctx, ProductFilter{VisibleOnly: true})
	if err != nil {
		t.Fatalf("list visible: %v", err)
	}
	if total != 2 {
		t.Fatalf("visible total = %d, want 2", total)
	}

	_, total, err = svc.ListProducts(ctx, ProductFilter{Category: "Coffee"})
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if total != 2 {
		t.Fatalf("category total = %d, want 2", total)
	}
}

func TestGetProductReturnsSortedVariants(t *testing.T) {
	svc, _, admin := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, admin, ProductInput{Name: "Beans"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	// Insert heaviest first to prove order is resolved, not stored.
	for _, value := range []string{"1kg", "250g", "500g"} {
		if _, err := svc.CreateVariant(ctx, admin, p.ID, VariantInput{
			VariantType: domain.VariantTypeWeight, VariantValue: value,
		}); err != nil {
			t.Fatalf("create variant %q: %v", value, err)
		}
	}
	if err := svc.DeleteVariant(ctx, admin, p.Variants[0].ID); err != nil {
		t.Fatalf("drop default variant: %v", err)
	}

	got, err := svc.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	want := []string{"250g", "500g", "1kg"}
	for i, v := range got.Variants {
		if v.VariantValue != want[i] {
			t.Fatalf("variant order = %v, want %v", got.Variants, want)
		}
	}
}

func TestMutationsPublishEvents(t *testing.T) {
	db := openTestDB(t)
	bus := &recordingBus{}
	svc, err := NewService(db, "TSK", bus)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	admin := seedOperator(t, db, common.ENABLED)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, admin, ProductInput{Name: "Beans"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if _, err := svc.SetStoreStatus(ctx, admin, true); err != nil {
		t.Fatalf("set status: %v", err)
	}
	_ = p

	bus.mu.Lock()
	defer bus.mu.Unlock()
	want := []string{TopicProduct, TopicStatus}
	if len(bus.topics) != len(want) {
		t.Fatalf("published topics = %v, want %v", bus.topics, want)
	}
	for i := range want {
		if bus.topics[i] != want[i] {
			t.Fatalf("published topics = %v, want %v", bus.topics, want)
		}
	}
}
