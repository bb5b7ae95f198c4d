package storefront

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/random"
	"github.com/talkincode/toughstore/config"
	"github.com/talkincode/toughstore/internal/catalog"
	"github.com/talkincode/toughstore/internal/domain"
	"github.com/talkincode/toughstore/internal/webserver"
	"github.com/talkincode/toughstore/pkg/common"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const sessionName = "toughstore"

var (
	selections   *SelectionStore
	pricePrinter *message.Printer
	priceUnit    currency.Unit
)

// Init wires the public storefront routes. The selection store may be
// nil, in which case active variants simply follow display order.
func Init(cfg *config.AppConfig, store *SelectionStore) {
	selections = store

	tag, err := language.Parse(cfg.Store.Locale)
	if err != nil {
		tag = language.English
	}
	pricePrinter = message.NewPrinter(tag)
	priceUnit, err = currency.ParseISO(cfg.Store.Currency)
	if err != nil {
		priceUnit = currency.USD
	}

	webserver.PubGET("/products", listStoreProducts)
	webserver.PubGET("/products/:id", getStoreProduct)
	webserver.PubPOST("/products/:id/select", selectStoreVariant)
	webserver.PubGET("/status", storeStatus)
	webserver.PubGET("/categories", storeCategories)
}

// FormatPrice renders a minor-unit integer price as a localized
// currency string. Display only; the persisted value stays an integer.
func FormatPrice(price int64) string {
	return pricePrinter.Sprint(currency.Symbol(priceUnit.Amount(common.Fen2Yuan(price))))
}

type storeVariant struct {
	ID           int64  `json:"id,string"`
	Sku          string `json:"sku"`
	VariantType  string `json:"variant_type"`
	VariantValue string `json:"variant_value"`
	Price        int64  `json:"price"`
	PriceDisplay string `json:"price_display"`
	Quantity     int64  `json:"quantity"`
	InStock      bool   `json:"in_stock"`
}

type storeProduct struct {
	ID          int64          `json:"id,string"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	ImageURL    string         `json:"image_url"`
	Variants    []storeVariant `json:"variants"`
	ActiveID    int64          `json:"active_variant_id,string"`
}

func sessionID(c echo.Context) string {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return ""
	}
	if sid, ok := sess.Values["sid"].(string); ok && sid != "" {
		return sid
	}
	sid := random.String(24)
	sess.Values["sid"] = sid
	sess.Options.MaxAge = 86400 * 30
	sess.Options.HttpOnly = true
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		zap.L().Warn("storefront: session save failed", zap.Error(err))
	}
	return sid
}

// renderProduct applies the display resolver: variants arrive sorted
// from the service; the active one is the sticky session selection if
// it still exists, otherwise the first of the sorted sequence.
func renderProduct(p *domain.Product, sid string) storeProduct {
	selected := int64(0)
	if selections != nil && sid != "" {
		selected = selections.Get(sid, p.ID)
	}
	active := catalog.ActiveVariant(p.Variants, selected)

	out := storeProduct{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    p.ImageURL,
	}
	if p.Category != nil {
		out.Category = *p.Category
	}
	if active != nil {
		out.ActiveID = active.ID
	}
	for _, v := range p.Variants {
		out.Variants = append(out.Variants, storeVariant{
			ID:           v.ID,
			Sku:          v.Sku,
			VariantType:  v.VariantType,
			VariantValue: v.VariantValue,
			Price:        v.Price,
			PriceDisplay: FormatPrice(v.Price),
			Quantity:     v.Quantity,
			InStock:      v.Quantity > 0,
		})
	}
	return out
}

func listStoreProducts(c echo.Context) error {
	page := 1
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	filter := catalog.ProductFilter{
		Query:       c.QueryParam("q"),
		Category:    c.QueryParam("category"),
		VisibleOnly: true,
		OrderBy:     "name ASC",
		Page:        page,
		PageSize:    24,
	}
	products, total, err := webserver.Catalog().ListProducts(c.Request().Context(), filter)
	if err != nil {
		return webserver.ServerError(c, "Failed to load products")
	}
	sid := sessionID(c)
	items := make([]storeProduct, 0, len(products))
	for i := range products {
		items = append(items, renderProduct(&products[i], sid))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code":  "OK",
		"data":  items,
		"total": total,
		"page":  page,
	})
}

func getStoreProduct(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"code": "INVALID_ID", "msg": "Invalid product ID",
		})
	}
	p, err := webserver.Catalog().GetProduct(c.Request().Context(), id)
	if err != nil || !p.IsVisible {
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"code": "NOT_FOUND", "msg": "Product not found",
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code": "OK",
		"data": renderProduct(p, sessionID(c)),
	})
}

type selectPayload struct {
	VariantID int64 `json:"variant_id,string"`
}

// selectStoreVariant pins the session's active variant for a product.
func selectStoreVariant(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"code": "INVALID_ID", "msg": "Invalid product ID",
		})
	}
	var payload selectPayload
	if err := c.Bind(&payload); err != nil || payload.VariantID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"code": "INVALID_REQUEST", "msg": "variant_id is required",
		})
	}
	p, err := webserver.Catalog().GetProduct(c.Request().Context(), id)
	if err != nil || !p.IsVisible {
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"code": "NOT_FOUND", "msg": "Product not found",
		})
	}
	found := false
	for _, v := range p.Variants {
		if v.ID == payload.VariantID {
			found = true
			break
		}
	}
	if !found {
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"code": "NOT_FOUND", "msg": "Variant does not belong to this product",
		})
	}
	sid := sessionID(c)
	if selections != nil && sid != "" {
		if err := selections.Set(sid, id, payload.VariantID); err != nil {
			zap.L().Warn("storefront: selection save failed", zap.Error(err))
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code": "OK",
		"data": renderProduct(p, sid),
	})
}

func storeStatus(c echo.Context) error {
	status, err := webserver.Catalog().CurrentStoreStatus(c.Request().Context())
	if err != nil {
		// No snapshot yet: report closed rather than failing the page.
		return c.JSON(http.StatusOK, map[string]interface{}{
			"code": "OK",
			"data": map[string]interface{}{"is_open": false},
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code": "OK",
		"data": map[string]interface{}{
			"is_open":    status.IsOpen,
			"updated_at": status.UpdatedAt,
		},
	})
}

func storeCategories(c echo.Context) error {
	categories, err := webserver.Catalog().ListCategories(c.Request().Context())
	if err != nil {
		return webserver.ServerError(c, "Failed to load categories")
	}
	names := make([]string, 0, len(categories))
	for _, cat := range categories {
		names = append(names, cat.Name)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"code": "OK",
		"data": names,
	})
}
