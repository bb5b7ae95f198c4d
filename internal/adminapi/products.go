package adminapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/labstack/echo/v4"

	"github.com/talkincode/toughstore/internal/catalog"
	"github.com/talkincode/toughstore/internal/webserver"
)

type productPayload struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"omitempty,max=1000"`
	Category    string `json:"category" validate:"omitempty,max=120"`
	IsVisible   *bool  `json:"is_visible"`
	ImageURL    string `json:"image_url" validate:"omitempty,max=1024"`
}

type productUpdatePayload struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Category    *string `json:"category" validate:"omitempty,max=120"`
	IsVisible   *bool   `json:"is_visible"`
	ImageURL    *string `json:"image_url" validate:"omitempty,max=1024"`
}

// registerProductRoutes registers product CRUD endpoints
func registerProductRoutes() {
	webserver.ApiGET("/catalog/products", listProducts)
	webserver.ApiGET("/catalog/products/:id", getProduct)
	webserver.ApiPOST("/catalog/products", createProduct)
	webserver.ApiPUT("/catalog/products/:id", updateProduct)
	webserver.ApiDELETE("/catalog/products/:id", deleteProduct)
}

func listProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)

	// Sorting: whitelist allowed columns to avoid SQL injection
	order := strings.ToUpper(strings.TrimSpace(c.QueryParam("order")))
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	allowed := map[string]string{
		"id":           "id",
		"name":         "name",
		"category":     "category",
		"last_updated": "last_updated",
	}
	sortCol, okCol := allowed[strings.TrimSpace(c.QueryParam("sort"))]
	if !okCol {
		sortCol = "last_updated"
	}

	filter := catalog.ProductFilter{
		Query:    c.QueryParam("q"),
		Category: c.QueryParam("category"),
		OrderBy:  sortCol + " " + order,
		Page:     page,
		PageSize: pageSize,
	}
	if since := strings.TrimSpace(c.QueryParam("updated_since")); since != "" {
		ts, err := dateparse.ParseAny(since)
		if err != nil {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse updated_since", nil)
		}
		filter.UpdatedSince = &ts
	}

	rows, total, err := service().ListProducts(c.Request().Context(), filter)
	if err != nil {
		return failService(c, err)
	}
	return paged(c, rows, total, page, pageSize)
}

func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	p, err := service().GetProduct(c.Request().Context(), id)
	if err != nil {
		return failService(c, err)
	}
	return ok(c, p)
}

func createProduct(c echo.Context) error {
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	p, err := service().CreateProduct(c.Request().Context(), actorID(c), catalog.ProductInput{
		Name:        payload.Name,
		Description: payload.Description,
		Category:    payload.Category,
		IsVisible:   payload.IsVisible,
		ImageURL:    payload.ImageURL,
	})
	if err != nil {
		return failService(c, err)
	}
	oprLog(c, "create_product", fmt.Sprintf("created product %d (%s)", p.ID, p.Name))
	return ok(c, p)
}

func updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var payload productUpdatePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	p, err := service().UpdateProduct(c.Request().Context(), actorID(c), id, catalog.ProductUpdate{
		Name:        payload.Name,
		Description: payload.Description,
		Category:    payload.Category,
		IsVisible:   payload.IsVisible,
		ImageURL:    payload.ImageURL,
	})
	if err != nil {
		return failService(c, err)
	}
	oprLog(c, "update_product", fmt.Sprintf("updated product %d", id))
	return ok(c, p)
}

func deleteProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	if err := service().DeleteProduct(c.Request().Context(), actorID(c), id); err != nil {
		return failService(c, err)
	}
	oprLog(c, "delete_product", fmt.Sprintf("deleted product %d at %s", id, time.Now().Format(time.RFC3339)))
	return ok(c, map[string]interface{}{"id": id})
}
