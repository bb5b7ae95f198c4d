package adminapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/talkincode/toughstore/internal/catalog"
	"github.com/talkincode/toughstore/internal/webserver"
)

type variantPayload struct {
	Sku          string `json:"sku" validate:"omitempty,max=64"`
	VariantType  string `json:"variant_type" validate:"required,oneof=weight pcs price flavor size"`
	VariantValue string `json:"variant_value" validate:"required,min=1,max=120"`
	Price        int64  `json:"price" validate:"min=0"`
	Quantity     int64  `json:"quantity" validate:"min=0"`
}

type variantUpdatePayload struct {
	Sku          *string `json:"sku" validate:"omitempty,min=1,max=64"`
	VariantType  *string `json:"variant_type" validate:"omitempty,oneof=weight pcs price flavor size"`
	VariantValue *string `json:"variant_value" validate:"omitempty,min=1,max=120"`
	Price        *int64  `json:"price" validate:"omitempty,min=0"`
	Quantity     *int64  `json:"quantity" validate:"omitempty,min=0"`
}

// registerVariantRoutes registers variant CRUD endpoints
func registerVariantRoutes() {
	webserver.ApiGET("/catalog/products/:id/variants", listVariants)
	webserver.ApiPOST("/catalog/products/:id/variants", createVariant)
	webserver.ApiPUT("/catalog/variants/:id", updateVariant)
	webserver.ApiDELETE("/catalog/variants/:id", deleteVariant)
	webserver.ApiPOST("/catalog/sku", nextSku)
}

func listVariants(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	p, err := service().GetProduct(c.Request().Context(), id)
	if err != nil {
		return failService(c, err)
	}
	// Variants already arrive in display order.
	return ok(c, p.Variants)
}

func createVariant(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var payload variantPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse variant", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	v, err := service().CreateVariant(c.Request().Context(), actorID(c), id, catalog.VariantInput{
		Sku:          payload.Sku,
		VariantType:  payload.VariantType,
		VariantValue: payload.VariantValue,
		Price:        payload.Price,
		Quantity:     payload.Quantity,
	})
	if err != nil {
		return failService(c, err)
	}
	oprLog(c, "create_variant", fmt.Sprintf("created variant %d (%s) of product %d", v.ID, v.Sku, id))
	return ok(c, v)
}

func updateVariant(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid variant ID", nil)
	}
	var payload variantUpdatePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse variant", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	v, err := service().UpdateVariant(c.Request().Context(), actorID(c), id, catalog.VariantUpdate{
		Sku:          payload.Sku,
		VariantType:  payload.VariantType,
		VariantValue: payload.VariantValue,
		Price:        payload.Price,
		Quantity:     payload.Quantity,
	})
	if err != nil {
		return failService(c, err)
	}
	oprLog(c, "update_variant", fmt.Sprintf("updated variant %d", id))
	return ok(c, v)
}

func deleteVariant(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid variant ID", nil)
	}
	if err := service().DeleteVariant(c.Request().Context(), actorID(c), id); err != nil {
		return failService(c, err)
	}
	oprLog(c, "delete_variant", fmt.Sprintf("deleted variant %d", id))
	return ok(c, map[string]interface{}{"id": id})
}

// nextSku hands out the next generated SKU for admin forms that want
// to show it before saving.
func nextSku(c echo.Context) error {
	sku, err := service().GenerateSku(c.Request().Context())
	if err != nil {
		return failService(c, err)
	}
	return ok(c, map[string]interface{}{"sku": sku})
}
