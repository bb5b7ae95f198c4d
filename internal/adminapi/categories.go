package adminapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/talkincode/toughstore/internal/catalog"
	"github.com/talkincode/toughstore/internal/webserver"
)

type categoryPayload struct {
	Name        string `json:"name" validate:"required,min=1,max=120"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

// registerCategoryRoutes registers category endpoints
func registerCategoryRoutes() {
	webserver.ApiGET("/catalog/categories", listCategories)
	webserver.ApiPOST("/catalog/categories", createCategory)
	webserver.ApiDELETE("/catalog/categories/:id", deleteCategory)
}

func listCategories(c echo.Context) error {
	rows, err := service().ListCategories(c.Request().Context())
	if err != nil {
		return failService(c, err)
	}
	return ok(c, rows)
}

func createCategory(c echo.Context) error {
	var payload categoryPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse category", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	cat, err := service().CreateCategory(c.Request().Context(), actorID(c), catalog.CategoryInput{
		Name:        payload.Name,
		Description: payload.Description,
	})
	if err != nil {
		return failService(c, err)
	}
	oprLog(c, "create_category", fmt.Sprintf("created category %d (%s)", cat.ID, cat.Name))
	return ok(c, cat)
}

func deleteCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid category ID", nil)
	}
	if err := service().DeleteCategory(c.Request().Context(), actorID(c), id); err != nil {
		return failService(c, err)
	}
	oprLog(c, "delete_category", fmt.Sprintf("deleted category %d", id))
	return ok(c, map[string]interface{}{"id": id})
}
