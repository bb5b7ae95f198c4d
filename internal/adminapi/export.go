package adminapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"

	"github.com/talkincode/toughstore/internal/catalog"
	"github.com/talkincode/toughstore/internal/domain"
	"github.com/talkincode/toughstore/internal/webserver"
)

// catalogRow is the flat export shape: one row per variant.
type catalogRow struct {
	ProductID    int64  `csv:"product_id"`
	ProductName  string `csv:"product_name"`
	Category     string `csv:"category"`
	IsVisible    bool   `csv:"is_visible"`
	Sku          string `csv:"sku"`
	VariantType  string `csv:"variant_type"`
	VariantValue string `csv:"variant_value"`
	Price        int64  `csv:"price"`
	Quantity     int64  `csv:"quantity"`
}

// registerExportRoutes registers catalog import/export endpoints
func registerExportRoutes() {
	webserver.ApiGET("/catalog/export/csv", exportCatalogCSV)
	webserver.ApiGET("/catalog/export/xlsx", exportCatalogXLSX)
	webserver.ApiPOST("/catalog/import/csv", importCatalogCSV)
}

func loadCatalogRows(c echo.Context) ([]catalogRow, error) {
	var products []domain.Product
	err := GetDB(c).Preload("Variants").Order("name ASC").Find(&products).Error
	if err != nil {
		return nil, err
	}
	var rows []catalogRow
	for _, p := range products {
		category := ""
		if p.Category != nil {
			category = *p.Category
		}
		for _, v := range catalog.SortVariants(p.Variants) {
			rows = append(rows, catalogRow{
				ProductID:    p.ID,
				ProductName:  p.Name,
				Category:     category,
				IsVisible:    p.IsVisible,
				Sku:          v.Sku,
				VariantType:  v.VariantType,
				VariantValue: v.VariantValue,
				Price:        v.Price,
				Quantity:     v.Quantity,
			})
		}
	}
	return rows, nil
}

func exportCatalogCSV(c echo.Context) error {
	rows, err := loadCatalogRows(c)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to load catalog", err.Error())
	}
	filename := fmt.Sprintf("catalog-%s.csv", time.Now().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	c.Response().WriteHeader(http.StatusOK)
	return gocsv.Marshal(&rows, c.Response())
}

func exportCatalogXLSX(c echo.Context) error {
	rows, err := loadCatalogRows(c)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "STORE_ERROR", "Failed to load catalog", err.Error())
	}
	const sheet = "Sheet1"
	xlsx := excelize.NewFile()
	headers := []string{"product_id", "product_name", "category", "is_visible",
		"sku", "variant_type", "variant_value", "price", "quantity"}
	for i, h := range headers {
		xlsx.SetCellValue(sheet, fmt.Sprintf("%c1", 'A'+i), h)
	}
	for i, row := range rows {
		r := i + 2
		xlsx.SetCellValue(sheet, fmt.Sprintf("A%d", r), row.ProductID)
		xlsx.SetCellValue(sheet, fmt.Sprintf("B%d", r), row.ProductName)
		xlsx.SetCellValue(sheet, fmt.Sprintf("C%d", r), row.Category)
		xlsx.SetCellValue(sheet, fmt.Sprintf("D%d", r), row.IsVisible)
		xlsx.SetCellValue(sheet, fmt.Sprintf("E%d", r), row.Sku)
		xlsx.SetCellValue(sheet, fmt.Sprintf("F%d", r), row.VariantType)
		xlsx.SetCellValue(sheet, fmt.Sprintf("G%d", r), row.VariantValue)
		xlsx.SetCellValue(sheet, fmt.Sprintf("H%d", r), row.Price)
		xlsx.SetCellValue(sheet, fmt.Sprintf("I%d", r), row.Quantity)
	}
	filename := fmt.Sprintf("catalog-%s.xlsx", time.Now().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentType,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	c.Response().WriteHeader(http.StatusOK)
	return xlsx.Write(c.Response())
}

// importRow is the accepted import shape. The product is created on
// its first occurrence; every row adds one variant.
type importRow struct {
	ProductName  string `csv:"product_name"`
	Description  string `csv:"description"`
	Category     string `csv:"category"`
	Sku          string `csv:"sku"`
	VariantType  string `csv:"variant_type"`
	VariantValue string `csv:"variant_value"`
	Price        int64  `csv:"price"`
	Quantity     int64  `csv:"quantity"`
}

func importCatalogCSV(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Missing upload file", nil)
	}
	src, err := file.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to open upload", err.Error())
	}
	defer src.Close()

	var rows []importRow
	if err := gocsv.Unmarshal(src, &rows); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse csv", err.Error())
	}

	ctx := c.Request().Context()
	svc := service()
	actor := actorID(c)
	created := map[string]int64{}
	var imported, failed int
	var errs []string
	for i, row := range rows {
		productID, known := created[row.ProductName]
		if !known {
			p, err := svc.CreateProduct(ctx, actor, catalog.ProductInput{
				Name:        row.ProductName,
				Description: row.Description,
				Category:    row.Category,
			})
			if err != nil {
				failed++
				errs = append(errs, fmt.Sprintf("row %d: %s", i+1, err.Error()))
				continue
			}
			productID = p.ID
			created[row.ProductName] = productID
		}
		if row.VariantType == "" {
			imported++
			continue
		}
		_, err := svc.CreateVariant(ctx, actor, productID, catalog.VariantInput{
			Sku:          row.Sku,
			VariantType:  row.VariantType,
			VariantValue: row.VariantValue,
			Price:        row.Price,
			Quantity:     row.Quantity,
		})
		if err != nil {
			failed++
			errs = append(errs, fmt.Sprintf("row %d: %s", i+1, err.Error()))
			continue
		}
		imported++
	}

	oprLog(c, "import_catalog", fmt.Sprintf("imported %d rows (%d failed)", imported, failed))
	return ok(c, map[string]interface{}{
		"imported": imported,
		"failed":   failed,
		"errors":   errs,
	})
}
