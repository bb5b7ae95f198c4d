package adminapi

import (
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/montanaflynn/stats"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"

	"github.com/talkincode/toughstore/internal/domain"
	"github.com/talkincode/toughstore/internal/webserver"
	"github.com/talkincode/toughstore/pkg/metrics"
)

// registerDashboardRoutes registers admin dashboard endpoints
func registerDashboardRoutes() {
	webserver.ApiGET("/dashboard/catalog", catalogStats)
	webserver.ApiGET("/dashboard/serverinfo", serverInfo)
	webserver.ApiGET("/dashboard/activity", activityStats)
}

// catalogStats summarizes the catalog: counts, stock totals and price
// distribution over all variants.
func catalogStats(c echo.Context) error {
	db := GetDB(c)

	var productCount, variantCount, categoryCount, hiddenCount int64
	db.Model(&domain.Product{}).Count(&productCount)
	db.Model(&domain.ProductVariant{}).Count(&variantCount)
	db.Model(&domain.Category{}).Count(&categoryCount)
	db.Model(&domain.Product{}).Where("is_visible = ?", false).Count(&hiddenCount)

	var stockTotal int64
	db.Model(&domain.ProductVariant{}).Select("COALESCE(SUM(quantity), 0)").Scan(&stockTotal)

	var outOfStock int64
	db.Model(&domain.ProductVariant{}).Where("quantity = 0").Count(&outOfStock)

	var prices []float64
	db.Model(&domain.ProductVariant{}).Pluck("price", &prices)

	priceStats := map[string]interface{}{}
	if len(prices) > 0 {
		mean, _ := stats.Mean(prices)
		median, _ := stats.Median(prices)
		max, _ := stats.Max(prices)
		min, _ := stats.Min(prices)
		stddev, _ := stats.StandardDeviation(prices)
		priceStats = map[string]interface{}{
			"mean":   mean,
			"median": median,
			"max":    max,
			"min":    min,
			"stddev": stddev,
		}
	}

	return ok(c, map[string]interface{}{
		"products":     productCount,
		"variants":     variantCount,
		"categories":   categoryCount,
		"hidden":       hiddenCount,
		"stock_total":  stockTotal,
		"out_of_stock": outOfStock,
		"price_stats":  priceStats,
	})
}

// serverInfo reports host level resource usage.
func serverInfo(c echo.Context) error {
	info := map[string]interface{}{
		"go_version": runtime.Version(),
		"goroutines": runtime.NumGoroutine(),
	}
	if hi, err := host.Info(); err == nil {
		info["hostname"] = hi.Hostname
		info["os"] = hi.OS
		info["platform"] = hi.Platform
		info["uptime"] = hi.Uptime
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info["mem_total"] = vm.Total
		info["mem_used_percent"] = vm.UsedPercent
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		info["cpu_percent"] = percents[0]
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"code": "OK", "data": info})
}

// activityStats reports catalog mutation counters from the local
// time-series store over the trailing day and hour.
func activityStats(c echo.Context) error {
	names := []string{
		"catalog_product_create", "catalog_product_update", "catalog_product_delete",
		"catalog_variant_create", "catalog_variant_update", "catalog_variant_delete",
		"catalog_category_create", "catalog_category_delete",
		"store_status_update",
	}
	hour := map[string]float64{}
	day := map[string]float64{}
	for _, name := range names {
		hour[name] = metrics.SumSince(name, time.Hour)
		day[name] = metrics.SumSince(name, 24*time.Hour)
	}
	return ok(c, map[string]interface{}{
		"last_hour": hour,
		"last_day":  day,
	})
}
