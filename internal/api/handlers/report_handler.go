package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/demand-planner/internal/domain"
	"github.com/andresuchdata/demand-planner/internal/service"
)

type ReportHandler struct {
	service *service.ReportService
}

func NewReportHandler(service *service.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// GetStockReport answers the full routed stock-health report. An optional
// target_days query replaces every location's configured target.
func (h *ReportHandler) GetStockReport(c *gin.Context) {
	target, ok := parseTargetDays(c)
	if !ok {
		return
	}

	report, err := h.service.GetStockReport(c.Request.Context(), target)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetReplenishmentPlan answers the stock report filtered to rows that need
// replenishment to reach the target days of cover.
func (h *ReportHandler) GetReplenishmentPlan(c *gin.Context) {
	target, ok := parseTargetDays(c)
	if !ok {
		return
	}

	report, err := h.service.GetStockReport(c.Request.Context(), target)
	if err != nil {
		serviceError(c, err)
		return
	}

	plan := &domain.StockReport{
		WindowDays:  report.WindowDays,
		GeneratedAt: report.GeneratedAt,
		Fleet:       filterNeedy(report.Fleet),
	}
	for _, loc := range report.Locations {
		items := filterNeedy(loc.Items)
		if len(items) == 0 {
			continue
		}
		loc.Items = items
		plan.Locations = append(plan.Locations, loc)
	}

	c.JSON(http.StatusOK, plan)
}

func (h *ReportHandler) Refresh(c *gin.Context) {
	if err := h.service.Refresh(c.Request.Context()); err != nil {
		serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refreshed": true})
}

func parseTargetDays(c *gin.Context) (float64, bool) {
	raw := c.Query("target_days")
	if raw == "" {
		return 0, true
	}
	target, err := strconv.ParseFloat(raw, 64)
	if err != nil || target <= 0 {
		errorResponse(c, http.StatusBadRequest, "invalid target_days, expected a positive number")
		return 0, false
	}
	return target, true
}

func filterNeedy(items []domain.SKUStockStatus) []domain.SKUStockStatus {
	out := make([]domain.SKUStockStatus, 0, len(items))
	for _, item := range items {
		if item.ReplenishmentNeeded > 0 {
			out = append(out, item)
		}
	}
	return out
}
