package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demand-planner/internal/domain"
	"github.com/andresuchdata/demand-planner/internal/planning/baseline"
	"github.com/andresuchdata/demand-planner/internal/service"
	"github.com/andresuchdata/demand-planner/internal/source"
)

const dateLayout = "2006-01-02"

type PlanningHandler struct {
	service *service.PlanningService
}

func NewPlanningHandler(service *service.PlanningService) *PlanningHandler {
	return &PlanningHandler{service: service}
}

func (h *PlanningHandler) GetScopes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"scopes": h.service.Scopes()})
}

func (h *PlanningHandler) GetBaseline(c *gin.Context) {
	q := baseline.Query{
		Channel:   strings.TrimSpace(c.Query("channel")),
		Country:   strings.TrimSpace(c.Query("country")),
		RingBasis: strings.TrimSpace(c.Query("ring_basis")),
	}

	var err error
	if q.Start, err = time.Parse(dateLayout, c.Query("start_date")); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid start_date, expected YYYY-MM-DD")
		return
	}
	if q.End, err = time.Parse(dateLayout, c.Query("end_date")); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid end_date, expected YYYY-MM-DD")
		return
	}

	base, err := h.service.GetBaseline(c.Request.Context(), q)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, base)
}

func (h *PlanningHandler) GetForecast(c *gin.Context) {
	channel := strings.TrimSpace(c.Query("channel"))
	if channel == "" {
		errorResponse(c, http.StatusBadRequest, "channel is required")
		return
	}
	country := strings.TrimSpace(c.Query("country"))

	view, err := h.service.GetForecast(c.Request.Context(), channel, country)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *PlanningHandler) SaveForecastConfigs(c *gin.Context) {
	var configs []domain.ForecastMonthConfig
	if err := c.ShouldBindJSON(&configs); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.service.SaveForecastConfigs(c.Request.Context(), configs); err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"saved": len(configs)})
}

func (h *PlanningHandler) GenerateForecasts(c *gin.Context) {
	channel := strings.TrimSpace(c.Query("channel"))
	if channel == "" {
		errorResponse(c, http.StatusBadRequest, "channel is required")
		return
	}
	country := strings.TrimSpace(c.Query("country"))

	view, err := h.service.GenerateForecasts(c.Request.Context(), channel, country)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *PlanningHandler) GetMaterializedForecasts(c *gin.Context) {
	channel := strings.TrimSpace(c.Query("channel"))
	if channel == "" {
		errorResponse(c, http.StatusBadRequest, "channel is required")
		return
	}
	country := strings.TrimSpace(c.Query("country"))

	rows, err := h.service.GetMaterializedForecasts(c.Request.Context(), channel, country)
	if err != nil {
		serviceError(c, err)
		return
	}
	if rows == nil {
		rows = make([]domain.MaterializedForecast, 0)
	}

	c.JSON(http.StatusOK, gin.H{"forecasts": rows})
}

func (h *PlanningHandler) GetSKUWeights(c *gin.Context) {
	channel := strings.TrimSpace(c.Query("channel"))
	if channel == "" {
		errorResponse(c, http.StatusBadRequest, "channel is required")
		return
	}
	country := strings.TrimSpace(c.Query("country"))

	result, err := h.service.GetSKUWeights(c.Request.Context(), channel, country)
	if err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"weights":        result.Weights,
		"override_total": result.OverrideTotal,
		"overallocated":  result.Overallocated,
	})
}

func (h *PlanningHandler) SaveSKUWeights(c *gin.Context) {
	channel := strings.TrimSpace(c.Query("channel"))
	if channel == "" {
		errorResponse(c, http.StatusBadRequest, "channel is required")
		return
	}
	country := strings.TrimSpace(c.Query("country"))

	var rows []domain.SKUWeight
	if err := c.ShouldBindJSON(&rows); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.service.SaveSKUWeights(c.Request.Context(), channel, country, rows); err != nil {
		serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"saved": len(rows)})
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	log.Error().Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
}

func serviceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		errorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, source.ErrUnavailable):
		errorResponse(c, http.StatusBadGateway, err.Error())
	default:
		errorResponse(c, http.StatusInternalServerError, err.Error())
	}
}
