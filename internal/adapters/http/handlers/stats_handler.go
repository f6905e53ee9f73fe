package handlers

import (
	"time"

	"citycare-queue/internal/core/services"
	"citycare-queue/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// StatsHandler handles the staff dashboard endpoints
type StatsHandler struct {
	statsService *services.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService *services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// Dashboard returns today's overview
// @Summary Admin dashboard
// @Description Today's queue overview across departments
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /stats/dashboard [get]
func (h *StatsHandler) Dashboard(c *fiber.Ctx) error {
	data, err := h.statsService.GetDashboard()
	if err != nil {
		return response.InternalServerError(c, "Failed to get dashboard")
	}

	return response.Success(c, "Dashboard retrieved", data)
}

// History returns a past day's department records
// @Summary Queue history
// @Description Per-department served totals for a given day (YYYY-MM-DD)
// @Tags Stats
// @Produce json
// @Security BearerAuth
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /stats/history [get]
func (h *StatsHandler) History(c *fiber.Ctx) error {
	date, err := time.ParseInLocation("2006-01-02", c.Query("date"), time.Local)
	if err != nil {
		return response.BadRequest(c, "Invalid date, expected YYYY-MM-DD")
	}

	records, err := h.statsService.GetHistory(date)
	if err != nil {
		return response.InternalServerError(c, "Failed to get history")
	}

	return response.Success(c, "History retrieved", records)
}
