package report

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// --------------------------------------------------
// GET /api/daily-report?date=YYYY-MM-DD
// --------------------------------------------------
func (h *Handler) Daily(c *gin.Context) {
	date, err := h.service.ParseDate(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.service.Daily(c.Request.Context(), c.GetString("schoolID"), date)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// --------------------------------------------------
// GET /api/weekly-report?weeks_back=N
// --------------------------------------------------
func (h *Handler) Weekly(c *gin.Context) {
	weeksBack, ok := intQuery(c, "weeks_back", 0)
	if !ok {
		return
	}

	report, err := h.service.Weekly(c.Request.Context(), c.GetString("schoolID"), weeksBack)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// --------------------------------------------------
// GET /api/insights?days=N
// --------------------------------------------------
func (h *Handler) Insights(c *gin.Context) {
	days, ok := intQuery(c, "days", DefaultInsightDays)
	if !ok {
		return
	}

	insights, err := h.service.Insights(c.Request.Context(), c.GetString("schoolID"), days)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"insights": insights})
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, ErrInvalidWindow) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func intQuery(c *gin.Context, key string, def int) (int, bool) {
	v := c.Query(key)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": key + " must be an integer"})
		return 0, false
	}
	return n, true
}
