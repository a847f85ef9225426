package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkurata/teampulse/internal/domain"
	apperrors "github.com/mkurata/teampulse/internal/errors"
	"github.com/mkurata/teampulse/internal/service"
	"github.com/mkurata/teampulse/internal/window"
)

// Handler handles API requests
type Handler struct {
	svc *service.Service
}

// NewHandler creates a new API handler
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// HealthCheck returns service health
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// ListRuns returns recent collection runs
// GET /api/v1/runs
func (h *Handler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	runs, err := h.svc.Runs(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": runs,
	})
}

// GetReport returns the full report summary for a window
// GET /api/v1/report
func (h *Handler) GetReport(c *gin.Context) {
	win, err := parseWindow(c)
	if err != nil {
		respondError(c, err)
		return
	}

	summary, err := h.svc.Report(c.Request.Context(), win, c.Query("run"), time.Time{})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": summary,
	})
}

// GetContributor returns one contributor's summary
// GET /api/v1/report/contributors/:name
func (h *Handler) GetContributor(c *gin.Context) {
	win, err := parseWindow(c)
	if err != nil {
		respondError(c, err)
		return
	}

	summary, err := h.svc.Report(c.Request.Context(), win, c.Query("run"), time.Time{})
	if err != nil {
		respondError(c, err)
		return
	}

	name := c.Param("name")
	contributor, ok := summary.Contributors[name]
	if !ok {
		respondError(c, apperrors.NewNotFoundError("contributor "+name))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": contributor,
	})
}

// GetTeams returns the per-team roll-ups
// GET /api/v1/report/teams
func (h *Handler) GetTeams(c *gin.Context) {
	win, err := parseWindow(c)
	if err != nil {
		respondError(c, err)
		return
	}

	summary, err := h.svc.Report(c.Request.Context(), win, c.Query("run"), time.Time{})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": summary.Teams,
	})
}

// GetPerformance returns the weekly engineer breakdown for a quarter
// GET /api/v1/performance
func (h *Handler) GetPerformance(c *gin.Context) {
	year, quarter, err := parseQuarter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	series, engineers, err := h.svc.Performance(c.Request.Context(), year, quarter, c.Query("run"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"weeks":     series,
			"engineers": engineers,
		},
	})
}

// parseWindow parses the report window from query parameters. It
// accepts year+quarter, start+end dates, or nothing for the current
// quarter.
func parseWindow(c *gin.Context) (domain.TimeWindow, error) {
	if c.Query("year") != "" || c.Query("quarter") != "" {
		year, quarter, err := parseQuarter(c)
		if err != nil {
			return domain.TimeWindow{}, err
		}
		return window.FromQuarter(year, quarter)
	}

	start := c.Query("start")
	end := c.Query("end")
	if start != "" || end != "" {
		return window.FromDates(start, end)
	}

	return window.CurrentQuarter(time.Now()), nil
}

func parseQuarter(c *gin.Context) (year, quarter int, err error) {
	now := time.Now()
	year, err = strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	if err != nil {
		return 0, 0, apperrors.NewBadRequestError("year must be a number")
	}
	defaultQuarter := (int(now.Month())-1)/3 + 1
	quarter, err = strconv.Atoi(c.DefaultQuery("quarter", strconv.Itoa(defaultQuarter)))
	if err != nil {
		return 0, 0, apperrors.NewBadRequestError("quarter must be a number")
	}
	return year, quarter, nil
}

// respondError sends an error response
func respondError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case apperrors.ErrCodeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrCodeUnauthorized:
			status = http.StatusUnauthorized
		case apperrors.ErrCodeBadRequest,
			apperrors.ErrCodeInvalidQuarter,
			apperrors.ErrCodeInvalidDateFormat,
			apperrors.ErrCodeInvalidRange:
			status = http.StatusBadRequest
		case apperrors.ErrCodeRateLimited:
			status = http.StatusTooManyRequests
		case apperrors.ErrCodeDataFetch:
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrCodeInternal,
			"message": err.Error(),
		},
	})
}
