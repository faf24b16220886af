package http

import (
	"errors"
	"net/http"
	"strconv"

	"golang-insider-scanner/internal/scheduler/dto"
	"golang-insider-scanner/internal/scheduler/service"
	"golang-insider-scanner/pkg/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// ExecutionHistoryHandler handles HTTP requests for job run history.
type ExecutionHistoryHandler struct {
	historyService service.ExecutionHistoryService
	jobName        string
	logger         *logger.Logger
}

// NewExecutionHistoryHandler creates a new ExecutionHistoryHandler.
func NewExecutionHistoryHandler(historyService service.ExecutionHistoryService, jobName string, logger *logger.Logger) *ExecutionHistoryHandler {
	return &ExecutionHistoryHandler{historyService: historyService, jobName: jobName, logger: logger}
}

// RegisterRoutes registers the health and run history routes.
func (h *ExecutionHistoryHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	runs := e.Group("/api/v1/runs")
	runs.GET("", h.GetRuns)
	runs.GET("/:id", h.GetRunByID)
}

// Health reports that the process is serving.
func (h *ExecutionHistoryHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Job: h.jobName})
}

// GetRuns lists recent runs. Query params: job, limit.
func (h *ExecutionHistoryHandler) GetRuns(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid limit"})
		}
		limit = v
	}

	runs, err := h.historyService.GetRuns(c.Request().Context(), c.QueryParam("job"), limit)
	if err != nil {
		h.logger.Error("Failed to get job runs", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get job runs"})
	}
	return c.JSON(http.StatusOK, runs)
}

// GetRunByID returns a single run by run id.
func (h *ExecutionHistoryHandler) GetRunByID(c echo.Context) error {
	run, err := h.historyService.GetRunByID(c.Request().Context(), c.Param("id"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Run not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, run)
}
