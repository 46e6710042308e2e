package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/region-notifier/module/core/domain"
	"github.com/nandanugg/region-notifier/module/core/internal/handler/message"
	"github.com/nandanugg/region-notifier/module/core/service"
)

type trackingService interface {
	HandleFix(ctx context.Context, fix domain.Fix) (*service.Outcome, error)
}

type locationService interface {
	GetLatest(ctx context.Context) (*domain.Fix, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.Fix, error)
}

type fixResponse struct {
	Latitude  float64          `json:"latitude"`
	Longitude float64          `json:"longitude"`
	Timestamp int64            `json:"timestamp"`
	Source    domain.FixSource `json:"source"`
}

type fixResult struct {
	Index     int              `json:"index"`
	Duplicate bool             `json:"duplicate"`
	Outcome   *service.Outcome `json:"outcome,omitempty"`
	Error     string           `json:"error,omitempty"`
}

type FixHandler struct {
	trackingSvc trackingService
	locationSvc locationService
}

func NewFixHandler(trackingSvc trackingService, locationSvc locationService) *FixHandler {
	return &FixHandler{trackingSvc: trackingSvc, locationSvc: locationSvc}
}

func (h *FixHandler) Register(r *gin.RouterGroup) {
	r.POST("/fixes", h.PostFixes)
	r.GET("/fixes/latest", h.GetLatest)
	r.GET("/fixes/history", h.GetHistory)
}

// PostFixes accepts a batch of fixes delivered by the background location
// task. Pass ?source=manual for a fix entered by hand. Fixes are evaluated in
// the order given.
func (h *FixHandler) PostFixes(c *gin.Context) {
	source := domain.SourceBackground
	switch c.Query("source") {
	case "", string(domain.SourceBackground):
	case string(domain.SourceManual):
		source = domain.SourceManual
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source parameter"})
		return
	}

	var batch message.Batch
	if err := c.ShouldBindJSON(&batch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := batch.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results := make([]fixResult, len(batch.Locations))
	for i, raw := range batch.Locations {
		out, err := h.trackingSvc.HandleFix(c.Request.Context(), raw.ToDomain(source))
		results[i] = fixResult{Index: i, Duplicate: out == nil && err == nil, Outcome: out}
		if err != nil {
			results[i].Error = err.Error()
		}
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *FixHandler) GetLatest(c *gin.Context) {
	fix, err := h.locationSvc.GetLatest(c.Request.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no fix recorded"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch latest fix"})
		return
	}

	c.JSON(http.StatusOK, toFixResponse(fix))
}

// GetHistory takes start and end as unix seconds.
func (h *FixHandler) GetHistory(c *gin.Context) {
	start, err := strconv.ParseInt(c.Query("start"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start parameter"})
		return
	}

	end, err := strconv.ParseInt(c.Query("end"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end parameter"})
		return
	}
	if end < start {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end before start"})
		return
	}

	query := &domain.HistoryQuery{
		Start: time.Unix(start, 0),
		End:   time.Unix(end, 0),
	}

	fixes, err := h.locationSvc.GetHistory(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}

	results := make([]fixResponse, len(fixes))
	for i := range fixes {
		results[i] = toFixResponse(&fixes[i])
	}
	c.JSON(http.StatusOK, results)
}

func toFixResponse(f *domain.Fix) fixResponse {
	return fixResponse{
		Latitude:  f.Latitude,
		Longitude: f.Longitude,
		Timestamp: f.Timestamp.UnixMilli(),
		Source:    f.Source,
	}
}
