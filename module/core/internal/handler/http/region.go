package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/region-notifier/module/core/domain"
	"github.com/nandanugg/region-notifier/module/core/service"
)

type geofenceService interface {
	Regions() []domain.Region
	Status() service.Status
	Reload(regions []domain.Region) error
}

type transitionService interface {
	List(ctx context.Context, query *domain.TransitionQuery) ([]domain.Transition, error)
}

// CatalogLoader reads the region catalog from wherever it is configured.
type CatalogLoader func() ([]domain.Region, error)

type RegionHandler struct {
	geofenceSvc   geofenceService
	transitionSvc transitionService
	load          CatalogLoader
}

func NewRegionHandler(geofenceSvc geofenceService, transitionSvc transitionService, load CatalogLoader) *RegionHandler {
	return &RegionHandler{geofenceSvc: geofenceSvc, transitionSvc: transitionSvc, load: load}
}

func (h *RegionHandler) Register(r *gin.RouterGroup) {
	r.GET("/regions", h.GetRegions)
	r.POST("/regions/reload", h.Reload)
	r.GET("/status", h.GetStatus)
	r.GET("/transitions", h.GetTransitions)
}

func (h *RegionHandler) GetRegions(c *gin.Context) {
	c.JSON(http.StatusOK, h.geofenceSvc.Regions())
}

// Reload rereads the catalog and starts a new session. A bad catalog is
// rejected and the running one stays in place.
func (h *RegionHandler) Reload(c *gin.Context) {
	regions, err := h.load()
	if err == nil {
		err = h.geofenceSvc.Reload(regions)
	}
	if err != nil {
		var invalid *domain.CatalogValidationError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "catalog invalid", "problems": invalid.Problems})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load catalog"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"regions": len(regions)})
}

func (h *RegionHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.geofenceSvc.Status())
}

func (h *RegionHandler) GetTransitions(c *gin.Context) {
	query := &domain.TransitionQuery{RegionID: domain.RegionID(c.Query("region_id"))}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})
			return
		}
		query.Limit = limit
	}

	transitions, err := h.transitionSvc.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch transitions"})
		return
	}
	if transitions == nil {
		transitions = []domain.Transition{}
	}
	c.JSON(http.StatusOK, transitions)
}
