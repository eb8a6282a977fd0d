package handlers

import (
	"context"
	"net/http"
	"time"

	"infrascore/models"
	"infrascore/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SummariesHandler struct {
	db    *gorm.DB
	cache *services.CacheService
}

func NewSummariesHandler(db *gorm.DB, cache *services.CacheService) *SummariesHandler {
	return &SummariesHandler{db: db, cache: cache}
}

// regionPayload mirrors the exported dashboard artifact shape.
type regionPayload struct {
	Metrics       [3]float64 `json:"metrics"`
	CriticalCount int        `json:"critical_count"`
	TopFactorLine string     `json:"top_factor_line"`
	Alert         gin.H      `json:"alert"`
}

// GetSummaries returns the latest run's region rollups keyed by region name.
func (h *SummariesHandler) GetSummaries(c *gin.Context) {
	const cacheKey = "summaries:latest"

	var cached gin.H
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached["data"] != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	var latest *time.Time
	if err := h.db.Model(&models.RegionMetrics{}).Select("MAX(as_of)").Scan(&latest).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}
	if latest == nil {
		c.JSON(http.StatusOK, gin.H{"data": gin.H{}})
		return
	}

	var rows []models.RegionMetrics
	if err := h.db.Where("as_of = ?", *latest).Order("region").Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	regions := make(map[string]regionPayload, len(rows))
	for _, r := range rows {
		regions[r.Region] = toPayload(r)
	}

	resp := gin.H{"as_of": *latest, "data": regions}
	go h.cache.Set(context.Background(), cacheKey, resp, 30*time.Second)

	c.JSON(http.StatusOK, resp)
}

// GetRegionSummary returns the most recent rollup for one region.
func (h *SummariesHandler) GetRegionSummary(c *gin.Context) {
	region := c.Param("region")

	var row models.RegionMetrics
	err := h.db.Where("region = ?", region).Order("as_of DESC").First(&row).Error
	if err == gorm.ErrRecordNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown region"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"as_of": row.AsOf, "region": row.Region, "data": toPayload(row)})
}

func toPayload(r models.RegionMetrics) regionPayload {
	return regionPayload{
		Metrics:       [3]float64{r.AvgProbabilityPct, r.ExpectedCost, r.AvgImpact},
		CriticalCount: r.CriticalCount,
		TopFactorLine: r.TopFactorLine,
		Alert:         gin.H{"title": r.AlertTitle, "description": r.AlertDescription},
	}
}
