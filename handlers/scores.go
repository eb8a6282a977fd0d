package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"infrascore/models"
	"infrascore/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ScoresHandler struct {
	db    *gorm.DB
	cache *services.CacheService
}

func NewScoresHandler(db *gorm.DB, cache *services.CacheService) *ScoresHandler {
	return &ScoresHandler{db: db, cache: cache}
}

// GetScores lists assets by descending priority for the latest run (or a
// pinned ?as_of=), cursor-paginated via ?below=<priority>.
func (h *ScoresHandler) GetScores(c *gin.Context) {
	p := ParsePagination(c)
	region := c.Query("region")

	asOf, ok := h.resolveAsOf(c)
	if !ok {
		return
	}
	if asOf == nil {
		c.JSON(http.StatusOK, CursorResponse{Data: []models.AssetScore{}})
		return
	}

	belowStr := ""
	if p.Below != nil {
		belowStr = strconv.FormatFloat(*p.Below, 'f', -1, 64)
	}
	cacheKey := fmt.Sprintf("scores:%s:%s:%d:%s", asOf.Format(time.RFC3339), region, p.Limit, belowStr)

	var cached CursorResponse
	if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil && cached.Data != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	query := h.db.Model(&models.AssetScore{}).
		Where("as_of = ?", *asOf).
		Order("priority DESC, asset_id ASC").
		Limit(p.Limit + 1)

	if p.Below != nil {
		query = query.Where("priority < ?", *p.Below)
	}
	if region != "" {
		query = query.Where("region = ?", region)
	}

	var rows []models.AssetScore
	if err := query.Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return
	}

	hasMore := len(rows) > p.Limit
	if hasMore {
		rows = rows[:p.Limit]
	}

	var nextCursor string
	if hasMore && len(rows) > 0 {
		nextCursor = strconv.FormatFloat(rows[len(rows)-1].Priority, 'f', -1, 64)
	}

	resp := CursorResponse{Data: rows, NextCursor: nextCursor, HasMore: hasMore}
	go h.cache.Set(context.Background(), cacheKey, resp, 30*time.Second)

	c.JSON(http.StatusOK, resp)
}

// resolveAsOf picks the pinned ?as_of= run or falls back to the latest one.
// The nil, true return means no runs exist yet.
func (h *ScoresHandler) resolveAsOf(c *gin.Context) (*time.Time, bool) {
	if raw := c.Query("as_of"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			if t, err = time.Parse(time.RFC3339, raw); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid as_of parameter, want YYYY-MM-DD or RFC3339"})
				return nil, false
			}
		}
		return &t, true
	}

	var latest *time.Time
	if err := h.db.Model(&models.AssetScore{}).Select("MAX(as_of)").Scan(&latest).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database query failed"})
		return nil, false
	}
	return latest, true
}
