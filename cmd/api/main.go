package main

import (
	"fmt"
	"log"

	"infrascore/config"
	"infrascore/handlers"
	"infrascore/middleware"
	"infrascore/services"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.GetDSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get sql db handle: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	cache, err := services.NewCacheService(cfg.Redis)
	if err != nil {
		// The API serves fine without Redis; reads just hit Postgres.
		log.Printf("Cache unavailable, serving uncached: %v", err)
	}
	defer cache.Close()

	router := gin.Default()
	router.Use(middleware.SetupCORS(cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "UP",
			"message": "Infrastructure Scoring API is running",
		})
	})

	scores := handlers.NewScoresHandler(db, cache)
	summaries := handlers.NewSummariesHandler(db, cache)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/scores", scores.GetScores)
		v1.GET("/summaries", summaries.GetSummaries)
		v1.GET("/summaries/:region", summaries.GetRegionSummary)
	}
	router.GET("/ws", handlers.LiveWebSocket(cache))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
