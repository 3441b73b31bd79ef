package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/trocly/troc-server/internal/api"
	"github.com/trocly/troc-server/internal/config"
	"github.com/trocly/troc-server/internal/repository"
	"github.com/trocly/troc-server/internal/service"
	"github.com/trocly/troc-server/internal/utils"
)

func main() {
	utils.SetupLogger()

	// Load configuration
	cfg := config.LoadConfig()

	// Select the repository adapter. Business logic only ever sees the
	// repository.Repository interface.
	var repo repository.Repository
	switch cfg.Market.StoreDriver {
	case "memory":
		logrus.Warn("using in-memory store, data will not survive restarts")
		repo = repository.NewMemoryRepository()
	default:
		db, err := config.SetupDatabase(cfg)
		if err != nil {
			logrus.WithError(err).Fatal("failed to set up database")
		}
		defer db.Close()
		repo = repository.NewPostgresRepository(db)
	}

	// Create service
	svc := service.NewDefaultService(repo, service.Config{
		JWTSecret:        cfg.Auth.JWTSecret,
		MarketDomain:     cfg.Market.Domain,
		CommissionRate:   cfg.Market.CommissionRate,
		SignupTokenGrant: cfg.Market.SignupTokenGrant,
	})

	// Create API handler
	handler := api.NewHandler(svc)

	// Set up Gin router
	router := gin.Default()

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	logrus.WithFields(logrus.Fields{
		"addr":   serverAddr,
		"domain": cfg.Market.Domain,
		"store":  cfg.Market.StoreDriver,
	}).Info("starting server")
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		logrus.WithError(err).Fatal("failed to start server")
	}
}
