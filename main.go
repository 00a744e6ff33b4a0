package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	uuid "github.com/twinj/uuid"

	"plantdoctor/auth"
	"plantdoctor/controllers"
	"plantdoctor/middlewares"
	"plantdoctor/ml"
	"plantdoctor/models"
	"plantdoctor/services"
	"plantdoctor/utils"
)

// corsMiddleware CORS for the configured frontend origins, allowing:
// - PUT, GET, POST, PATCH and DELETE methods
// - Origin, Authorization and Content-Type headers
// - Credentials share
// - Preflight requests cached for 12 hours
func corsMiddleware(origins []string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"PUT", "GET", "POST", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// requestIDMiddleware Generate a UUID and attach it to each request
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		_uuid := uuid.NewV4()
		c.Writer.Header().Set("X-Request-Id", _uuid.String())
		c.Next()
	}
}

func main() {
	log.Info("Starting Plant Doctor API...")

	// Generate our config based on the config supplied
	// by the user in the flags
	configPath, debugMode, err := utils.ParseFlags()
	if err != nil {
		log.Fatal(err)
	}
	config, err := utils.NewConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}

	// Debug mode enables gin-gonic debug mode
	if debugMode == false {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to the database
	if err := models.ConnectDataBase(config.Database.Driver, config.Database.DSN); err != nil {
		log.Fatal(err)
	}

	// Ensure the upload root exists before serving it
	if err := os.MkdirAll(config.Uploads.Dir, 0o755); err != nil {
		log.Fatal(err)
	}

	issuer := auth.NewTokenIssuer(config.Auth.SecretKey, config.Auth.AccessTokenMinutes, config.Auth.RefreshTokenDays)
	artifacts := ml.NewStore(config.Model.Path, config.Model.LabelsPath, config.Model.MetaPath)
	scanService := &services.ScanService{
		DB:             models.DB,
		Artifacts:      artifacts,
		UploadDir:      config.Uploads.Dir,
		MaxUploadBytes: config.Uploads.MaxBytes,
	}

	r := gin.Default()

	r.Use(corsMiddleware(config.Server.CorsOrigins))
	r.Use(requestIDMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// Version tag to test against
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "v0.1.0",
		})
	})

	// Read-only access to stored uploads
	r.Static("/uploads", config.Uploads.Dir)

	api := r.Group("/api")
	v1 := api.Group("/v1")
	{
		v1.GET("/health", controllers.Health(config.App.Name, config.App.Env, artifacts))
		v1.GET("/db/health", controllers.DBHealth())

		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/register", controllers.Register())
			authRoutes.POST("/login", controllers.Login(issuer))
			authRoutes.POST("/refresh", controllers.Refresh(issuer))
			authRoutes.GET("/me", middlewares.JwtAuthMiddleware(issuer), controllers.Me())
		}

		scans := v1.Group("/scans")
		scans.Use(middlewares.JwtAuthMiddleware(issuer))
		{
			scans.POST("", controllers.CreateScan(scanService))
			scans.GET("", controllers.ListScans(config.Uploads.Dir))
			scans.GET("/:id", controllers.GetScan(config.Uploads.Dir))
		}

		admin := v1.Group("/admin")
		admin.Use(middlewares.JwtAuthMiddleware(issuer), middlewares.AdminRequired())
		{
			admin.POST("/diseases", controllers.CreateDisease())
			admin.PUT("/diseases/:id", controllers.UpdateDisease())
			admin.DELETE("/diseases/:id", controllers.DeleteDisease())
			admin.GET("/diseases", controllers.ListDiseases())

			admin.POST("/treatments", controllers.CreateTreatment())
			admin.PUT("/treatments/:id", controllers.UpdateTreatment())
			admin.DELETE("/treatments/:id", controllers.DeleteTreatment())
			admin.GET("/treatments", controllers.ListTreatments())
		}
	}

	addr := fmt.Sprintf(":%s", config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with
	// a timeout of 5 seconds.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Info("Server exiting")
}
