package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"plantdoctor/ml"
	"plantdoctor/models"
	"plantdoctor/utils"
)

// Health Service info plus whether the classifier bundle has been loaded
func Health(appName, env string, store *ml.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		info := gin.H{
			"service":      appName,
			"env":          env,
			"time_utc":     time.Now().UTC().Format(time.RFC3339),
			"model_loaded": store.Loaded(),
		}
		utils.Respond(c, http.StatusOK, true, "OK", info, nil)
	}
}

// DBHealth Ping the database connection
func DBHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := models.DB.Exec("SELECT 1").Error; err != nil {
			utils.Respond(c, http.StatusInternalServerError, false, "DB connection failed", nil, nil)
			return
		}
		utils.Respond(c, http.StatusOK, true, "DB connection OK", nil, nil)
	}
}
