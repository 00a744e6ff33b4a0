package utils

import (
	"github.com/gin-gonic/gin"
)

// APIResponse Unified API shape: { success, message, payload, meta }
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Payload interface{} `json:"payload"`
	Meta    interface{} `json:"meta"`
}

// PageMeta Pagination block returned in the meta field of list responses
type PageMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// Respond Write the unified envelope with the given HTTP status
func Respond(c *gin.Context, status int, success bool, message string, payload interface{}, meta interface{}) {
	c.JSON(status, APIResponse{
		Success: success,
		Message: message,
		Payload: payload,
		Meta:    meta,
	})
}
