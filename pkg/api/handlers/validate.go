package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"profile-extract-go/pkg/validation"
)

// ValidateRequest is the body of POST /api/v1/validate
type ValidateRequest struct {
	URL string `json:"url"`
}

// ValidateURL checks one URL without creating a batch
func ValidateURL() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ValidateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, validation.Validate(req.URL))
	}
}
