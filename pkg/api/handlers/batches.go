package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"profile-extract-go/pkg/export"
	"profile-extract-go/pkg/models"
	"profile-extract-go/pkg/services"
)

// CreateBatchRequest is the body of POST /api/v1/batches
type CreateBatchRequest struct {
	Mode models.Mode `json:"mode" binding:"required,oneof=interactive bulk"`
	URLs []string    `json:"urls"`
}

// AddItemRequest is the body of POST /api/v1/batches/:id/items
type AddItemRequest struct {
	URL string `json:"url"`
}

// RunBatchRequest is the optional body of POST /api/v1/batches/:id/run
type RunBatchRequest struct {
	MaxConcurrent    int     `json:"max_concurrent" binding:"omitempty,min=1,max=64"`
	PerItemTimeoutMS int     `json:"per_item_timeout_ms" binding:"omitempty,min=1"`
	RateLimit        float64 `json:"rate_limit" binding:"omitempty,min=0"`
}

func batchID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch ID"})
		return uuid.Nil, false
	}
	return id, true
}

// ListBatches lists every batch
func ListBatches(service *services.BatchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, service.List())
	}
}

// CreateBatch creates an idle batch from a URL list
func CreateBatch(service *services.BatchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateBatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		snap, err := service.Create(req.Mode, req.URLs)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, snap)
	}
}

// UploadBatch creates a batch from a multipart "file" upload
func UploadBatch(service *services.BatchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		mode := models.Mode(c.DefaultQuery("mode", string(models.ModeBulk)))

		header, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
			return
		}
		f, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("failed to open upload: %v", err)})
			return
		}
		defer f.Close()

		snap, err := service.Import(mode, f)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, snap)
	}
}

// GetBatch returns a batch snapshot
func GetBatch(service *services.BatchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := batchID(c)
		if !ok {
			return
		}

		snap, err := service.Get(id)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, snap)
	}
}

// AddItem appends a URL to an idle batch
func AddItem(service *services.BatchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := batchID(c)
		if !ok {
			return
		}

		var req AddItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		item, err := service.AddItem(id, req.URL)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, item)
	}
}

// RemoveItem deletes a pending item from an idle batch
func RemoveItem(service *services.BatchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := batchID(c)
		if !ok {
			return
		}
		itemID, err := uuid.Parse(c.Param("itemId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item ID"})
			return
		}

		if err := service.RemoveItem(id, itemID); err != nil {
			respondError(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// RunBatch starts processing in the background
func RunBatch(service *services.BatchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := batchID(c)
		if !ok {
			return
		}

		var req RunBatchRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		snap, err := service.Start(id, services.RunOptions{
			MaxConcurrent:  req.MaxConcurrent,
			PerItemTimeout: time.Duration(req.PerItemTimeoutMS) * time.Millisecond,
			RateLimit:      req.RateLimit,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusAccepted, snap)
	}
}

// CancelBatch raises the cancel signal
func CancelBatch(service *services.BatchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := batchID(c)
		if !ok {
			return
		}

		snap, err := service.Cancel(id)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusAccepted, snap)
	}
}

// GetResult returns the final result, 409 while the batch is not done
func GetResult(service *services.BatchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := batchID(c)
		if !ok {
			return
		}

		res, err := service.Result(id)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, res)
	}
}

// ExportBatch downloads the result as csv, json, schema or text
func ExportBatch(service *services.BatchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := batchID(c)
		if !ok {
			return
		}

		format, err := export.ParseFormat(c.DefaultQuery("format", string(export.FormatCSV)))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		res, err := service.Result(id)
		if err != nil {
			respondError(c, err)
			return
		}

		filename := fmt.Sprintf("batch-results-%s%s", id, format.Extension())
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Header("Content-Type", format.ContentType())
		c.Status(http.StatusOK)
		if err := export.Write(c.Writer, format, res); err != nil {
			_ = c.Error(err)
		}
	}
}

// DeleteBatch forgets a batch that is not running
func DeleteBatch(service *services.BatchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := batchID(c)
		if !ok {
			return
		}

		if err := service.Delete(id); err != nil {
			respondError(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}
