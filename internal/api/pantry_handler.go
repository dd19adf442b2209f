package api

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const maxUploadBytes = 10 << 20

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
}

// ScanPantry handles a photo upload and returns the ingredients seen in it.
func (h *Handler) ScanPantry(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "missing_file", "A photo is required in the 'file' field")
		return
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(file.Filename))] {
		badRequest(c, "unsupported_image", "Invalid file type. Only JPEG, JPG, and PNG images are allowed.")
		return
	}
	if file.Size > maxUploadBytes {
		badRequest(c, "image_too_large", "Images must be 10 MB or smaller")
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
	if err != nil {
		respondError(c, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 45*time.Second)
	defer cancel()

	ingredients, err := h.Pantry.Scan(ctx, data)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingredients": ingredients})
}

// Health pings the database.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.DB.PingContext(ctx); err != nil {
		h.Log.Warn("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
