package handler

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"

	"github.com/erlanggapranata/uploader/internal/store"
)

var shortCodePattern = regexp.MustCompile(`^[A-Za-z0-9]{6,8}$`)

// HandleShortCode resolves a short code to its stored file, bumps the
// access counter and streams the bytes with the recorded content type.
func (h *Handler) HandleShortCode(c echo.Context) error {
	code := c.Param("shortCode")
	if !shortCodePattern.MatchString(code) {
		return respondError(c, http.StatusNotFound, ErrCodeInvalidFormat, "Invalid short code format")
	}

	rec, err := h.store.FindByShortCode(code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return respondError(c, http.StatusNotFound, ErrCodeNotFound, "Short code not found")
		}
		log.Printf("Error: Failed to look up short code %s: %v", code, err)
		return respondError(c, http.StatusInternalServerError, ErrCodeInternal, "Server error")
	}

	filePath := filepath.Join(h.cfg.UploadPath, rec.Filename)
	if _, err := os.Stat(filePath); err != nil {
		// The record can outlive its file when the upload directory is
		// cleaned out-of-band.
		log.Printf("Warning: Backing file missing for code %s: %s", code, rec.Filename)
		return respondError(c, http.StatusNotFound, ErrCodeFileNotFound, "File not found")
	}

	if err := h.store.IncrementAccess(code); err != nil {
		log.Printf("Error: Failed to increment access count for %s: %v", code, err)
		return respondError(c, http.StatusInternalServerError, ErrCodeInternal, "Server error")
	}

	return h.streamFile(c, filePath, rec.Mimetype, rec.OriginalName)
}

// HandleDirectFile streams a file by its on-disk name, bypassing the store
// and the access counter.
func (h *Handler) HandleDirectFile(c echo.Context) error {
	filename := c.Param("filename")
	if strings.Contains(filename, "..") || strings.Contains(filename, "/") {
		return respondError(c, http.StatusNotFound, ErrCodeFileNotFound, "File not found")
	}

	filePath := filepath.Join(h.cfg.UploadPath, filename)
	if _, err := os.Stat(filePath); err != nil {
		return respondError(c, http.StatusNotFound, ErrCodeFileNotFound, "File not found")
	}

	contentType := "application/octet-stream"
	if mtype, err := mimetype.DetectFile(filePath); err == nil {
		contentType = mtype.String()
	}

	return h.streamFile(c, filePath, contentType, filename)
}

func (h *Handler) streamFile(c echo.Context, filePath, contentType, displayName string) error {
	file, err := os.Open(filePath)
	if err != nil {
		log.Printf("Error: Failed to open file %s: %v", filePath, err)
		return respondError(c, http.StatusInternalServerError, ErrCodeInternal, "Server error")
	}
	defer file.Close()

	if shouldDisplayInline(contentType) {
		c.Response().Header().Set("Content-Disposition", "inline; filename=\""+displayName+"\"")
	} else {
		c.Response().Header().Set("Content-Disposition", "attachment; filename=\""+displayName+"\"")
	}

	return c.Stream(http.StatusOK, contentType, file)
}

// shouldDisplayInline determines if the content should be displayed inline in the browser
func shouldDisplayInline(contentType string) bool {
	return strings.HasPrefix(contentType, "video/") ||
		strings.HasPrefix(contentType, "audio/") ||
		strings.HasPrefix(contentType, "image/") ||
		contentType == "application/pdf" ||
		strings.HasPrefix(contentType, "text/")
}
