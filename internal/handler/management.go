package handler

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/erlanggapranata/uploader/internal/model"
	"github.com/erlanggapranata/uploader/internal/store"
	"github.com/erlanggapranata/uploader/internal/utils"
)

const (
	defaultListLimit   = 100
	defaultRecentLimit = 10
	defaultSearchLimit = 50
	maxListLimit       = 500
)

// HandleListURLs returns a paged listing of all records, newest first.
func (h *Handler) HandleListURLs(c echo.Context) error {
	limit := queryInt(c, "limit", defaultListLimit)
	offset := queryInt(c, "offset", 0)

	records, err := h.store.ListPaged(limit, offset)
	if err != nil {
		log.Printf("Error: Failed to list urls: %v", err)
		return respondError(c, http.StatusInternalServerError, ErrCodeInternal, "Server error")
	}

	total, err := h.store.Count()
	if err != nil {
		log.Printf("Error: Failed to count urls: %v", err)
		return respondError(c, http.StatusInternalServerError, ErrCodeInternal, "Server error")
	}

	return respondPaged(c, nonNil(records), &Pagination{
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+limit) < total,
	})
}

// HandleRecentUploads returns the latest uploads.
func (h *Handler) HandleRecentUploads(c echo.Context) error {
	limit := queryInt(c, "limit", defaultRecentLimit)

	records, err := h.store.Recent(limit)
	if err != nil {
		log.Printf("Error: Failed to list recent urls: %v", err)
		return respondError(c, http.StatusInternalServerError, ErrCodeInternal, "Server error")
	}

	return respondData(c, http.StatusOK, "", nonNil(records))
}

// HandlePopularURLs returns the most accessed records. Records that were
// never retrieved are excluded.
func (h *Handler) HandlePopularURLs(c echo.Context) error {
	limit := queryInt(c, "limit", defaultRecentLimit)

	records, err := h.store.MostAccessed(limit)
	if err != nil {
		log.Printf("Error: Failed to list popular urls: %v", err)
		return respondError(c, http.StatusInternalServerError, ErrCodeInternal, "Server error")
	}

	return respondData(c, http.StatusOK, "", nonNil(records))
}

// HandleSearchURLs matches original filenames against a substring.
func (h *Handler) HandleSearchURLs(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return respondError(c, http.StatusBadRequest, ErrCodeMissingQuery, "Search query is required")
	}

	records, err := h.store.Search(query, defaultSearchLimit)
	if err != nil {
		log.Printf("Error: Failed to search urls: %v", err)
		return respondError(c, http.StatusInternalServerError, ErrCodeInternal, "Server error")
	}

	return c.JSON(http.StatusOK, Envelope{
		Status: true,
		Data:   nonNil(records),
		Meta:   map[string]any{"query": query, "count": len(records)},
	})
}

// HandleDeleteURL removes the record for a short code and then makes a
// best-effort attempt to unlink the backing file. The record is the source
// of truth: a failed unlink is logged, never surfaced.
func (h *Handler) HandleDeleteURL(c echo.Context) error {
	code := c.Param("shortCode")

	rec, err := h.store.FindByShortCode(code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return respondError(c, http.StatusNotFound, ErrCodeNotFound, "Short code not found")
		}
		log.Printf("Error: Failed to look up short code %s: %v", code, err)
		return respondError(c, http.StatusInternalServerError, ErrCodeInternal, "Server error")
	}

	deleted, err := h.store.Delete(code)
	if err != nil {
		log.Printf("Error: Failed to delete record %s: %v", code, err)
		return respondError(c, http.StatusInternalServerError, ErrCodeInternal, "Server error")
	}
	if !deleted {
		return respondError(c, http.StatusNotFound, ErrCodeNotFound, "Short code not found")
	}

	filePath := filepath.Join(h.cfg.UploadPath, rec.Filename)
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Failed to delete file %s: %v", filePath, err)
	}

	log.Printf("URL deleted: %s (%s)", code, rec.OriginalName)
	return respondData(c, http.StatusOK, "URL deleted successfully", map[string]any{
		"shortCode":    rec.ShortCode,
		"originalName": rec.OriginalName,
	})
}

// HandleStats combines table aggregates with a live scan of the upload
// directory and the static configuration values.
func (h *Handler) HandleStats(c echo.Context) error {
	stats, err := h.store.AggregateStats()
	if err != nil {
		log.Printf("Error: Failed to aggregate stats: %v", err)
		return respondError(c, http.StatusInternalServerError, ErrCodeInternal, "Server error")
	}

	fileCount, diskUsage := h.scanUploadDir()

	return respondData(c, http.StatusOK, "", map[string]any{
		"totalUrls":          stats.Count,
		"totalSize":          stats.TotalSize,
		"totalSizeFormatted": utils.FormatFileSize(stats.TotalSize),
		"totalAccesses":      stats.TotalAccess,
		"avgFileSize":        utils.FormatFileSize(stats.AverageSize),
		"storage": map[string]any{
			"fileCount":          fileCount,
			"diskUsage":          diskUsage,
			"diskUsageFormatted": utils.FormatFileSize(diskUsage),
			"uploadDir":          h.cfg.UploadPath,
		},
		"config": map[string]any{
			"maxFileSize": utils.FormatFileSize(h.cfg.MaxSizeToBytes()),
			"codeLength":  h.cfg.CodeLength,
		},
	})
}

// HandleHealth reports liveness and the enabled feature set.
func (h *Handler) HandleHealth(c echo.Context) error {
	return respondData(c, http.StatusOK, "ok", map[string]any{
		"service": "uploader",
		"features": map[string]bool{
			"upload": true,
			"search": true,
			"stats":  true,
		},
	})
}

// scanUploadDir counts files and bytes currently on disk. Entries that
// cannot be read are skipped with a log line.
func (h *Handler) scanUploadDir() (int, int64) {
	entries, err := os.ReadDir(h.cfg.UploadPath)
	if err != nil {
		log.Printf("Warning: Failed to scan upload directory: %v", err)
		return 0, 0
	}

	var count int
	var total int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			log.Printf("Warning: Skipping unreadable file %s: %v", entry.Name(), err)
			continue
		}
		count++
		total += info.Size()
	}

	return count, total
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	if name == "limit" && (value == 0 || value > maxListLimit) {
		return fallback
	}
	return value
}

func nonNil(records []model.UrlRecord) []model.UrlRecord {
	if records == nil {
		return []model.UrlRecord{}
	}
	return records
}
