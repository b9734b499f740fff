package handler

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/labstack/echo/v4"

	"github.com/erlanggapranata/uploader/internal/model"
	"github.com/erlanggapranata/uploader/internal/store"
	"github.com/erlanggapranata/uploader/internal/utils"
)

// multipart headroom on top of the configured file size limit
const uploadBodySlack = 10 << 20

// UploadResult is the payload returned for a successful upload.
type UploadResult struct {
	ShortCode     string `json:"shortCode"`
	ShortURL      string `json:"shortUrl"`
	DirectURL     string `json:"directUrl"`
	OriginalName  string `json:"originalName"`
	Size          int64  `json:"size"`
	SizeFormatted string `json:"sizeFormatted"`
	Mimetype      string `json:"mimetype"`
}

// HandleUpload accepts a multipart upload (field "file"), stores the bytes
// under the upload directory and records the mapping under a fresh short code.
func (h *Handler) HandleUpload(c echo.Context) error {
	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, h.cfg.MaxSizeToBytes()+uploadBodySlack)

	file, header, err := c.Request().FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return respondError(c, http.StatusRequestEntityTooLarge, ErrCodeFileTooLarge,
				fmt.Sprintf("File too large (max %s)", utils.FormatFileSize(h.cfg.MaxSizeToBytes())))
		}
		return respondError(c, http.StatusBadRequest, ErrCodeMissingFile, "No file provided")
	}
	defer file.Close()

	if header.Size > h.cfg.MaxSizeToBytes() {
		return respondError(c, http.StatusRequestEntityTooLarge, ErrCodeFileTooLarge,
			fmt.Sprintf("File too large (max %s)", utils.FormatFileSize(h.cfg.MaxSizeToBytes())))
	}

	code, err := h.gen.GenerateUnique()
	if err != nil {
		log.Printf("Error: Failed to generate short code: %v", err)
		return respondError(c, http.StatusInternalServerError, ErrCodeInternal, "Server error")
	}

	filename := diskFilename(code, header.Filename)
	filePath := filepath.Join(h.cfg.UploadPath, filename)

	size, err := h.saveUploadedFile(file, filePath)
	if err != nil {
		log.Printf("Error: Failed to save upload %s: %v", header.Filename, err)
		return respondError(c, http.StatusInternalServerError, ErrCodeInternal, "Server error")
	}

	rec := &model.UrlRecord{
		ShortCode:    code,
		Filename:     filename,
		OriginalName: header.Filename,
		UploadedAt:   time.Now(),
		Size:         size,
		Mimetype:     h.resolveMimetype(header, filePath),
	}

	if err := h.insertWithRetry(rec, filePath); err != nil {
		log.Printf("Error: Failed to store record for %s: %v", header.Filename, err)
		// rec.Filename tracks the file through the retry rename, so this
		// removes the bytes wherever they currently live.
		if err := os.Remove(filepath.Join(h.cfg.UploadPath, rec.Filename)); err != nil {
			log.Printf("Warning: Failed to clean up file after store error: %v", err)
		}
		return respondError(c, http.StatusInternalServerError, ErrCodeInternal, "Server error")
	}

	log.Printf("File uploaded: %s (%s) with code %s", rec.OriginalName, utils.FormatFileSize(size), rec.ShortCode)

	base := h.baseURL(c)
	return respondData(c, http.StatusCreated, "File uploaded successfully", UploadResult{
		ShortCode:     rec.ShortCode,
		ShortURL:      base + "/" + rec.ShortCode,
		DirectURL:     base + "/file/" + rec.Filename,
		OriginalName:  rec.OriginalName,
		Size:          rec.Size,
		SizeFormatted: utils.FormatFileSize(rec.Size),
		Mimetype:      rec.Mimetype,
	})
}

// insertWithRetry inserts the record, retrying exactly once with a fresh
// code when the unique constraint fires. The generator pre-checks
// uniqueness, but a concurrent upload can still win the race between
// check and insert; the constraint is the final authority. rec.Filename
// always names the file's current on-disk location, including after the
// retry rename, so callers can clean up through it.
func (h *Handler) insertWithRetry(rec *model.UrlRecord, filePath string) error {
	err := h.store.Insert(rec)
	if !errors.Is(err, store.ErrDuplicateCode) {
		return err
	}

	log.Printf("Warning: Short code %s lost insert race, retrying with a fresh code", rec.ShortCode)

	code, err := h.gen.GenerateUnique()
	if err != nil {
		return err
	}

	newFilename := diskFilename(code, rec.OriginalName)
	newPath := filepath.Join(h.cfg.UploadPath, newFilename)
	if err := os.Rename(filePath, newPath); err != nil {
		return fmt.Errorf("failed to rename file for retry: %w", err)
	}

	rec.ShortCode = code
	rec.Filename = newFilename
	return h.store.Insert(rec)
}

func (h *Handler) saveUploadedFile(src multipart.File, filePath string) (int64, error) {
	dst, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(filePath)
		return 0, fmt.Errorf("failed to save file: %w", err)
	}

	return size, nil
}

// resolveMimetype prefers the client-declared content type, sniffs the
// stored bytes when the client omitted it, and falls back to
// application/octet-stream.
func (h *Handler) resolveMimetype(header *multipart.FileHeader, filePath string) string {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}

	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		log.Printf("Warning: Failed to detect content type for %s: %v", filePath, err)
		return "application/octet-stream"
	}

	return mtype.String()
}

func (h *Handler) baseURL(c echo.Context) string {
	if h.cfg.BaseURL != "" {
		return strings.TrimSuffix(h.cfg.BaseURL, "/")
	}
	return c.Scheme() + "://" + c.Request().Host
}

func diskFilename(code, originalName string) string {
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), code, filepath.Ext(originalName))
}
