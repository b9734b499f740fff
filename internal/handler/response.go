package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Machine-readable error codes carried in the response envelope.
const (
	ErrCodeMissingFile   = "MISSING_FILE"
	ErrCodeFileTooLarge  = "FILE_TOO_LARGE"
	ErrCodeInvalidFormat = "INVALID_FORMAT"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeFileNotFound  = "FILE_NOT_FOUND"
	ErrCodeMissingQuery  = "MISSING_QUERY"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// Pagination describes the window of a paged listing.
type Pagination struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"hasMore"`
}

// Envelope is the JSON body of every non-file response.
type Envelope struct {
	Status     bool        `json:"status"`
	Message    string      `json:"message,omitempty"`
	Data       any         `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Meta       any         `json:"meta,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

func respondData(c echo.Context, statusCode int, message string, data any) error {
	return c.JSON(statusCode, Envelope{
		Status:  true,
		Message: message,
		Data:    data,
	})
}

func respondPaged(c echo.Context, data any, pagination *Pagination) error {
	return c.JSON(http.StatusOK, Envelope{
		Status:     true,
		Data:       data,
		Pagination: pagination,
	})
}

func respondError(c echo.Context, statusCode int, errCode, message string) error {
	return c.JSON(statusCode, Envelope{
		Status:  false,
		Message: message,
		Error:   errCode,
	})
}
