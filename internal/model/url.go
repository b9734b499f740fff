package model

import "time"

// UrlRecord is one row in the urls table: a single uploaded file and the
// short code that maps to it.
type UrlRecord struct {
	ID             int64      `json:"id"`
	ShortCode      string     `json:"short_code"`
	Filename       string     `json:"filename"`
	OriginalName   string     `json:"original_name"`
	UploadedAt     time.Time  `json:"uploaded_at"`
	Size           int64      `json:"size"`
	Mimetype       string     `json:"mimetype"`
	AccessCount    int64      `json:"access_count"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
}

// AggregateStats summarizes the whole urls table. All fields are zero when
// the table is empty.
type AggregateStats struct {
	Count       int64 `json:"count"`
	TotalSize   int64 `json:"total_size"`
	TotalAccess int64 `json:"total_access"`
	AverageSize int64 `json:"average_size"`
}
