package handler

import (
	"github.com/erlanggapranata/uploader/internal/config"
	"github.com/erlanggapranata/uploader/internal/shortcode"
	"github.com/erlanggapranata/uploader/internal/store"
)

// Handler handles HTTP requests
type Handler struct {
	store *store.Store
	gen   *shortcode.Generator
	cfg   *config.Config
}

// NewHandler creates a new handler
func NewHandler(cfg *config.Config, st *store.Store) *Handler {
	return &Handler{
		store: st,
		gen:   shortcode.NewGenerator(st, cfg.CodeLength),
		cfg:   cfg,
	}
}
