package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check and info.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/info", s.handleInfo)

	// Files.
	mux.HandleFunc("POST /v1/files", s.handleStoreFile)
	mux.HandleFunc("POST /v1/files/fetch", s.handleFetchFile)
	mux.HandleFunc("GET /v1/files/content", s.handleFileContent)
	mux.HandleFunc("GET /v1/files/info", s.handleFileInfo)

	// Images.
	mux.HandleFunc("POST /v1/images", s.handleStoreImage)
	mux.HandleFunc("POST /v1/images/fetch", s.handleFetchImage)
	mux.HandleFunc("GET /v1/images/content", s.handleImageContent)
	mux.HandleFunc("GET /v1/images/info", s.handleImageInfo)
	mux.HandleFunc("GET /v1/images/estimate", s.handleImageEstimate)

	// Metadata and export.
	mux.HandleFunc("GET /v1/metadata", s.handleMetadata)
	mux.HandleFunc("GET /v1/export", s.handleExport)

	// Admin.
	mux.HandleFunc("POST /v1/admin/sweep", s.handleAdminSweep)

	return s.withRequestLogging(mux)
}
