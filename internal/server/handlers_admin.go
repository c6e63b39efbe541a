package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"gopkg.in/yaml.v3"

	"blobshare/internal/api"
)

func (s *Server) handleAdminSweep(w http.ResponseWriter, r *http.Request) {
	s.withLimiter(w, r, s.sweepLimiter, "sweep", func() {
		var req api.SweepRequest
		if !s.decodeJSONReq(w, r, &req) {
			return
		}
		if req.BatchSize < 0 {
			s.writeErrorReq(w, r, http.StatusBadRequest,
				badRequestCode(fmt.Errorf("batch_size must be >= 0"), ErrCodeInvalidQuery))
			return
		}
		if !req.DryRun && r.Header.Get("X-Confirm") != "true" {
			s.writeErrorReq(w, r, http.StatusBadRequest,
				badRequestCode(fmt.Errorf("non-dry-run requires X-Confirm: true header"), ErrCodeMissingRequired))
			return
		}

		resp, err := s.service.Sweep(r.Context(), req.BatchSize, req.DryRun)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, resp)
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	s.withLimiter(w, r, s.exportLimiter, "export", func() {
		format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
		if format == "" {
			format = "yaml"
		}

		records, err := s.service.ListMetadata(r.Context())
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}

		switch format {
		case "yaml", "yml":
			w.Header().Set("Content-Type", "application/yaml")
			if err := yaml.NewEncoder(w).Encode(exportDocument(records)); err != nil {
				s.log().Error("export encode", "format", format, "error", err)
			}
		case "json":
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(exportDocument(records)); err != nil {
				s.log().Error("export encode", "format", format, "error", err)
			}
		default:
			s.writeErrorReq(w, r, http.StatusBadRequest,
				badRequestCode(fmt.Errorf("unsupported export format: %s", format), ErrCodeInvalidExportFormat))
		}
	})
}

func exportDocument(records []api.MetadataResponse) map[string]any {
	return map[string]any{
		"blob_count": len(records),
		"blobs":      records,
	}
}
