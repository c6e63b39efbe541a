package server

import (
	"net/http"

	"blobshare/internal/api"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	count, totalBytes, err := s.service.Stats(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := api.InfoResponse{
		Version:         s.version,
		StorageRoot:     s.storageRoot,
		HostStorageRoot: s.hostRoot,
		BlobCount:       count,
		TotalBytes:      totalBytes,
		MaxSizeMB:       s.maxSizeMB,
		DefaultTTLHours: s.defaultTTLHours,
		Deduplicate:     s.deduplicate,
	}

	s.writeJSON(w, http.StatusOK, resp)
}
