package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"blobshare/internal/api"
)

func (s *Server) handleStoreFile(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	ttlHours, err := parseTTLHours(r.FormValue("ttl_hours"))
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	resp, err := s.service.StoreFile(r.Context(), data, filename, splitCSV(r.FormValue("tags")), ttlHours)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleFetchFile(w http.ResponseWriter, r *http.Request) {
	var req api.FetchRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	resp, err := s.service.StoreFileFromSource(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleFileContent(w http.ResponseWriter, r *http.Request) {
	blobID, ok := s.queryBlobID(w, r)
	if !ok {
		return
	}

	data, contentType, err := s.service.FileContent(r.Context(), blobID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		s.log().Error("write blob content", "blob_id", blobID, "error", err)
	}
}

func (s *Server) handleFileInfo(w http.ResponseWriter, r *http.Request) {
	blobID, ok := s.queryBlobID(w, r)
	if !ok {
		return
	}

	resp, err := s.service.FileInfo(r.Context(), blobID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	blobID, ok := s.queryBlobID(w, r)
	if !ok {
		return
	}

	resp, err := s.service.Metadata(r.Context(), blobID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// readUpload parses the multipart form and returns the "file" part's
// bytes and filename.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(uploadMaxBody))
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, classifyMultipartError(err))
		return nil, "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest,
			badRequestCode(fmt.Errorf("file is required"), ErrCodeMissingRequired))
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, classifyMultipartError(err))
		return nil, "", false
	}

	filename := firstNonEmpty(r.FormValue("filename"), header.Filename)
	return data, filename, true
}
