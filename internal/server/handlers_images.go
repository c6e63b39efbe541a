package server

import (
	"net/http"
	"strconv"

	"blobshare/internal/api"
)

func (s *Server) handleStoreImage(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	ttlHours, err := parseTTLHours(r.FormValue("ttl_hours"))
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}
	opts, err := formResizeOptions(r)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	resp, err := s.service.StoreImage(r.Context(), data, filename, splitCSV(r.FormValue("tags")), ttlHours, opts)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleFetchImage(w http.ResponseWriter, r *http.Request) {
	var req api.FetchImageRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	resp, err := s.service.StoreImageFromSource(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleImageContent(w http.ResponseWriter, r *http.Request) {
	blobID, ok := s.queryBlobID(w, r)
	if !ok {
		return
	}
	opts, err := queryResizeOptions(r)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	data, contentType, err := s.service.ImageContent(r.Context(), blobID, opts)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		s.log().Error("write image content", "blob_id", blobID, "error", err)
	}
}

func (s *Server) handleImageInfo(w http.ResponseWriter, r *http.Request) {
	blobID, ok := s.queryBlobID(w, r)
	if !ok {
		return
	}

	resp, err := s.service.ImageInfo(r.Context(), blobID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleImageEstimate(w http.ResponseWriter, r *http.Request) {
	blobID, ok := s.queryBlobID(w, r)
	if !ok {
		return
	}
	opts, err := queryResizeOptions(r)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusBadRequest, err)
		return
	}

	resp, err := s.service.ImageEstimate(r.Context(), blobID, opts)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func queryResizeOptions(r *http.Request) (ResizeOptions, error) {
	var opts ResizeOptions
	var err error
	if opts.MaxWidth, err = queryOptionalInt(r, "max_width"); err != nil {
		return opts, err
	}
	if opts.MaxHeight, err = queryOptionalInt(r, "max_height"); err != nil {
		return opts, err
	}
	if opts.Quality, err = queryOptionalInt(r, "quality"); err != nil {
		return opts, err
	}
	return opts, nil
}

func formResizeOptions(r *http.Request) (ResizeOptions, error) {
	var opts ResizeOptions
	var err error
	if opts.MaxWidth, err = formOptionalInt(r, "max_width"); err != nil {
		return opts, err
	}
	if opts.MaxHeight, err = formOptionalInt(r, "max_height"); err != nil {
		return opts, err
	}
	if opts.Quality, err = formOptionalInt(r, "quality"); err != nil {
		return opts, err
	}
	return opts, nil
}
