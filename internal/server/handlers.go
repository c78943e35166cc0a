package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/slipsense/slipsense/internal/ocr"
	"github.com/slipsense/slipsense/internal/parser"
	"github.com/slipsense/slipsense/internal/patterns"
)

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	names := s.manager.CollectionNames(r.Context())
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"collections": names})
}

func (s *Server) handleListSubCollections(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	names := s.manager.SubCollectionNames(r.Context(), collection)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"collection": collection,
		"formats":    names,
	})
}

func (s *Server) handleCollectionPatterns(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	all, ok := s.manager.CollectionPatterns(r.Context(), collection)
	if !ok {
		s.respondError(w, http.StatusNotFound, "collection not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"collection": collection,
		"formats":    all,
	})
}

func (s *Server) handleListPatterns(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	format := chi.URLParam(r, "format")
	info := s.manager.FormatInfo(r.Context(), collection, format)
	if info == nil {
		s.respondError(w, http.StatusNotFound, "format not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"collection": collection,
		"format":     format,
		"dual_lang":  info.DualLang,
		"patterns":   s.manager.PatternNames(r.Context(), collection, format),
	})
}

func (s *Server) handleGetPattern(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	format := chi.URLParam(r, "format")
	name := chi.URLParam(r, "name")
	p := s.manager.Pattern(r.Context(), collection, format, name)
	if p == nil {
		s.respondError(w, http.StatusNotFound, "pattern not found")
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handlePutPattern(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	format := chi.URLParam(r, "format")
	name := chi.URLParam(r, "name")

	var p patterns.SearchPattern
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// The URL is authoritative for the pattern name.
	p.Name = name

	s.logger.Debug("save pattern request",
		zap.String("collection", collection), zap.String("format", format), zap.String("name", name))
	if err := s.manager.SavePattern(r.Context(), collection, format, &p); err != nil {
		s.logger.Error("save pattern failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"name": name, "status": "saved"})
}

func (s *Server) handleDeletePattern(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	format := chi.URLParam(r, "format")
	name := chi.URLParam(r, "name")

	s.logger.Debug("delete pattern request",
		zap.String("collection", collection), zap.String("format", format), zap.String("name", name))
	if err := s.manager.DeletePattern(r.Context(), collection, format, name); err != nil {
		s.logger.Error("delete pattern failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// Containers left empty by the delete are swept immediately.
	if err := s.manager.Prune(r.Context()); err != nil {
		s.logger.Warn("prune after delete failed", zap.Error(err))
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"name": name, "status": "deleted"})
}

type extractRequest struct {
	DocumentType string       `json:"document_type"`
	FormatName   string       `json:"format_name"`
	SourcePath   string       `json:"source_path,omitempty"`
	Document     ocr.WordList `json:"document"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DocumentType == "" || req.FormatName == "" {
		s.respondError(w, http.StatusBadRequest, "document_type and format_name are required")
		return
	}

	doc, err := ocr.FromWordList(req.Document, req.SourcePath)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.logger.Debug("extract request",
		zap.String("document_type", req.DocumentType),
		zap.String("format_name", req.FormatName),
		zap.Int("words", len(req.Document.Words)))

	fc := parser.FormatContext{DocumentType: req.DocumentType, FormatName: req.FormatName}
	result, err := s.pipeline.Process(r.Context(), doc, fc)
	if err != nil {
		s.logger.Error("extract failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
