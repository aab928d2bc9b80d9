package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"github.com/ssargent/roiread/pkg/archive"
	"github.com/ssargent/roiread/pkg/roi"
	"github.com/ssargent/roiread/pkg/storage"
)

// defaultUploadName names a non-zip upload sent without a name parameter.
const defaultUploadName = "upload.roi"

// Server holds the API server state
type Server struct {
	catalog Catalog
	config  ServerConfig
	metrics *Metrics
	logger  *slog.Logger
}

// NewServer creates a new API server
func NewServer(catalog Catalog, config ServerConfig, metrics *Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		catalog: catalog,
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleDecode decodes the request body, either a single ROI record or a zip
// archive of them. With store=true the result is also saved in the catalog.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = defaultUploadName
	}
	name = path.Base(name)

	if s.config.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, fmt.Sprintf("Upload exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	if len(body) == 0 {
		sendError(w, "Request body is empty", http.StatusBadRequest)
		return
	}

	var archiveOpts []archive.Option
	if s.config.MaxEntrySize > 0 {
		archiveOpts = append(archiveOpts, archive.WithMaxEntrySize(s.config.MaxEntrySize))
	}
	src, err := archive.FromBytes(name, body, archiveOpts...)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer src.Close()

	coll, err := roi.DecodeAll(r.Context(), src.Entries(),
		roi.WithWorkers(s.config.Workers),
		roi.WithObserver(s.metrics.ObserveDecode),
	)
	if err != nil {
		s.logger.Warn("decode cancelled", "source", name, "error", err)
		sendError(w, "Decode cancelled", http.StatusServiceUnavailable)
		return
	}
	s.metrics.RecordArchive(coll)
	s.logger.Info("decoded upload", "source", name, "rois", coll.Len(), "failures", len(coll.Failures()))

	resp := DecodeResponse{Collection: coll}
	if r.URL.Query().Get("store") == "true" {
		summary, err := s.catalog.Create(name, coll)
		s.metrics.RecordCatalogOperation("create", err == nil)
		if err != nil {
			s.logger.Error("failed to store collection", "source", name, "error", err)
			sendError(w, "Failed to store collection", http.StatusInternalServerError)
			return
		}
		resp.ID = summary.ID
		resp.Summary = summary
	}
	sendSuccess(w, resp)
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.catalog.List()
	s.metrics.RecordCatalogOperation("list", err == nil)
	if err != nil {
		s.logger.Error("failed to list collections", "error", err)
		sendError(w, "Failed to list collections", http.StatusInternalServerError)
		return
	}
	s.metrics.UpdateCatalogSize(len(summaries))
	sendSuccess(w, summaries)
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	coll, err := s.catalog.Read(id)
	s.metrics.RecordCatalogOperation("read", err == nil)
	if err != nil {
		s.sendCatalogError(w, id, err)
		return
	}
	sendSuccess(w, coll)
}

func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.catalog.Delete(id)
	s.metrics.RecordCatalogOperation("delete", err == nil)
	if err != nil {
		s.sendCatalogError(w, id, err)
		return
	}
	sendSuccess(w, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) sendCatalogError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		sendError(w, fmt.Sprintf("Collection %s not found", id), http.StatusNotFound)
		return
	}
	s.logger.Error("catalog operation failed", "id", id, "error", err)
	sendError(w, "Catalog operation failed", http.StatusInternalServerError)
}
