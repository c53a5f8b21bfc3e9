package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/calia-ai/calia/internal/domain"
	"github.com/calia-ai/calia/internal/metrics"
	"github.com/calia-ai/calia/internal/notes"
	healthuc "github.com/calia-ai/calia/internal/usecase/health"
)

// Answerer runs the question-answering pipeline.
type Answerer interface {
	Answer(ctx context.Context, question string) string
}

// Archiver persists a session transcript and feeds it into the index.
type Archiver interface {
	Archive(ctx context.Context, transcript domain.Transcript) (string, error)
}

// NoteStore is the append-only memory-note log.
type NoteStore interface {
	List() ([]notes.Note, error)
	Append(text string) (notes.Note, error)
}

// Server exposes the assistant over HTTP.
type Server struct {
	answerer Answerer
	archiver Archiver
	notes    NoteStore
	health   *healthuc.Service
	logger   *zap.Logger
}

// NewServer creates the HTTP API server.
func NewServer(
	answerer Answerer,
	archiver Archiver,
	notes NoteStore,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{answerer: answerer, archiver: archiver, notes: notes, health: health, logger: logger}
}

// Router assembles the chi router with the middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(metrics.Middleware())

	r.Post("/ask", s.handleAsk)
	r.Post("/session/archive", s.handleArchive)
	r.Get("/notes", s.handleListNotes)
	r.Post("/notes", s.handleAppendNote)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

type askRequest struct {
	Message string `json:"message"`
}

type askResponse struct {
	OK     bool   `json:"ok"`
	Answer string `json:"answer,omitempty"`
	Error  string `json:"error,omitempty"`
}

// handleAsk handles POST /ask.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	// The pipeline never fails: degradation yields fallback text.
	answer := s.answerer.Answer(r.Context(), req.Message)
	writeJSON(w, http.StatusOK, askResponse{OK: true, Answer: answer})
}

type archiveRequest struct {
	Turns []archiveTurn `json:"turns"`
}

type archiveTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type archiveResponse struct {
	OK   bool   `json:"ok"`
	Path string `json:"path,omitempty"`
}

// handleArchive handles POST /session/archive.
func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	var req archiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	transcript := make(domain.Transcript, 0, len(req.Turns))
	for _, t := range req.Turns {
		role := domain.Role(strings.ToLower(t.Role))
		if !role.Valid() {
			writeError(w, http.StatusBadRequest, "Unknown role: "+t.Role)
			return
		}
		transcript = append(transcript, domain.Turn{Role: role, Text: t.Text})
	}

	path, err := s.archiver.Archive(r.Context(), transcript)
	if err != nil {
		s.logger.Error("archive failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to archive session")
		return
	}

	writeJSON(w, http.StatusOK, archiveResponse{OK: true, Path: path})
}

type noteRequest struct {
	Text string `json:"text"`
}

// handleListNotes handles GET /notes.
func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	all, err := s.notes.List()
	if err != nil {
		s.logger.Error("list notes failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to read notes")
		return
	}
	if all == nil {
		all = []notes.Note{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "notes": all})
}

// handleAppendNote handles POST /notes.
func (s *Server) handleAppendNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "Text is required")
		return
	}

	note, err := s.notes.Append(req.Text)
	if err != nil {
		s.logger.Error("append note failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to save note")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "note": note})
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]any{
		"status":       report.Status,
		"checks":       report.Checks,
		"index_chunks": report.IndexChunks,
		"index_model":  report.IndexModel,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": message})
}
