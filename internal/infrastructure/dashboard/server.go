package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/yuin/goldmark"

	"ContentEngine/internal/domain"
	"ContentEngine/internal/infrastructure/ingest"
	"ContentEngine/internal/ports"
	"ContentEngine/internal/usecase"
)

// Server exposes the review workflow over HTTP: listing, approving,
// rejecting, publishing, manual imports, and the LinkedIn OAuth flow.
type Server struct {
	gateway      *usecase.Gateway
	coordinator  *usecase.Coordinator
	orchestrator *usecase.Orchestrator
	importer     *ingest.Processor
	store        ports.RecordStore
	auth         *LinkedInAuth
	markdown     goldmark.Markdown
	logger       *slog.Logger
}

// ServerDeps wires the use cases into the HTTP surface.
type ServerDeps struct {
	Gateway      *usecase.Gateway
	Coordinator  *usecase.Coordinator
	Orchestrator *usecase.Orchestrator
	Importer     *ingest.Processor
	Store        ports.RecordStore
	Auth         *LinkedInAuth
	Logger       *slog.Logger
}

// NewServer constructs the dashboard.
func NewServer(deps ServerDeps) (*Server, error) {
	if deps.Gateway == nil || deps.Coordinator == nil || deps.Orchestrator == nil || deps.Store == nil {
		return nil, errors.New("gateway, coordinator, orchestrator, and store are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &Server{
		gateway:      deps.Gateway,
		coordinator:  deps.Coordinator,
		orchestrator: deps.Orchestrator,
		importer:     deps.Importer,
		store:        deps.Store,
		auth:         deps.Auth,
		markdown:     goldmark.New(),
		logger:       deps.Logger,
	}, nil
}

// Routes assembles the HTTP handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/records", s.handleList)
	mux.HandleFunc("GET /api/records/{id}", s.handleGet)
	mux.HandleFunc("GET /api/records/{id}/preview", s.handlePreview)
	mux.HandleFunc("POST /api/records/{id}/approve", s.handleApprove)
	mux.HandleFunc("POST /api/records/{id}/reject", s.handleReject)
	mux.HandleFunc("POST /api/records/{id}/publish", s.handlePublish)
	mux.HandleFunc("POST /api/runs", s.handleRun)
	mux.HandleFunc("POST /api/imports/url", s.handleImportURL)
	mux.HandleFunc("POST /api/imports/text", s.handleImportText)

	if s.auth != nil {
		mux.HandleFunc("GET /auth/linkedin", s.auth.Begin)
		mux.HandleFunc("GET /auth/linkedin/callback", s.auth.Callback)
	}

	return s.logMiddleware(mux)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	status := domain.Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		s.writeError(w, http.StatusBadRequest, errors.New("unknown status "+string(status)))
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, errors.New("invalid limit"))
			return
		}
		limit = parsed
	}

	records, err := s.store.List(r.Context(), status, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	record, err := s.store.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	record, err := s.store.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(record.Draft.Article.Markdown), &buf); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type approveRequest struct {
	Editor          string `json:"editor"`
	ShortContent    string `json:"short_content,omitempty"`
	ArticleTitle    string `json:"article_title,omitempty"`
	ArticleMarkdown string `json:"article_markdown,omitempty"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	id := r.PathValue("id")

	edits, err := s.buildEdits(r.Context(), id, req)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	record, err := s.gateway.Approve(r.Context(), id, req.Editor, edits)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

// buildEdits turns partial field edits from the review form into a full
// replacement bundle: the stored draft with the edited facets swapped in.
func (s *Server) buildEdits(ctx context.Context, id string, req approveRequest) (*domain.DraftBundle, error) {
	if req.ShortContent == "" && req.ArticleMarkdown == "" && req.ArticleTitle == "" {
		return nil, nil
	}

	record, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	bundle := record.Draft
	if req.ShortContent != "" {
		bundle.Short.Content = req.ShortContent
	}
	if req.ArticleMarkdown != "" {
		bundle.Article.Markdown = req.ArticleMarkdown
	}
	if req.ArticleTitle != "" {
		bundle.Article.Title = req.ArticleTitle
	}
	return &bundle, nil
}

type rejectRequest struct {
	Editor string `json:"editor"`
	Reason string `json:"reason,omitempty"`
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	record, err := s.gateway.Reject(r.Context(), r.PathValue("id"), req.Editor, req.Reason)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	record, err := s.coordinator.Publish(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	record, err := s.orchestrator.Run(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, record)
}

type importURLRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleImportURL(w http.ResponseWriter, r *http.Request) {
	if s.importer == nil {
		s.writeError(w, http.StatusNotImplemented, errors.New("importer not configured"))
		return
	}

	var req importURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	report, err := s.importer.FromURL(r.Context(), req.URL)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}

	record, err := s.orchestrator.RunFromReport(r.Context(), report)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, record)
}

type importTextRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleImportText(w http.ResponseWriter, r *http.Request) {
	if s.importer == nil {
		s.writeError(w, http.StatusNotImplemented, errors.New("importer not configured"))
		return
	}

	var req importTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	report, err := s.importer.FromText(r.Context(), req.Text)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}

	record, err := s.orchestrator.RunFromReport(r.Context(), report)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, record)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("encode response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, err error) {
	s.writeJSON(w, code, map[string]string{"error": err.Error()})
}

// writeDomainError maps the core's typed errors onto HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var (
		invalid    *domain.InvalidTransitionError
		conflict   *domain.ConflictError
		inProgress *domain.AlreadyInProgressError
		discovery  *domain.DiscoveryError
		drafting   *domain.DraftingError
	)

	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		s.writeError(w, http.StatusNotFound, err)
	case errors.As(err, &invalid), errors.As(err, &conflict), errors.As(err, &inProgress):
		s.writeError(w, http.StatusConflict, err)
	case errors.As(err, &discovery), errors.As(err, &drafting):
		s.writeError(w, http.StatusBadGateway, err)
	default:
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}
