package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"docuchat/internal/app"
	"docuchat/internal/util"
	"docuchat/pkg/domain"
)

const previewLength = 200

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	TrustedProxies *util.TrustedProxies
	MaxUploadBytes int64
}

// Server exposes the document and chat HTTP endpoints.
type Server struct {
	app            *app.App
	trustedProxies *util.TrustedProxies
	mux            *http.ServeMux
	maxUploadBytes int64
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 50 * 1024 * 1024
	}
	s := &Server{
		app:            cfg.App,
		trustedProxies: cfg.TrustedProxies,
		mux:            http.NewServeMux(),
		maxUploadBytes: maxUploadBytes,
	}
	s.routes()
	return s
}

// Router returns the configured handler wrapped in the middleware chain.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("docuchat", s.trustedProxies,
		util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// documents
	s.mux.HandleFunc("/documents", s.handleDocuments)
	s.mux.HandleFunc("/documents/upload", s.handleUpload)
	s.mux.HandleFunc("/documents/search", s.handleSearch)
	s.mux.HandleFunc("/documents/compare", s.handleCompare)
	s.mux.HandleFunc("/documents/reindex", s.handleReindex)
	s.mux.HandleFunc("/documents/", s.handleDocumentByID)

	// chat
	s.mux.HandleFunc("/chat/sessions", s.handleSessions)
	s.mux.HandleFunc("/chat/sessions/", s.handleSessionByID)

	// prompt templates
	s.mux.HandleFunc("/prompts/templates", s.handleTemplates)
	s.mux.HandleFunc("/prompts/templates/", s.handleTemplateByName)
	s.mux.HandleFunc("/prompts/test", s.handleTemplateTest)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	docs, err := s.app.ListDocuments()
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	items := make([]domain.DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.Summary())
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	if s.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, "invalid form data")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, "file is required (field: file)")
		return
	}
	defer file.Close()
	contentType := header.Header.Get("Content-Type")
	doc, err := s.app.ProcessDocument(r.Context(), header.Filename, contentType, file)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeError(w, r, http.StatusBadRequest, codeValidation, "query is required")
		return
	}
	maxResults := parseIntParam(r, "maxResults")
	docs, err := s.app.Retrieve(r.Context(), query, "", maxResults)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	items := make([]domain.DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		summary := doc.Summary()
		summary.ContentPreview = preview(doc.Content)
		items = append(items, summary)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
		"query": query,
	})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	var req compareRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.DocumentIDs) < 2 {
		writeError(w, r, http.StatusBadRequest, codeValidation, "at least two documentIds are required")
		return
	}
	result, err := s.app.CompareDocuments(r.Context(), req.DocumentIDs)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documentIds": req.DocumentIDs,
		"comparison":  result,
	})
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	indexed, err := s.app.ReindexAll(r.Context(), 0)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "reindexed",
		"indexed": indexed,
	})
}

// /documents/{id} or /documents/{id}/summary
func (s *Server) handleDocumentByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/documents/")
	parts := strings.SplitN(path, "/", 2)
	id := parts[0]
	if id == "" {
		notFound(w, r, "not found")
		return
	}
	if len(parts) == 2 {
		if parts[1] == "summary" {
			s.handleDocumentSummary(w, r, id)
			return
		}
		notFound(w, r, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		doc, ok, err := s.app.GetDocument(id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		if !ok {
			notFound(w, r, "document not found")
			return
		}
		writeJSON(w, http.StatusOK, doc)
	case http.MethodDelete:
		if err := s.app.DeleteDocument(r.Context(), id); err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w, r)
	}
}

func (s *Server) handleDocumentSummary(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	summary, err := s.app.SummarizeDocument(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"documentId": id,
		"summary":    summary,
	})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req createSessionRequest
		if !decodeBody(w, r, &req) {
			return
		}
		session, err := s.app.CreateSession(r.Context(), req.Title, req.DocumentID)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, session)
	case http.MethodGet:
		sessions, err := s.app.ListSessions(r.Context())
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"items": sessions,
			"count": len(sessions),
		})
	default:
		methodNotAllowed(w, r)
	}
}

// /chat/sessions/{id} or /chat/sessions/{id}/messages
func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/chat/sessions/")
	parts := strings.SplitN(path, "/", 2)
	id := parts[0]
	if id == "" {
		notFound(w, r, "not found")
		return
	}
	if len(parts) == 2 {
		if parts[1] == "messages" {
			s.handleSendMessage(w, r, id)
			return
		}
		notFound(w, r, "not found")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	session, err := s.app.GetSession(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, sessionID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	var req sendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, r, http.StatusBadRequest, codeValidation, "content is required")
		return
	}
	msg, err := s.app.SendMessage(r.Context(), sessionID, req.Content)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r)
		return
	}
	names := s.app.Prompts().List()
	writeJSON(w, http.StatusOK, map[string]any{
		"items": names,
		"count": len(names),
	})
}

// /prompts/templates/{name} or /prompts/templates/{name}/render
func (s *Server) handleTemplateByName(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/prompts/templates/")
	parts := strings.SplitN(path, "/", 2)
	name := parts[0]
	if name == "" {
		notFound(w, r, "not found")
		return
	}
	if len(parts) == 2 {
		if parts[1] == "render" {
			s.handleTemplateRender(w, r, name)
			return
		}
		notFound(w, r, "not found")
		return
	}
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r)
		return
	}
	var req updateTemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Template) == "" {
		writeError(w, r, http.StatusBadRequest, codeValidation, "template is required")
		return
	}
	s.app.Prompts().Update(name, req.Template)
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "updated",
		"name":   name,
	})
}

func (s *Server) handleTemplateRender(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	var req renderTemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rendered, tokens := s.app.Prompts().EstimateTokens(name, req.Parameters)
	writeJSON(w, http.StatusOK, renderTemplateResponse{
		Name:            name,
		Rendered:        rendered,
		EstimatedTokens: tokens,
		Parameters:      req.Parameters,
	})
}

func (s *Server) handleTemplateTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}
	var req testTemplateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, r, http.StatusBadRequest, codeValidation, "name is required")
		return
	}
	store := s.app.Prompts()
	rendered, tokens := store.EstimateTokens(name, req.Parameters)
	writeJSON(w, http.StatusOK, renderTemplateResponse{
		Name:            name,
		Rendered:        rendered,
		EstimatedTokens: tokens,
		Parameters:      req.Parameters,
		UsedFallback:    !store.Has(name),
	})
}

type compareRequest struct {
	DocumentIDs []string `json:"documentIds"`
}

type createSessionRequest struct {
	Title      string `json:"title"`
	DocumentID string `json:"documentId"`
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

type updateTemplateRequest struct {
	Template string `json:"template"`
}

type renderTemplateRequest struct {
	Parameters map[string]string `json:"parameters"`
}

type testTemplateRequest struct {
	Name       string            `json:"name"`
	Parameters map[string]string `json:"parameters"`
}

type renderTemplateResponse struct {
	Name            string            `json:"name"`
	Rendered        string            `json:"rendered"`
	EstimatedTokens int               `json:"estimatedTokens"`
	Parameters      map[string]string `json:"parameters,omitempty"`
	UsedFallback    bool              `json:"usedFallback,omitempty"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, codeValidation, "invalid JSON body")
		return false
	}
	return true
}

func parseIntParam(r *http.Request, name string) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content
	}
	return string(runes[:previewLength]) + "..."
}
