package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/cyderes/posts-client/internal/config"
	"github.com/cyderes/posts-client/internal/display"
	"github.com/cyderes/posts-client/internal/models"
	"github.com/cyderes/posts-client/internal/poststore"
)

// Archiver exports the snapshot and reads the archive back
type Archiver interface {
	Export(ctx context.Context) (int, error)
	Status(ctx context.Context) (*models.ArchiveStatus, error)
	Posts(ctx context.Context, limit, offset int) ([]models.ArchivedPost, error)
	Post(ctx context.Context, id int64) (*models.ArchivedPost, error)
}

// Server handles HTTP requests from the browser
type Server struct {
	config     config.ServerConfig
	controller *display.Controller
	archiver   Archiver
	server     *http.Server
}

// NewServer creates a new HTTP server
func NewServer(cfg config.ServerConfig, controller *display.Controller, archiver Archiver) *Server {
	s := &Server{
		config:     cfg,
		controller: controller,
		archiver:   archiver,
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	return s
}

// Handler returns the routed, instrumented handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /view", s.handleView)
	mux.HandleFunc("POST /search", s.handleSearch)
	mux.HandleFunc("POST /page", s.handlePage)
	mux.HandleFunc("POST /posts", s.handleCreate)
	mux.HandleFunc("GET /posts/{id}", s.handleEdit)
	mux.HandleFunc("PUT /posts/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /posts/{id}", s.handleDelete)
	mux.HandleFunc("POST /archive", s.handleArchive)
	mux.HandleFunc("GET /archive", s.handleArchivedPosts)
	mux.HandleFunc("GET /archive/status", s.handleArchiveStatus)
	mux.HandleFunc("GET /archive/{id}", s.handleArchivedPost)

	return otelhttp.NewHandler(withRequestID(mux), "posts-client")
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type postRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type searchRequest struct {
	Term string `json:"term"`
}

type pageRequest struct {
	Page int `json:"page"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleView loads the snapshot on first use and renders the current page
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	view, err := s.controller.OnLoad(r.Context())
	writeView(w, view, err)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decode(w, r, &req) {
		return
	}
	writeView(w, s.controller.OnSearch(req.Term), nil)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if !decode(w, r, &req) {
		return
	}
	writeView(w, s.controller.OnPageChange(req.Page), nil)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if !decode(w, r, &req) || !validPost(w, req) {
		return
	}
	view, err := s.controller.OnCreate(r.Context(), req.Title, req.Body)
	if err == nil {
		writeJSON(w, http.StatusCreated, view)
		return
	}
	writeView(w, view, err)
}

// handleEdit returns the post used to prefill the edit form
func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	post, err := s.controller.OnEdit(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req postRequest
	if !decode(w, r, &req) || !validPost(w, req) {
		return
	}
	view, err := s.controller.OnUpdate(r.Context(), confirmParam(r), id, req.Title, req.Body)
	writeView(w, view, err)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	view, err := s.controller.OnDelete(r.Context(), confirmParam(r), id)
	writeView(w, view, err)
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	n, err := s.archiver.Export(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to archive posts: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"archived": n})
}

// handleArchivedPosts handles GET requests for archived posts
func (s *Server) handleArchivedPosts(w http.ResponseWriter, r *http.Request) {
	// Parse query parameters
	limitStr := r.URL.Query().Get("limit")
	offsetStr := r.URL.Query().Get("offset")

	limit := 10 // default
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	offset := 0 // default
	if offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	posts, err := s.archiver.Posts(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to retrieve posts: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"posts":  posts,
		"count":  len(posts),
		"limit":  limit,
		"offset": offset,
	})
}

// handleArchivedPost handles GET requests for a single archived post
func (s *Server) handleArchivedPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	post, err := s.archiver.Post(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to retrieve post: %w", err))
		return
	}
	if post == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("archived post %d not found", id))
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleArchiveStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.archiver.Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to retrieve status: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// confirmParam reads the user's answer to the confirmation prompt from the
// confirm query parameter.
func confirmParam(r *http.Request) display.Confirmer {
	return display.ConfirmFunc(func(message string) bool {
		ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
		if !ok {
			log.Printf("Not confirmed: %s", message)
		}
		return ok
	})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid post ID"))
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func validPost(w http.ResponseWriter, req postRequest) bool {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Body) == "" {
		writeError(w, http.StatusBadRequest, errors.New("title and body are required"))
		return false
	}
	return true
}

// writeView renders the view with a status derived from the operation error.
// The view carries the user-facing notification either way.
func writeView(w http.ResponseWriter, view display.PageView, err error) {
	writeJSON(w, statusFor(err), view)
}

func statusFor(err error) int {
	var (
		netErr *poststore.NetworkError
		reqErr *poststore.RequestError
		nfErr  *poststore.NotFoundError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &nfErr):
		return http.StatusNotFound
	case errors.As(err, &netErr), errors.As(err, &reqErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}
