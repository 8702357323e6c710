package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"apsiteimport/internal/domain"
	"apsiteimport/internal/pipeline"
)

// SiteLister fetches the site catalog for selection menus.
type SiteLister interface {
	ListSites(ctx context.Context) ([]domain.Site, error)
}

// RunLister reads persisted run history.
type RunLister interface {
	ListRuns(ctx context.Context, limit, offset int) ([]domain.RunRecord, error)
}

// Handler is the web adapter over the import pipeline. It owns no domain
// logic: it stores the upload, invokes the pipeline, and renders the
// result.
type Handler struct {
	pipeline   *pipeline.Service
	sites      SiteLister
	runs       RunLister
	uploadDir  string
	resultsDir string
	logger     *zap.Logger
}

// NewHandler builds the web adapter. runs may be nil when no run-history
// store is configured.
func NewHandler(p *pipeline.Service, sites SiteLister, runs RunLister, uploadDir, resultsDir string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		pipeline:   p,
		sites:      sites,
		runs:       runs,
		uploadDir:  filepath.Clean(uploadDir),
		resultsDir: filepath.Clean(resultsDir),
		logger:     logger,
	}
}

// Routes registers the handler's endpoints on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/sites", h.handleSites)
	mux.HandleFunc("/api/runs", h.handleRuns)
	mux.HandleFunc("/files/", h.handleDownload)
	return mux
}

func (h *Handler) handleSites(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sites, err := h.sites.ListSites(r.Context())
	if err != nil {
		h.logger.Error("list sites", zap.Error(err))
		http.Error(w, fmt.Sprintf("failed to list sites: %v", err), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, sites)
}

func (h *Handler) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleRunUpload(w, r)
	case http.MethodGet:
		h.handleRunHistory(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleRunUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	siteID := strings.TrimSpace(r.FormValue("siteId"))
	if siteID == "" {
		http.Error(w, "siteId is required", http.StatusBadRequest)
		return
	}
	siteName := strings.TrimSpace(r.FormValue("siteName"))

	path, err := h.saveUpload(file, header.Filename)
	if err != nil {
		h.logger.Error("save upload", zap.Error(err))
		http.Error(w, fmt.Sprintf("failed to store upload: %v", err), http.StatusInternalServerError)
		return
	}

	result, err := h.pipeline.Run(r.Context(), pipeline.Request{
		Path:     path,
		SiteID:   siteID,
		SiteName: siteName,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, runResponse{
		RunResult: result,
		Download:  "/files/" + filepath.Base(result.ArtifactPath),
	})
}

type runResponse struct {
	domain.RunResult
	Download string `json:"download"`
}

func (h *Handler) handleRunHistory(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		http.Error(w, "run history is not configured", http.StatusNotFound)
		return
	}
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	records, err := h.runs.ListRuns(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("list runs", zap.Error(err))
		http.Error(w, fmt.Sprintf("failed to list runs: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Only bare file names are served; path traversal collapses to the base.
	name := filepath.Base(strings.TrimPrefix(r.URL.Path, "/files/"))
	if name == "" || name == "." || name == "/" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	path := filepath.Join(h.resultsDir, name)
	if _, err := os.Stat(path); err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}

func (h *Handler) saveUpload(file io.Reader, name string) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("ensure upload directory: %w", err)
	}

	base := filepath.Base(name)
	out, err := os.CreateTemp(h.uploadDir, "upload-*-"+base)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return out.Name(), nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
