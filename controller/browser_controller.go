// Package controller exposes the browser over HTTP as JSON endpoints.
package controller

import (
	"encoding/json"
	"net/http"

	"github.com/SaiNageswarS/go-bucket-browser/auth"
	"github.com/SaiNageswarS/go-bucket-browser/browser"
	"github.com/SaiNageswarS/go-bucket-browser/config"
	"github.com/SaiNageswarS/go-bucket-browser/logger"
	"github.com/SaiNageswarS/go-bucket-browser/server"
	"go.uber.org/zap"
)

type BrowserController struct {
	browser *browser.Browser
	cfg     *config.BrowserConfig
}

func ProvideBrowserController(b *browser.Browser, cfg *config.BrowserConfig) *BrowserController {
	return &BrowserController{browser: b, cfg: cfg}
}

func (c *BrowserController) Routes() []server.Route {
	return []server.Route{
		{Pattern: "/api/v1/files", Method: http.MethodGet, Handler: c.ListFiles},
		{Pattern: "/api/v1/signed-url", Method: http.MethodGet, Handler: c.SignedUrl},
	}
}

type ListFilesResponse struct {
	Bucket string   `json:"bucket"`
	Folder string   `json:"folder"`
	Files  []string `json:"files"`
}

type SignedUrlResponse struct {
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	Url       string `json:"url"`
	ExpiresIn int    `json:"expiresIn"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ListFiles handles GET /api/v1/files?bucket=&folder=. An empty folder lists the
// bucket root.
func (c *BrowserController) ListFiles(w http.ResponseWriter, r *http.Request) {
	bucket := r.URL.Query().Get("bucket")
	folder := r.URL.Query().Get("folder")
	if bucket == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bucket is required"})
		return
	}

	userId, tenant := auth.GetUserIdAndTenant(r.Context())
	logger.Debug("Listing folder", zap.String("bucket", bucket), zap.String("folder", folder),
		zap.String("user", userId), zap.String("tenant", tenant))

	files, err := c.browser.ListFilesInFolder(r.Context(), bucket, folder)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: errProvider})
		return
	}

	writeJSON(w, http.StatusOK, ListFilesResponse{Bucket: bucket, Folder: folder, Files: files})
}

// SignedUrl handles GET /api/v1/signed-url?bucket=&key=.
func (c *BrowserController) SignedUrl(w http.ResponseWriter, r *http.Request) {
	bucket := r.URL.Query().Get("bucket")
	key := r.URL.Query().Get("key")
	if bucket == "" || key == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bucket and key are required"})
		return
	}

	userId, tenant := auth.GetUserIdAndTenant(r.Context())
	logger.Debug("Signing url", zap.String("bucket", bucket), zap.String("key", key),
		zap.String("user", userId), zap.String("tenant", tenant))

	url, err := c.browser.GenerateSignedUrl(r.Context(), bucket, key)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: errProvider})
		return
	}

	writeJSON(w, http.StatusOK, SignedUrlResponse{
		Bucket:    bucket,
		Key:       key,
		Url:       url,
		ExpiresIn: c.cfg.UrlExpiresIn,
	})
}

// provider failures are logged by browser; their detail stays server-side
const errProvider = "storage provider error"

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed writing response", zap.Error(err))
	}
}
