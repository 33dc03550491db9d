package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SaiNageswarS/go-bucket-browser/auth"
	"github.com/SaiNageswarS/go-bucket-browser/browser"
	"github.com/SaiNageswarS/go-bucket-browser/cloud"
	"github.com/SaiNageswarS/go-bucket-browser/config"
	"github.com/SaiNageswarS/go-bucket-browser/server"
	"github.com/SaiNageswarS/go-bucket-browser/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCloud struct {
	pages   []cloud.ListPage
	listErr error
	signErr error

	lastExpiry time.Duration
}

func (s *stubCloud) ListObjectsPage(_ context.Context, req cloud.ListRequest) (*cloud.ListPage, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	idx := 0
	if req.ContinuationToken != "" {
		idx = 1
	}
	page := s.pages[idx]
	return &page, nil
}

func (s *stubCloud) GetPresignedUrl(_ context.Context, bucketName, key string, expiry time.Duration) (string, error) {
	s.lastExpiry = expiry
	if s.signErr != nil {
		return "", s.signErr
	}
	return "https://" + bucketName + ".s3.amazonaws.com/" + key + "?X-Amz-Expires=" + expiry.String(), nil
}

func newController(sc *stubCloud) *BrowserController {
	cfg := config.NewBrowserConfig()
	cfg.UrlExpiresIn = 120
	return ProvideBrowserController(browser.New(cfg, sc), cfg)
}

func get(h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestListFiles(t *testing.T) {
	c := newController(&stubCloud{pages: []cloud.ListPage{
		{Keys: []string{"reports/2024/", "reports/2024/b.pdf"}, Truncated: true, NextToken: "n"},
		{Keys: []string{"reports/2024/a.pdf", "reports/2024/sub/"}},
	}})

	rec := get(c.ListFiles, "/api/v1/files?bucket=docs-bucket&folder=reports/2024/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ListFilesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ListFilesResponse{
		Bucket: "docs-bucket",
		Folder: "reports/2024/",
		Files:  []string{"a.pdf", "b.pdf"},
	}, body)
}

func TestListFiles_EmptyFolderIsEmptyArray(t *testing.T) {
	c := newController(&stubCloud{pages: []cloud.ListPage{{Keys: []string{"x/"}}}})

	rec := get(c.ListFiles, "/api/v1/files?bucket=b&folder=x/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"bucket":"b","folder":"x/","files":[]}`, rec.Body.String())
}

func TestListFiles_MissingBucket(t *testing.T) {
	c := newController(&stubCloud{})

	rec := get(c.ListFiles, "/api/v1/files?folder=x/")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"bucket is required"}`, rec.Body.String())
}

func TestListFiles_ProviderFailure(t *testing.T) {
	testutil.CaptureLogs(t)
	c := newController(&stubCloud{listErr: errors.New("NoSuchBucket")})

	rec := get(c.ListFiles, "/api/v1/files?bucket=nope&folder=x/")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"storage provider error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "NoSuchBucket")
}

func TestSignedUrl(t *testing.T) {
	sc := &stubCloud{}
	c := newController(sc)

	rec := get(c.SignedUrl, "/api/v1/signed-url?bucket=docs-bucket&key=a.pdf")
	require.Equal(t, http.StatusOK, rec.Code)

	var body SignedUrlResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "docs-bucket", body.Bucket)
	assert.Equal(t, "a.pdf", body.Key)
	assert.Equal(t, 120, body.ExpiresIn)
	assert.Contains(t, body.Url, "docs-bucket")
	assert.Equal(t, 2*time.Minute, sc.lastExpiry)
}

func TestSignedUrl_MissingParams(t *testing.T) {
	c := newController(&stubCloud{})

	for _, target := range []string{
		"/api/v1/signed-url",
		"/api/v1/signed-url?bucket=b",
		"/api/v1/signed-url?key=k",
	} {
		rec := get(c.SignedUrl, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestSignedUrl_ProviderFailure(t *testing.T) {
	testutil.CaptureLogs(t)
	c := newController(&stubCloud{signErr: errors.New("InvalidPresignExpireError")})

	rec := get(c.SignedUrl, "/api/v1/signed-url?bucket=b&key=k")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.JSONEq(t, `{"error":"storage provider error"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "InvalidPresignExpireError")
}

func TestRoutesThroughServer(t *testing.T) {
	testutil.CaptureLogs(t)

	const secret = "test-secret"
	cfg := config.NewBrowserConfig()
	sc := &stubCloud{pages: []cloud.ListPage{{Keys: []string{"d/a.txt"}}}}

	srv, err := server.New().
		HTTPPort("127.0.0.1:0").
		Authenticate(auth.VerifyTokenHttpMiddleware(secret)).
		Provide(cfg).
		ProvideAs(sc, (*cloud.Cloud)(nil)).
		ProvideFunc(browser.New).
		RegisterController(ProvideBrowserController).
		Build()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	base := "http://" + srv.Addr()

	resp, err := http.Get(base + "/api/v1/files?bucket=b&folder=d/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := auth.GetToken(secret, "acme", "rick", "viewer", time.Hour)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, base+"/api/v1/files?bucket=b&folder=d/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body ListFilesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"a.txt"}, body.Files)
}
