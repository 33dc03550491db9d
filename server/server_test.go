package server

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/SaiNageswarS/go-bucket-browser/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootServer_ServeAndShutdown(t *testing.T) {
	testutil.CaptureLogs(t)

	srv, err := New().
		HTTPPort("127.0.0.1:0").
		Provide(&dep{}).
		RegisterController(func(d *dep) *echoController { return &echoController{d: d} }).
		Build()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	resp, err := http.Get("http://" + srv.Addr() + "/echo")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "echo", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
