package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profile-extract-go/pkg/api"
	"profile-extract-go/pkg/config"
	"profile-extract-go/pkg/models"
	"profile-extract-go/pkg/services"
)

func newTestServer(t *testing.T, apiKey string) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.API.APIKey = apiKey
	cfg.Processor.MinStageDelayMS = 0
	cfg.Processor.MaxStageDelayMS = 0
	cfg.Processor.SuccessProbability = 1
	cfg.Processor.Seed = 3

	svc, err := services.NewFromConfig(cfg, zerolog.Nop())
	require.NoError(t, err)

	srv := httptest.NewServer(api.NewRouter(svc, cfg, zerolog.Nop()))
	t.Cleanup(func() {
		srv.Close()
		_ = svc.Shutdown(context.Background())
	})
	return srv
}

func TestClient_CreateRunAndExport(t *testing.T) {
	srv := newTestServer(t, "secret")
	c := NewClient(srv.URL+"/", "secret")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, c.Health(ctx))

	snap, err := c.CreateBatch(ctx, models.ModeInteractive, []string{
		"https://github.com/octocat",
		"not a url",
	})
	require.NoError(t, err)
	assert.Len(t, snap.Items, 2)
	assert.Equal(t, models.BatchIdle, snap.Status)

	_, err = c.RunBatch(ctx, snap.ID, RunOptions{MaxConcurrent: 2})
	require.NoError(t, err)

	var polls int
	res, err := c.WaitBatch(ctx, snap.ID, 10*time.Millisecond, func(models.BatchSnapshot) { polls++ })
	require.NoError(t, err)
	assert.Positive(t, polls)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 1, res.ErrorCount)

	body, err := c.Export(ctx, snap.ID, "csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "URL,Status,Name,JobTitle,Company,Confidence"))

	list, err := c.ListBatches(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, c.DeleteBatch(ctx, snap.ID))
	_, err = c.GetBatch(ctx, snap.ID)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestClient_UploadBatch(t *testing.T) {
	srv := newTestServer(t, "")
	c := NewClient(srv.URL, "")
	ctx := context.Background()

	list := "https://www.imdb.com/name/nm0000001\n# comment\n\nhttps://x.com/someone\n"
	snap, err := c.UploadBatch(ctx, models.ModeBulk, "urls.txt", strings.NewReader(list))
	require.NoError(t, err)
	assert.Equal(t, models.ModeBulk, snap.Mode)
	require.Len(t, snap.Items, 2)
	assert.Equal(t, "https://x.com/someone", snap.Items[1].Input)

	item, err := c.AddItem(ctx, snap.ID, "https://github.com/extra")
	require.NoError(t, err)
	require.NoError(t, c.RemoveItem(ctx, snap.ID, snap.Items[0].ID))

	got, err := c.GetBatch(ctx, snap.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, item.ID, got.Items[1].ID)
}

func TestClient_Validate(t *testing.T) {
	srv := newTestServer(t, "")
	c := NewClient(srv.URL, "")

	res, err := c.Validate(context.Background(), "ftp://example.com")
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, models.KindUnsupportedScheme, res.Reason)
}

func TestClient_Unauthorized(t *testing.T) {
	srv := newTestServer(t, "secret")
	c := NewClient(srv.URL, "wrong")

	_, err := c.ListBatches(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestClient_ResultBeforeDone(t *testing.T) {
	srv := newTestServer(t, "")
	c := NewClient(srv.URL, "")
	ctx := context.Background()

	snap, err := c.CreateBatch(ctx, models.ModeInteractive, []string{"https://github.com/a"})
	require.NoError(t, err)

	_, err = c.GetResult(ctx, snap.ID)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
}
