package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/localnerve/enrol-pipeline/internal/config"
	"github.com/localnerve/enrol-pipeline/internal/database"
	"github.com/localnerve/enrol-pipeline/internal/services"
	"github.com/localnerve/enrol-pipeline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestE2EWithFullStack(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping E2E test in short mode")
	}
	if os.Getenv("AUTHZ_IMAGE") == "" {
		t.Skip("Skipping E2E test, stack environment not loaded")
	}

	ctx := context.Background()

	tc, err := testutil.CreateAllTestContainers(t)
	require.NoError(t, err)
	defer tc.Terminate(t)

	appHost, _ := tc.AppContainer.Host(ctx)
	appPort, _ := tc.AppContainer.MappedPort(ctx, nat.Port(os.Getenv("PORT")+"/tcp"))
	baseURL := fmt.Sprintf("http://%s:%s", appHost, appPort.Port())

	t.Run("HealthCheck", func(t *testing.T) {
		testHealthCheck(t, tc)
	})

	t.Run("PrometheusMetrics", func(t *testing.T) {
		testPrometheusMetrics(t, baseURL)
	})

	t.Run("SwaggerUI", func(t *testing.T) {
		resp, err := http.Get(baseURL + "/swagger/index.html")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("PublicAPIAccess", func(t *testing.T) {
		testPublicAPIAccess(t, baseURL)
	})
}

func testHealthCheck(t *testing.T, tc *testutil.TestContainers) {
	ctx := context.Background()

	// Point at the mapped ports on localhost, not the container network names
	cfg, err := config.Load()
	require.NoError(t, err)

	dbHost, _ := tc.DBContainer.Host(ctx)
	dbPort, _ := tc.DBContainer.MappedPort(ctx, nat.Port(os.Getenv("DB_PORT")+"/tcp"))
	cfg.DBHost = dbHost
	cfg.DBPort = dbPort.Port()

	authzHost, _ := tc.AuthorizerContainer.Host(ctx)
	authzPort, _ := tc.AuthorizerContainer.MappedPort(ctx, nat.Port(os.Getenv("AUTHZ_PORT")+"/tcp"))
	cfg.AuthzURL = fmt.Sprintf("http://%s:%s", authzHost, authzPort.Port())

	log := zaptest.NewLogger(t)
	db, err := database.Connect(cfg, log)
	require.NoError(t, err)
	defer database.Close(db)

	result := services.HealthCheck(ctx, cfg, db, log)
	assert.Equal(t, "healthy", result.Status, "%+v", result)
	assert.Equal(t, "ok", result.Database)
	assert.Equal(t, "ok", result.Authorizer)
}

func testPrometheusMetrics(t *testing.T, baseURL string) {
	// Generate one request so the http counters exist
	resp, err := http.Get(baseURL + "/health")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(baseURL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "enrol_requests_total")
	assert.Contains(t, string(body), "go_goroutines")
}

func testPublicAPIAccess(t *testing.T, baseURL string) {
	client := &http.Client{Timeout: 10 * time.Second}

	// Authenticated routes refuse anonymous callers
	resp, err := client.Get(baseURL + "/api/forms")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Unknown published form
	resp, err = client.Get(baseURL + "/api/public/forms/no-such-form")
	require.NoError(t, err)
	var result map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, false, result["ok"])

	// Submission without a form
	resp, err = client.Post(baseURL+"/api/submissions", "application/json",
		bytes.NewBufferString(`{"data":{"name":"Ada"}}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
