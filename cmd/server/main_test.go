package main

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-be/internal/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		AppPort:           "0",
		AppEnv:            "test",
		AppBaseURL:        "http://localhost:8080",
		FrontendURL:       "http://localhost:3000",
		JWTSecret:         "test-secret",
		ReconcileInterval: time.Minute,
		ReconcileAfter:    15 * time.Minute,
	}
}

func TestNewServer(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	a, err := newServer(testConfig(), db)
	require.NoError(t, err)
	require.NotNil(t, a.handler)

	t.Run("Health", func(t *testing.T) {
		rr := httptest.NewRecorder()
		a.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"payments"`)
	})

	t.Run("Protected route", func(t *testing.T) {
		rr := httptest.NewRecorder()
		a.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/orders", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("Unknown route", func(t *testing.T) {
		rr := httptest.NewRecorder()
		a.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewServer_MissingSecret(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cfg := testConfig()
	cfg.JWTSecret = ""

	_, err = newServer(cfg, db)
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	origInitDB := initDBFunc
	defer func() { initDBFunc = origInitDB }()
	initDBFunc = func(*config.Config) (*sql.DB, error) {
		db, _, err := sqlmock.New()
		return db, err
	}

	started := make(chan struct{})
	origStartServer := startServerFunc
	defer func() { startServerFunc = origStartServer }()
	startServerFunc = func(*http.Server) error {
		close(started)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	assert.NoError(t, run(ctx, testConfig()))
}
