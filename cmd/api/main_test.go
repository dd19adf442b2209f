package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cookmate/internal/config"
	"cookmate/internal/platform/apierr"
	"cookmate/internal/platform/logger"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseURL = "postgres://test"
	cfg.JWTSecret = "test-secret"
	cfg.BcryptCost = 4
	return cfg
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return sqlx.NewDb(raw, "postgres"), mock
}

func TestRouterWiring(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	log := logger.Nop()
	database, mock := newMockDB(t)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	scanner, closeFn, err := newPantryScanner(context.Background(), cfg, rdb, log)
	require.NoError(t, err)
	defer closeFn()

	router, err := newRouter(cfg, log, database, rdb, scanner)
	require.NoError(t, err)

	mock.ExpectPing()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/grocery", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRouterWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	database, _ := newMockDB(t)

	scanner, _, err := newPantryScanner(context.Background(), testConfig(), nil, logger.Nop())
	require.NoError(t, err)
	_, err = newRouter(testConfig(), logger.Nop(), database, nil, scanner)
	require.NoError(t, err)
}

func TestRouterRejectsUnknownMailProvider(t *testing.T) {
	database, _ := newMockDB(t)
	cfg := testConfig()
	cfg.MailProvider = "pigeon"

	_, err := newRouter(cfg, logger.Nop(), database, nil, nil)
	assert.Error(t, err)
}

func TestPantryScannerSelection(t *testing.T) {
	cfg := testConfig()

	scanner, _, err := newPantryScanner(context.Background(), cfg, nil, logger.Nop())
	require.NoError(t, err)
	assert.False(t, scanner.Enabled())
	_, err = scanner.Scan(context.Background(), []byte{0x89, 'P', 'N', 'G'})
	assert.True(t, apierr.Is(err, apierr.KindUnavailable))

	cfg.PantryProvider = "local"
	scanner, _, err = newPantryScanner(context.Background(), cfg, nil, logger.Nop())
	require.NoError(t, err)
	assert.True(t, scanner.Enabled())
}

func TestNewRedisDisabledWithoutAddr(t *testing.T) {
	assert.Nil(t, newRedis(context.Background(), testConfig(), logger.Nop()))
}
