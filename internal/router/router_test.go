package router

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"babelflag/internal/config"
	"babelflag/internal/handler"
	"babelflag/internal/models"
	"babelflag/internal/services"
	"babelflag/internal/types"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeConfigManager struct {
	authKey string
}

func (f *fakeConfigManager) GetServerConfig() types.ServerConfig     { return types.ServerConfig{} }
func (f *fakeConfigManager) GetAuthConfig() types.AuthConfig         { return types.AuthConfig{Key: f.authKey} }
func (f *fakeConfigManager) GetLogConfig() types.LogConfig           { return types.LogConfig{Level: "info"} }
func (f *fakeConfigManager) GetDatabaseConfig() types.DatabaseConfig { return types.DatabaseConfig{} }
func (f *fakeConfigManager) GetDiscordConfig() types.DiscordConfig   { return types.DiscordConfig{} }
func (f *fakeConfigManager) GetProviderConfig() types.ProviderConfig { return types.ProviderConfig{} }
func (f *fakeConfigManager) GetRedisDSN() string                     { return "" }
func (f *fakeConfigManager) Validate() error                         { return nil }
func (f *fakeConfigManager) DisplayConfig()                          {}

func setupRouterTest(t *testing.T) http.Handler {
	t.Helper()
	testName := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", testName, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{PrepareStmt: false})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.GuildConfig{}, &models.TranslationLog{}, &models.ProviderUsage{}))

	defaults, err := config.NewDefaultsStore(filepath.Join(t.TempDir(), "defaults.yaml"))
	require.NoError(t, err)

	cm := &fakeConfigManager{authKey: "test-key"}
	server := handler.NewServer(db, cm, defaults,
		services.NewGuildConfigService(db, defaults),
		services.NewTranslationLogService(db))
	return NewRouter(server, cm)
}

func TestHealthIsPublic(t *testing.T) {
	t.Parallel()
	router := setupRouterTest(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestAPIRequiresAuth(t *testing.T) {
	t.Parallel()
	router := setupRouterTest(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/defaults", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPIAcceptsBearerKey(t *testing.T) {
	t.Parallel()
	router := setupRouterTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/defaults", nil)
	req.Header.Set("Authorization", "Bearer test-key")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIRejectsWrongKey(t *testing.T) {
	t.Parallel()
	router := setupRouterTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/defaults", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGuildRoutesRegistered(t *testing.T) {
	t.Parallel()
	router := setupRouterTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/guilds/g1", nil)
	req.Header.Set("X-Api-Key", "test-key")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"guild_id":"g1"`)
}

func TestUnknownRouteIs404(t *testing.T) {
	t.Parallel()
	router := setupRouterTest(t)

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	req.Header.Set("X-Api-Key", "test-key")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
