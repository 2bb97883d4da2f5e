package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 1800*time.Second, cfg.JWT.Expiration)
	assert.Equal(t, "https://sed.educacao.sp.gov.br", cfg.Portal.BaseURL)
	assert.Equal(t, 3, cfg.Portal.MaxAttempts)
	assert.Equal(t, SubmitStrategyUI, cfg.Portal.SubmitStrategy)
	assert.Equal(t, 10*time.Second, cfg.Portal.SaveTimeout)
	assert.Equal(t, 8000, cfg.LessonPlan.ThinkingBudget)
	assert.Equal(t, int64(20*1024*1024), cfg.LessonPlan.MaxBytes)
}

func TestLoadOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("REGISTRATION_MAX_ATTEMPTS", "5")
	t.Setenv("REGISTRATION_SUBMIT_STRATEGY", "DIRECT")
	t.Setenv("PORTAL_SETTLE_DELAY", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Portal.MaxAttempts)
	assert.Equal(t, SubmitStrategyDirect, cfg.Portal.SubmitStrategy)
	assert.Equal(t, 1500*time.Millisecond, cfg.Portal.SettleDelay)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestDatabaseURL(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, User: "sed", Password: "p@ss", Name: "diario", SSLMode: "disable"}
	assert.Equal(t, "postgres://sed:p%40ss@db:5432/diario?sslmode=disable", db.URL())
	assert.Equal(t, "host=db port=5432 user=sed password=p@ss dbname=diario sslmode=disable", db.DSN())
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
