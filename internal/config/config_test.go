package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 50051, cfg.Server.GRPCPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "./tpvg_generated_table.xlsx", cfg.Export.OutputPath)
	assert.Equal(t, "DEFAULT", cfg.I18n.Language)
	assert.False(t, cfg.Auth.Enabled)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenTTL)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  http_port: 9090
storage:
  driver: postgres
auth:
  enabled: true
  users:
    - username: alice
      password_hash: "$argon2id$x"
      role: editor
i18n:
  language: DE
  search_paths: [./languages]
`), 0o644))

	t.Setenv("OSC_EXPORT_OUTPUT_PATH", "/tmp/out.xlsx")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.True(t, cfg.Auth.Enabled)
	require.Len(t, cfg.Auth.Users, 1)
	assert.Equal(t, UserConfig{Username: "alice", PasswordHash: "$argon2id$x", Role: "editor"}, cfg.Auth.Users[0])
	assert.Equal(t, "DE", cfg.I18n.Language)
	assert.Equal(t, []string{"./languages"}, cfg.I18n.SearchPaths)
	assert.Equal(t, "/tmp/out.xlsx", cfg.Export.OutputPath)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadWithFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "", "")
	flags.String("lang", "", "")
	require.NoError(t, flags.Parse([]string{"--output", "flag.xlsx"}))

	cfg, err := LoadWithFlags("", flags, map[string]string{
		"export.output_path": "output",
		"i18n.language":      "lang",
	})
	require.NoError(t, err)
	assert.Equal(t, "flag.xlsx", cfg.Export.OutputPath)
	assert.Equal(t, "DEFAULT", cfg.I18n.Language)

	_, err = LoadWithFlags("", flags, map[string]string{"x": "missing"})
	assert.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, Database: "osc", User: "u", Password: "p"}
	assert.Equal(t, "postgres://u:p@db:5432/osc?sslmode=disable", c.DSN())

	c.URL = "postgres://override"
	assert.Equal(t, "postgres://override", c.DSN())
}

func TestJWTSecret(t *testing.T) {
	a := AuthConfig{JWTSecretEnv: "OSC_TEST_SECRET"}
	t.Setenv("OSC_TEST_SECRET", "")
	assert.Equal(t, devJWTSecret, a.GetJWTSecret())
	assert.False(t, a.IsProductionReady())

	t.Setenv("OSC_TEST_SECRET", "0123456789abcdef0123456789abcdef")
	assert.True(t, a.IsProductionReady())
}
