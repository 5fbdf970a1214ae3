package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KevinKickass/OpenSequenceCore/internal/api/websocket"
	"github.com/KevinKickass/OpenSequenceCore/internal/auth"
	"github.com/KevinKickass/OpenSequenceCore/internal/config"
	"github.com/KevinKickass/OpenSequenceCore/internal/definition"
	"github.com/KevinKickass/OpenSequenceCore/internal/editor"
	"github.com/KevinKickass/OpenSequenceCore/internal/export"
	"github.com/KevinKickass/OpenSequenceCore/internal/export/xlsx"
	"github.com/KevinKickass/OpenSequenceCore/internal/i18n"
	"github.com/KevinKickass/OpenSequenceCore/internal/interfaces"
	"github.com/KevinKickass/OpenSequenceCore/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeLifecycle struct {
	cfg    *config.Config
	ws     *editor.Workspace
	exp    *export.Exporter
	cat    *i18n.Catalog
	loader *definition.Loader
	store  storage.DocumentStore
}

func (f *fakeLifecycle) Config() *config.Config             { return f.cfg }
func (f *fakeLifecycle) Workspace() *editor.Workspace       { return f.ws }
func (f *fakeLifecycle) Exporter() *export.Exporter         { return f.exp }
func (f *fakeLifecycle) Catalog() *i18n.Catalog             { return f.cat }
func (f *fakeLifecycle) Loader() *definition.Loader         { return f.loader }
func (f *fakeLifecycle) Store() storage.DocumentStore       { return f.store }
func (f *fakeLifecycle) Shutdown(ctx context.Context) error { return nil }
func (f *fakeLifecycle) GetCurrentStatus() interfaces.SystemStatus {
	return interfaces.SystemStatus{State: "RUNNING"}
}

type testEnv struct {
	t   *testing.T
	lm  *fakeLifecycle
	srv *Server
	dir string
}

func newTestEnv(t *testing.T, authCfg config.AuthConfig, withStore bool) *testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.Server.HTTPPort = 0
	cfg.Export.OutputPath = filepath.Join(dir, "out", "table.xlsx")
	cfg.Auth = authCfg

	cat, err := i18n.NewCatalog()
	require.NoError(t, err)
	loader, err := definition.NewLoader()
	require.NoError(t, err)

	lm := &fakeLifecycle{
		cfg:    cfg,
		ws:     editor.NewWorkspace(nil, logger),
		exp:    export.NewExporter(xlsx.Open, logger),
		cat:    cat,
		loader: loader,
	}
	if withStore {
		fs, err := storage.NewFileStore(filepath.Join(dir, "docs"))
		require.NoError(t, err)
		lm.store = fs
	}

	authService := auth.NewAuthService(authCfg, logger)
	hub := websocket.NewHub(logger, authService)
	return &testEnv{
		t:   t,
		lm:  lm,
		srv: NewServer(cfg, lm, logger, hub, authService),
		dir: dir,
	}
}

func (e *testEnv) do(method, path string, body any, header ...string) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(e.t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if len(header) == 2 {
		req.Header.Set(header[0], header[1])
	}
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode(t, w)
	return body["error"].(map[string]any)["code"].(string)
}

// seed builds: IO S1 (state), Y1 (control); one subprogram with two steps.
func (e *testEnv) seed() {
	e.t.Helper()
	require.Equal(e.t, http.StatusCreated, e.do(http.MethodPost, "/api/v1/io", map[string]any{"name": "S1"}).Code)
	require.Equal(e.t, http.StatusCreated, e.do(http.MethodPost, "/api/v1/io",
		map[string]any{"name": "Y1", "frame": "control", "signal": "output", "hw_address": 4}).Code)
	require.Equal(e.t, http.StatusCreated, e.do(http.MethodPost, "/api/v1/subprograms", map[string]any{"name": "Clamp"}).Code)
	require.Equal(e.t, http.StatusCreated, e.do(http.MethodPost, "/api/v1/subprograms/0/steps", map[string]any{"description": "close"}).Code)
	require.Equal(e.t, http.StatusCreated, e.do(http.MethodPost, "/api/v1/subprograms/0/steps", nil).Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{}, false)
	w := env.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestIOEndpoints(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{}, false)
	env.seed()

	w := env.do(http.MethodGet, "/api/v1/io?frame=control", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 1, body["count"])
	el := body["io"].([]any)[0].(map[string]any)
	assert.Equal(t, "Y1", el["name"])
	assert.EqualValues(t, 1, el["index"])
	assert.EqualValues(t, 4, el["hw_address"])

	w = env.do(http.MethodPatch, "/api/v1/io/0", map[string]any{"name": "S1a"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "S1a", decode(t, w)["name"])

	w = env.do(http.MethodPatch, "/api/v1/io/0", map[string]any{"frame": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "IO_400", errorCode(t, w))

	w = env.do(http.MethodPatch, "/api/v1/io/0", map[string]any{"hw_address": 300})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodDelete, "/api/v1/io/7", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "IO_404", errorCode(t, w))

	w = env.do(http.MethodDelete, "/api/v1/io/x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/v1/io/0", nil).Code)
	assert.EqualValues(t, 1, decode(t, env.do(http.MethodGet, "/api/v1/io", nil))["count"])
}

func TestSubprogramAddresses(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{}, false)
	env.seed()
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/v1/subprograms", map[string]any{"name": "Eject"}).Code)
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/v1/subprograms/1/steps", map[string]any{"operator": "or"}).Code)

	body := decode(t, env.do(http.MethodGet, "/api/v1/addresses", nil))
	assert.Equal(t, []any{1.0, 2.0, 3.0}, body["addresses"])
	assert.EqualValues(t, 4, body["last_address"])

	require.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/v1/subprograms/0/steps/0", nil).Code)

	body = decode(t, env.do(http.MethodGet, "/api/v1/subprograms", nil))
	sps := body["subprograms"].([]any)
	first := sps[0].(map[string]any)
	second := sps[1].(map[string]any)
	assert.EqualValues(t, 1, first["address"])
	assert.EqualValues(t, 2, second["address"])
	step := first["steps"].([]any)[0].(map[string]any)
	assert.EqualValues(t, 1, step["sequence_id"])
	assert.Equal(t, "or", second["steps"].([]any)[0].(map[string]any)["operator"])

	w := env.do(http.MethodPost, "/api/v1/subprograms/1/steps", map[string]any{"operator": "xor"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPatch, "/api/v1/subprograms/0", map[string]any{"priority": "critical"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "critical", decode(t, w)["priority"])
}

func TestStepConditions(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{}, false)
	env.seed()

	w := env.do(http.MethodPost, "/api/v1/subprograms/0/steps/0/conditions/state",
		map[string]any{"target": "S1", "require": "active"})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, "S1", body["target"])
	assert.Equal(t, "active", body["require"])
	assert.Equal(t, true, body["resolved"])

	// Y1 lives in the control frame
	w = env.do(http.MethodPatch, "/api/v1/subprograms/0/steps/0/conditions/state/0",
		map[string]any{"target": "Y1"})
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "", body["target"])
	assert.Equal(t, false, body["resolved"])

	w = env.do(http.MethodPost, "/api/v1/subprograms/0/steps/0/conditions/sideways", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPatch, "/api/v1/subprograms/0/steps/0/conditions/state/0",
		map[string]any{"require": "maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodDelete, "/api/v1/subprograms/0/steps/9/conditions/state/0", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, http.StatusNoContent,
		env.do(http.MethodDelete, "/api/v1/subprograms/0/steps/0/conditions/state/0", nil).Code)
}

func TestRules(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{}, false)
	env.seed()

	w := env.do(http.MethodPost, "/api/v1/rules", map[string]any{"target_address": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "RULE_400", errorCode(t, w))
	assert.EqualValues(t, 0, decode(t, env.do(http.MethodGet, "/api/v1/rules", nil))["count"])

	w = env.do(http.MethodPost, "/api/v1/rules", map[string]any{"description": "late", "target_address": 2, "critical": true})
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.do(http.MethodPost, "/api/v1/rules", map[string]any{"description": "early"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["target_address"])

	w = env.do(http.MethodPost, "/api/v1/rules/1/conditions/control", map[string]any{"target": "Y1", "require": "inactive"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(http.MethodPost, "/api/v1/rules/sort", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rules := decode(t, w)["rules"].([]any)
	assert.Equal(t, "early", rules[0].(map[string]any)["description"])
	assert.Len(t, rules[0].(map[string]any)["control_conditions"], 1)
	assert.Equal(t, true, rules[1].(map[string]any)["critical"])

	w = env.do(http.MethodPatch, "/api/v1/rules/0", map[string]any{"target_address": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/v1/rules/0", nil).Code)
}

func TestCursor(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{}, false)
	env.seed()
	require.Equal(t, http.StatusCreated, env.do(http.MethodPost, "/api/v1/subprograms/0/steps/1/conditions/state",
		map[string]any{"target": "S1"}).Code)

	body := decode(t, env.do(http.MethodGet, "/api/v1/cursor", nil))
	cur := body["cursor"].(map[string]any)
	assert.EqualValues(t, -1, cur["subprogram"])
	assert.Nil(t, body["conditions"])

	w := env.do(http.MethodPut, "/api/v1/cursor", map[string]any{"subprogram": 0, "step": 1, "frame": "state"})
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Len(t, body["conditions"], 1)
	assert.EqualValues(t, -1, body["cursor"].(map[string]any)["rule"])

	w = env.do(http.MethodPut, "/api/v1/cursor", map[string]any{"step": 0, "frame": "state"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(http.MethodPut, "/api/v1/cursor", map[string]any{"subprogram": 5, "frame": "state"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPut, "/api/v1/cursor", map[string]any{"frame": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/v1/cursor/back", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cur = decode(t, w)["cursor"].(map[string]any)
	assert.EqualValues(t, 0, cur["subprogram"])
	assert.EqualValues(t, -1, cur["step"])
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{}, false)
	env.seed()

	w := env.do(http.MethodGet, "/api/v1/export/preview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Conditions", body["conditions"].(map[string]any)["name"])

	w = env.do(http.MethodPost, "/api/v1/export", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	path := decode(t, w)["path"].(string)
	assert.Equal(t, env.lm.cfg.Export.OutputPath, path)
	_, err := os.Stat(path)
	assert.NoError(t, err)

	w = env.do(http.MethodPost, "/api/v1/export", map[string]any{"file_name": "press.xlsx"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, filepath.Join(env.dir, "out", "press.xlsx"), decode(t, w)["path"])

	w = env.do(http.MethodPost, "/api/v1/export", map[string]any{"file_name": "../evil.xlsx"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(http.MethodPost, "/api/v1/export", map[string]any{"file_name": "table.csv"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentRoundTrip(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{}, true)
	env.seed()

	w := env.do(http.MethodPost, "/api/v1/documents", map[string]any{"name": "press"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["id"].(string)

	// a second save overwrites the same record
	w = env.do(http.MethodPost, "/api/v1/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, decode(t, w)["id"])

	w = env.do(http.MethodPut, "/api/v1/document", `{"name":"empty","version":"1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 0, decode(t, env.do(http.MethodGet, "/api/v1/io", nil))["count"])

	w = env.do(http.MethodGet, "/api/v1/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = env.do(http.MethodPost, "/api/v1/documents/"+id+"/load", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "press", decode(t, w)["name"])
	assert.EqualValues(t, 2, decode(t, env.do(http.MethodGet, "/api/v1/io", nil))["count"])

	w = env.do(http.MethodGet, "/api/v1/document?format=hcl", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `subprogram "Clamp"`)

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/v1/documents/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/api/v1/documents/"+id+"/load", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodDelete, "/api/v1/documents/not-a-uuid", nil).Code)
}

func TestPutDocumentRejectsInvalidProgram(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{}, false)
	w := env.do(http.MethodPut, "/api/v1/document", `{"name":"x","bogus":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "DOCUMENT_400", errorCode(t, w))

	w = env.do(http.MethodGet, "/api/v1/document?format=toml", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidationEndpoint(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{}, false)
	env.seed()

	w := env.do(http.MethodGet, "/api/v1/document/validation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["valid"])
	assert.NotEmpty(t, body["warnings"])
}

func TestDocumentsWithoutStore(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{}, false)
	w := env.do(http.MethodGet, "/api/v1/documents", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "DOC_503", errorCode(t, w))
}

func TestLanguages(t *testing.T) {
	env := newTestEnv(t, config.AuthConfig{}, false)

	body := decode(t, env.do(http.MethodGet, "/api/v1/languages", nil))
	assert.Equal(t, i18n.DefaultPack, body["active"])
	assert.Contains(t, body["languages"], "DE")

	w := env.do(http.MethodPut, "/api/v1/languages/active", map[string]any{"language": "DE"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DE", decode(t, w)["active"])

	w = env.do(http.MethodPut, "/api/v1/languages/active", map[string]any{"language": "XX"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthRequired(t *testing.T) {
	hash, err := auth.HashPassword("pw")
	require.NoError(t, err)
	env := newTestEnv(t, config.AuthConfig{
		Enabled:        true,
		AccessTokenTTL: time.Minute,
		Users: []config.UserConfig{
			{Username: "vera", PasswordHash: hash, Role: "viewer"},
		},
	}, false)

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/v1/io", nil).Code)

	w := env.do(http.MethodPost, "/api/v1/auth/login", map[string]any{"username": "vera", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodPost, "/api/v1/auth/login", map[string]any{"username": "vera", "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode(t, w)["access_token"].(string)

	bearer := "Bearer " + token
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/v1/io", nil, "Authorization", bearer).Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/api/v1/io", map[string]any{"name": "S9"}, "Authorization", bearer).Code)

	w = env.do(http.MethodGet, "/api/v1/auth/me", nil, "Authorization", bearer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "vera", decode(t, w)["username"])
}
