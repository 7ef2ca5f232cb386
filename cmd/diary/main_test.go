package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"syscall"
	"testing"

	"backend-milestomemories/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppServesSeededEntries(t *testing.T) {
	app, err := newApp(config.Config{UploadDir: t.TempDir(), MaxUploadMB: 5})
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/entries", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	assert.Len(t, entries, 2)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/entries/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNewAppRejectsUnusableUploadDir(t *testing.T) {
	file := t.TempDir() + "/not-a-dir"
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	_, err := newApp(config.Config{UploadDir: file + "/uploads"})
	assert.Error(t, err)
}

func TestRunStopsOnSignal(t *testing.T) {
	app, err := newApp(config.Config{UploadDir: t.TempDir()})
	require.NoError(t, err)

	old := listenFn
	listenFn = func(*fiber.App, string) error { return nil }
	defer func() { listenFn = old }()

	signals := make(chan os.Signal, 1)
	signals <- syscall.SIGTERM
	assert.NoError(t, run(app, ":0", signals))
}

func TestRunReturnsListenError(t *testing.T) {
	app, err := newApp(config.Config{UploadDir: t.TempDir()})
	require.NoError(t, err)

	old := listenFn
	listenFn = func(*fiber.App, string) error { return errors.New("address in use") }
	defer func() { listenFn = old }()

	assert.EqualError(t, run(app, ":0", make(chan os.Signal)), "address in use")
}
