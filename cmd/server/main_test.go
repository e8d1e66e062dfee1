package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"langbench/internal/config"
)

func TestBootLogger_LevelFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\n"), 0o600))
	t.Setenv("LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("LOG_LEVEL"))

	log := bootLogger(path, io.Discard)
	assert.Equal(t, logrus.DebugLevel, log.Logger.GetLevel())
}

func TestBootLogger_MissingEnvFileWarns(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	var out bytes.Buffer
	log := bootLogger(filepath.Join(t.TempDir(), "absent.env"), &out)
	assert.Equal(t, logrus.InfoLevel, log.Logger.GetLevel())
	assert.Contains(t, out.String(), ".env file not loaded")
}

func TestRun_MissingDBUserFailsBeforeBinding(t *testing.T) {
	t.Setenv("DB_USER", "")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "bench")

	// Hold a port, then ask run to use it: a config failure must not
	// reach the bind step, so the error is about config, not the address.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	var out bytes.Buffer
	err = run(context.Background(), []string{"--port", fmt.Sprint(port)}, &out)

	require.ErrorIs(t, err, config.ErrMissingEnv)
	assert.Contains(t, err.Error(), "DB_USER")
	assert.Zero(t, out.Len())
}

func TestRun_UnreachableDatabase(t *testing.T) {
	// Nothing listens on the port we just released.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	dbPort := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	t.Setenv("DB_USER", "bench")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "bench")
	t.Setenv("DB_IP", "127.0.0.1")
	t.Setenv("DB_PORT", fmt.Sprint(dbPort))

	err = run(context.Background(), nil, io.Discard)
	assert.ErrorContains(t, err, "database:")
}

// Needs a reachable Postgres described by TEST_DATABASE_URL.
func TestRun_ServesAndShutsDown(t *testing.T) {
	raw := os.Getenv("TEST_DATABASE_URL")
	if raw == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	u, err := url.Parse(raw)
	require.NoError(t, err)
	pw, _ := u.User.Password()

	t.Setenv("DB_USER", u.User.Username())
	t.Setenv("DB_PASSWORD", pw)
	t.Setenv("DB_NAME", u.Path[1:])
	t.Setenv("DB_IP", u.Hostname())
	t.Setenv("DB_PORT", u.Port())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- run(ctx, []string{"--port", fmt.Sprint(port)}, io.Discard) }()

	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(healthURL)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/api/test1", port))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}
