package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zulandar/educode/internal/auth"
)

// unreachableConfig points the backend at a port nothing listens on.
func unreachableConfig(t *testing.T) string {
	return writeConfig(t, "backend:\n  base_url: http://127.0.0.1:1\n  timeout: 1s\nlog:\n  level: error\n")
}

func TestLogin_DemoAccountOffline(t *testing.T) {
	cfg := unreachableConfig(t)
	flagFile := filepath.Join(t.TempDir(), "isLoggedIn")

	out, err := runCmd(t, "", "--config", cfg, "--flag-file", flagFile,
		"login", "--username", "admin", "--password", "123456")
	require.NoError(t, err)
	assert.Contains(t, out, "Login successful")
	assert.Contains(t, out, "/workspace")

	on, err := auth.FileFlags{Path: flagFile}.LoggedIn()
	require.NoError(t, err)
	assert.True(t, on)
}

func TestLogin_PasswordFromStdin(t *testing.T) {
	cfg := unreachableConfig(t)
	flagFile := filepath.Join(t.TempDir(), "isLoggedIn")

	out, err := runCmd(t, "admin\n888888\n", "--config", cfg, "--flag-file", flagFile, "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Username: ")
	assert.Contains(t, out, "Password: ")
	assert.Contains(t, out, "Login successful")
}

func TestLogin_WrongPasswordOffline(t *testing.T) {
	cfg := unreachableConfig(t)
	flagFile := filepath.Join(t.TempDir(), "isLoggedIn")

	_, err := runCmd(t, "", "--config", cfg, "--flag-file", flagFile,
		"login", "--offline", "--username", "admin", "--password", "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	on, _ := auth.FileFlags{Path: flagFile}.LoggedIn()
	assert.False(t, on)
}

func TestLogin_Phone(t *testing.T) {
	cfg := unreachableConfig(t)
	flagFile := filepath.Join(t.TempDir(), "isLoggedIn")

	_, err := runCmd(t, "", "--config", cfg, "--flag-file", flagFile,
		"login", "--phone", "--mobile", "555", "--captcha", "1234")
	assert.ErrorIs(t, err, auth.ErrInvalidMobile)

	out, err := runCmd(t, "", "--config", cfg, "--flag-file", flagFile,
		"login", "--phone", "--mobile", "13800138000", "--captcha", "1234")
	require.NoError(t, err)
	assert.Contains(t, out, "Login successful")
}

func TestLogout(t *testing.T) {
	cfg := unreachableConfig(t)
	flagFile := filepath.Join(t.TempDir(), "isLoggedIn")
	require.NoError(t, auth.FileFlags{Path: flagFile}.SetLoggedIn(true))

	out, err := runCmd(t, "", "--config", cfg, "--flag-file", flagFile, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	on, _ := auth.FileFlags{Path: flagFile}.LoggedIn()
	assert.False(t, on)
}

func TestGuardedCommandsRequireLogin(t *testing.T) {
	cfg := unreachableConfig(t)
	flagFile := filepath.Join(t.TempDir(), "isLoggedIn")

	for _, args := range [][]string{
		{"chat"},
		{"container", "list"},
		{"course", "list"},
	} {
		full := append([]string{"--config", cfg, "--flag-file", flagFile}, args...)
		_, err := runCmd(t, "", full...)
		assert.ErrorIs(t, err, errNotLoggedIn, "%v", args)
	}
}
