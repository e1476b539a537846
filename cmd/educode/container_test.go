package main

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zulandar/educode/internal/chat"
	"github.com/zulandar/educode/internal/config"
	"github.com/zulandar/educode/internal/db"
	"github.com/zulandar/educode/internal/llm"
	"github.com/zulandar/educode/internal/server"
)

// backendConfig starts a seeded server and returns a config file that
// points the CLI at it.
func backendConfig(t *testing.T) string {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(gdb))
	require.NoError(t, db.Seed(gdb, time.Now()))

	cfg, err := config.Parse(nil)
	require.NoError(t, err)
	agent, err := llm.NewClient(llm.ClientOpts{BaseURL: "http://127.0.0.1:1", Model: cfg.LLM.Model})
	require.NoError(t, err)
	cp, err := chat.New(chat.Options{Agent: agent})
	require.NoError(t, err)

	s, err := server.New(server.StartOpts{DB: gdb, Config: cfg, Copilot: cp})
	require.NoError(t, err)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	return writeConfig(t, fmt.Sprintf("backend:\n  base_url: %s\n  cache_ttl: 1ms\nlog:\n  level: error\n", srv.URL))
}

func TestContainer_GetSetList(t *testing.T) {
	cfg := backendConfig(t)
	flags := loggedInFlagFile(t)
	base := []string{"--config", cfg, "--flag-file", flags, "container"}

	out, err := runCmd(t, "", append(base, "get", "c1")...)
	require.NoError(t, err)
	assert.Contains(t, out, "react-lab")
	assert.Contains(t, out, "minutes ago")

	out, err = runCmd(t, "", append(base, "set", "c1", "tags", `["go","web"]`)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Updated c1.tags")

	out, err = runCmd(t, "", append(base, "get", "c1")...)
	require.NoError(t, err)
	assert.Contains(t, out, "go, web")

	out, err = runCmd(t, "", append(base, "list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "node-api")
	assert.Contains(t, out, "never run")

	_, err = runCmd(t, "", append(base, "get", "c42")...)
	require.Error(t, err)
}

func TestContainer_LifecycleCommands(t *testing.T) {
	cfg := backendConfig(t)
	flags := loggedInFlagFile(t)
	base := []string{"--config", cfg, "--flag-file", flags, "container"}

	out, err := runCmd(t, "", append(base, "start", "c2")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Container c2 is running")

	out, err = runCmd(t, "", append(base, "create", "--name", "scratch")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Created container c4 (scratch)")

	out, err = runCmd(t, "", append(base, "delete", "c4")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted container c4")
}

func TestCourse_ListAndAdd(t *testing.T) {
	cfg := backendConfig(t)
	flags := loggedInFlagFile(t)
	base := []string{"--config", cfg, "--flag-file", flags, "course"}

	out, err := runCmd(t, "", append(base, "list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "CSS Grid Mastery")

	out, err = runCmd(t, "", append(base, "add")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Added course 4: New Course 4")
}
