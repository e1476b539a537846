package db

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zulandar/educode/internal/account"
	"github.com/zulandar/educode/internal/config"
	"github.com/zulandar/educode/internal/models"
)

// testDB opens a private in-memory SQLite database.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := Connect(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
	}, false)
	require.NoError(t, err)
	return gdb
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want string
	}{
		{
			name: "default local",
			cfg:  config.DatabaseConfig{User: "root", Host: "127.0.0.1", Port: 3306, Name: "educode"},
			want: "root@tcp(127.0.0.1:3306)/educode?parseTime=true",
		},
		{
			name: "with password",
			cfg:  config.DatabaseConfig{User: "edu", Password: "secret", Host: "db.internal", Port: 3307, Name: "workspace"},
			want: "edu:secret@tcp(db.internal:3307)/workspace?parseTime=true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DSN(tt.cfg))
		})
	}
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "postgres"}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestAllModels_Count(t *testing.T) {
	assert.Len(t, AllModels(), 3)
}

func TestAutoMigrate_CreatesTables(t *testing.T) {
	gdb := testDB(t)
	require.NoError(t, AutoMigrate(gdb))

	for _, m := range AllModels() {
		assert.True(t, gdb.Migrator().HasTable(m), "table for %T", m)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	gdb := testDB(t)
	require.NoError(t, AutoMigrate(gdb))

	now := time.Now()
	require.NoError(t, Seed(gdb, now))
	require.NoError(t, Seed(gdb, now))

	var users, containers, courses int64
	gdb.Model(&models.User{}).Count(&users)
	gdb.Model(&models.Container{}).Count(&containers)
	gdb.Model(&models.Course{}).Count(&courses)

	assert.Equal(t, int64(len(DemoUsers())), users)
	assert.Equal(t, int64(len(DemoContainers(now))), containers)
	assert.Equal(t, int64(len(DemoCourses())), courses)
}

func TestSeed_ContainerTagsRoundTrip(t *testing.T) {
	gdb := testDB(t)
	require.NoError(t, AutoMigrate(gdb))
	require.NoError(t, Seed(gdb, time.Now()))

	var c models.Container
	require.NoError(t, gdb.First(&c, "id = ?", "c1").Error)
	assert.Equal(t, []string{"react", "typescript"}, c.Tags)
	require.NotNil(t, c.LastRunAt)

	var never models.Container
	require.NoError(t, gdb.First(&never, "id = ?", "c3").Error)
	assert.Nil(t, never.LastRunAt)
}

func TestSeed_DemoUsersCanAuthenticate(t *testing.T) {
	gdb := testDB(t)
	require.NoError(t, AutoMigrate(gdb))
	require.NoError(t, Seed(gdb, time.Now()))

	for _, cred := range DemoUsers() {
		_, err := account.Authenticate(gdb, cred.Username, cred.Password)
		assert.NoError(t, err, cred.Username)
	}
}
