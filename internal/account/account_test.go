package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zulandar/educode/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	return db
}

func TestNewUser_HashesPassword(t *testing.T) {
	u, err := NewUser(" alice ", "secret", "13800138000")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.NotEqual(t, "secret", u.PasswordHash)
	assert.NotEmpty(t, u.PasswordHash)
}

func TestNewUser_Validation(t *testing.T) {
	_, err := NewUser("", "secret", "")
	assert.Error(t, err)
	_, err = NewUser("alice", "", "")
	assert.Error(t, err)
}

func TestAuthenticate(t *testing.T) {
	db := testDB(t)
	_, err := Create(db, "alice", "secret", "")
	require.NoError(t, err)

	u, err := Authenticate(db, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = Authenticate(db, "alice", "wrong")
	assert.ErrorIs(t, err, ErrMismatch)

	_, err = Authenticate(db, "bob", "secret")
	assert.ErrorIs(t, err, ErrMismatch)
}

func TestCreate_DuplicateUsername(t *testing.T) {
	db := testDB(t)
	_, err := Create(db, "alice", "secret", "")
	require.NoError(t, err)
	_, err = Create(db, "alice", "other", "")
	assert.Error(t, err)
}
