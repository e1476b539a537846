// Package account stores backend user accounts and checks passwords.
package account

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/zulandar/educode/internal/models"
)

// ErrMismatch is returned when the username is unknown or the password
// does not match. The two cases are not distinguished.
var ErrMismatch = errors.New("account: invalid username or password")

// NewUser builds a user with a hashed password.
func NewUser(username, password, mobile string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.User{}, errors.New("account: username is required")
	}
	if password == "" {
		return models.User{}, errors.New("account: password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, errors.Wrap(err, "account: hash password")
	}
	return models.User{Username: username, PasswordHash: string(hash), Mobile: mobile}, nil
}

// Create stores a new user.
func Create(db *gorm.DB, username, password, mobile string) (*models.User, error) {
	u, err := NewUser(username, password, mobile)
	if err != nil {
		return nil, err
	}
	if err := db.Create(&u).Error; err != nil {
		return nil, errors.Wrapf(err, "account: create %s", username)
	}
	return &u, nil
}

// Authenticate returns the user when password matches.
func Authenticate(db *gorm.DB, username, password string) (*models.User, error) {
	var u models.User
	if err := db.Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMismatch
		}
		return nil, errors.Wrapf(err, "account: lookup %s", username)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrMismatch
	}
	return &u, nil
}
