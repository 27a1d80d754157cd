// Package testutil builds throwaway SQLite databases and fixtures for tests.
package testutil

import (
	"encoding/base64"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/coriplus/coriplus/internal/database"
	"github.com/coriplus/coriplus/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated database backed by a file in t.TempDir().
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "coriplus.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts an active user whose password is the username
// followed by "-pass".
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password(username)), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Username: username,
		FullName: username,
		Email:    username + "@example.com",
		Password: string(hash),
		Birthday: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateAdmin inserts a user holding an adminship.
func CreateAdmin(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := CreateUser(t, db, username)
	require.NoError(t, db.Create(&models.UserAdminship{UserID: user.ID}).Error)
	user.Adminship = &models.UserAdminship{UserID: user.ID}
	return user
}

func Password(username string) string {
	return username + "-pass"
}

func CreateMessage(t *testing.T, db *gorm.DB, author *models.User, text string) *models.Message {
	t.Helper()
	msg := &models.Message{UserID: author.ID, Text: text, PubDate: time.Now().UTC()}
	require.NoError(t, db.Omit("User").Create(msg).Error)
	return msg
}

func CreateReport(t *testing.T, db *gorm.DB, ref models.MediaRef, created time.Time) *models.Report {
	t.Helper()
	report := &models.Report{Reason: models.ReasonSpam, CreatedDate: created}
	report.SetMedia(ref)
	require.NoError(t, db.Create(report).Error)
	return report
}

// AccessToken signs a short-lived HS256 token for user, shaped like the
// ones issued at login.
func AccessToken(t *testing.T, secret string, user *models.User) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"username": user.Username,
		"iat":      now.Unix(),
		"exp":      now.Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

// BasicAuth builds an Authorization header value for HTTP Basic auth.
func BasicAuth(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}
