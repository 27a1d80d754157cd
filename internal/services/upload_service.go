package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/coriplus/coriplus/internal/models"
	"gorm.io/gorm"
)

var (
	ErrUnsupportedUpload = errors.New("unsupported file type: use jpg, png, gif or webp")
	ErrUploadNotFound    = errors.New("upload not found")
)

var allowedUploadTypes = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true,
}

var uploadNamePattern = regexp.MustCompile(`^([0-9]+)\.(jpg|jpeg|png|gif|webp)$`)

// UploadService stores message attachments as <dir>/<id>.<ext>.
type UploadService struct {
	db  *gorm.DB
	dir string
}

func NewUploadService(db *gorm.DB, dir string) *UploadService {
	return &UploadService{db: db, dir: dir}
}

func (s *UploadService) Dir() string {
	return s.dir
}

// Save writes fh to disk and records it against messageID. db may be a
// transaction handle; nil uses the service handle.
func (s *UploadService) Save(ctx context.Context, db *gorm.DB, messageID uint, fh *multipart.FileHeader) (*models.Upload, error) {
	if db == nil {
		db = s.db
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fh.Filename), "."))
	if !allowedUploadTypes[ext] {
		return nil, ErrUnsupportedUpload
	}

	upload := models.Upload{Type: ext, MessageID: messageID}
	if err := db.WithContext(ctx).Create(&upload).Error; err != nil {
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.dir, upload.FileName()))
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	return &upload, nil
}

// Path resolves a public file name like "12.png" to its location on disk.
// Files whose upload row is gone, such as images of messages removed by a
// moderator, are not served.
func (s *UploadService) Path(ctx context.Context, name string) (string, error) {
	m := uploadNamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", ErrUploadNotFound
	}
	id, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return "", ErrUploadNotFound
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Upload{}).
		Where("id = ? AND type = ?", id, m[2]).
		Count(&n).Error; err != nil {
		return "", fmt.Errorf("failed to look up upload: %w", err)
	}
	if n == 0 {
		return "", ErrUploadNotFound
	}

	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", ErrUploadNotFound
	}
	return path, nil
}

// Remove deletes the files of the given uploads, ignoring missing ones.
func (s *UploadService) Remove(uploads []models.Upload) {
	for i := range uploads {
		_ = os.Remove(filepath.Join(s.dir, uploads[i].FileName()))
	}
}
