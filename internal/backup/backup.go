// Package backup writes CSV snapshots of a table to the local data directory
// and, when a bucket is configured, uploads a copy.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"cmms-backend/config"
	"cmms-backend/internal/export"
)

// ErrNotFound is returned for a backup file that does not exist.
var ErrNotFound = errors.New("backup not found")

// Uploader is the part of the object storage client backups need.
type Uploader interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// NewUploader connects to the configured bucket. It returns nil when no bucket
// is configured.
func NewUploader(cfg config.StorageConfig) (Uploader, error) {
	if !cfg.UploadEnabled() {
		return nil, nil
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return client, nil
}

// Result describes one backup.
type Result struct {
	ID          string    `json:"id"`
	Table       string    `json:"table"`
	File        string    `json:"file"`
	Rows        int       `json:"rows"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	Object      string    `json:"object,omitempty"`
	UploadError string    `json:"upload_error,omitempty"`
}

// File is a backup found in the data directory.
type File struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Manager owns the data directory.
type Manager struct {
	dataDir  string
	bucket   string
	uploader Uploader
	now      func() time.Time
	log      *zap.Logger
}

// NewManager creates a Manager. uploader may be nil.
func NewManager(dataDir, bucket string, uploader Uploader, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		dataDir:  dataDir,
		bucket:   bucket,
		uploader: uploader,
		now:      time.Now,
		log:      log,
	}
}

// EnsureDir creates the data directory.
func (m *Manager) EnsureDir() error {
	if err := os.MkdirAll(m.dataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir %s: %w", m.dataDir, err)
	}
	return nil
}

// maxNameAttempts bounds the suffixes tried for backups taken within the
// same second.
const maxNameAttempts = 100

// Filename is "backup_{table}_{YYYYMMDD_HHMMSS}.csv". Later backups in the
// same second get "_2", "_3" and so on before the extension.
func Filename(table string, at time.Time, seq int) string {
	stamp := at.Format("20060102_150405")
	if seq <= 1 {
		return fmt.Sprintf("backup_%s_%s.csv", table, stamp)
	}
	return fmt.Sprintf("backup_%s_%s_%d.csv", table, stamp, seq)
}

// createFile claims a fresh backup file name. Existing files are never
// overwritten.
func (m *Manager) createFile(table string, at time.Time) (*os.File, string, error) {
	for seq := 1; seq <= maxNameAttempts; seq++ {
		name := Filename(table, at, seq)
		f, err := os.OpenFile(filepath.Join(m.dataDir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("failed to create backup file: %w", err)
		}
		return f, name, nil
	}
	return nil, "", fmt.Errorf("failed to create backup file: %d backups of %s in one second", maxNameAttempts, table)
}

// Backup writes t as CSV into the data directory, then uploads it when a
// bucket is configured. An upload failure is reported in the result; the
// local file is kept either way.
func (m *Manager) Backup(ctx context.Context, t export.Table) (*Result, error) {
	if err := m.EnsureDir(); err != nil {
		return nil, err
	}

	at := m.now()
	f, name, err := m.createFile(t.Name, at)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(m.dataDir, name)
	size, err := writeCSVFile(f, t)
	if err != nil {
		return nil, err
	}

	res := &Result{
		ID:        uuid.New().String(),
		Table:     t.Name,
		File:      name,
		Rows:      len(t.Rows),
		Size:      size,
		CreatedAt: at.UTC(),
	}
	m.log.Info("backup written", zap.String("file", path), zap.Int("rows", res.Rows))

	if m.uploader != nil {
		object, err := m.upload(ctx, path, name, res)
		if err != nil {
			m.log.Error("backup upload failed", zap.String("file", name), zap.Error(err))
			res.UploadError = err.Error()
		} else {
			res.Object = object
		}
	}
	return res, nil
}

func writeCSVFile(f *os.File, t export.Table) (int64, error) {
	if err := export.WriteCSV(f, t); err != nil {
		f.Close()
		os.Remove(f.Name())
		return 0, fmt.Errorf("failed to write backup: %w", err)
	}
	info, err := f.Stat()
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("failed to write backup: %w", err)
	}
	return info.Size(), nil
}

func (m *Manager) upload(ctx context.Context, path, name string, res *Result) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	object := fmt.Sprintf("backups/%s/%s", res.Table, name)
	_, err = m.uploader.PutObject(ctx, m.bucket, object, f, res.Size, minio.PutObjectOptions{
		ContentType: "text/csv",
		UserMetadata: map[string]string{
			"backup-id": res.ID,
			"rows":      fmt.Sprint(res.Rows),
		},
	})
	if err != nil {
		return "", err
	}
	return m.bucket + "/" + object, nil
}

// List returns the backups in the data directory, newest first.
func (m *Manager) List() ([]File, error) {
	entries, err := os.ReadDir(m.dataDir)
	if errors.Is(err, os.ErrNotExist) {
		return []File{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read data dir: %w", err)
	}

	files := []File{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "backup_") || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, File{Name: e.Name(), Size: info.Size(), ModifiedAt: info.ModTime().UTC()})
	}
	sort.Slice(files, func(i, j int) bool {
		if !files[i].ModifiedAt.Equal(files[j].ModifiedAt) {
			return files[i].ModifiedAt.After(files[j].ModifiedAt)
		}
		return files[i].Name > files[j].Name
	})
	return files, nil
}

// Path resolves a backup file name inside the data directory.
func (m *Manager) Path(name string) (string, error) {
	if name != filepath.Base(name) || !strings.HasPrefix(name, "backup_") || !strings.HasSuffix(name, ".csv") {
		return "", ErrNotFound
	}
	path := filepath.Join(m.dataDir, name)
	if _, err := os.Stat(path); err != nil {
		return "", ErrNotFound
	}
	return path, nil
}
