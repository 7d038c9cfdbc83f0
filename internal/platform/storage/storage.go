// Package storage persists attachment bytes and hands back retrievable
// URLs. Two backends exist: local disk and S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"secondbrain/internal/platform/config"
)

type Store interface {
	// Save writes the payload under key and returns a URL the client can
	// fetch it from.
	Save(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}

// NewKey returns a date-partitioned random object key, keeping the original
// extension so content sniffing keeps working downstream. The key is
// relative; each backend decides where it lives.
func NewKey(filename string) string {
	d := time.Now().UTC()
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.NewString(), ext)
}

// LocalStore writes files under a base directory and serves them from a
// public URL prefix.
type LocalStore struct {
	basePath  string
	publicURL string
}

func NewLocalStore(cfg config.LocalStorage) *LocalStore {
	return &LocalStore{basePath: cfg.BasePath, publicURL: strings.TrimSuffix(cfg.PublicURL, "/")}
}

func (s *LocalStore) Save(_ context.Context, key, _ string, r io.Reader) (string, error) {
	dest := filepath.Join(s.basePath, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", err
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(dest)
		return "", err
	}

	return s.publicURL + "/" + key, nil
}
