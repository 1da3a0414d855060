package assets

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps images in a content-addressed tree on disk. Identical bytes share one file.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates the tree under root. URLs are publicBaseURL + "/uploads/" + key; an empty
// publicBaseURL yields root-relative URLs.
func NewLocalStore(root, publicBaseURL string) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(abs, "tmp"), 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: abs, baseURL: strings.TrimRight(publicBaseURL, "/")}, nil
}

// Root is the directory served under /uploads/.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Put(ctx context.Context, u Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Join(s.root, "tmp"), "put-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, h), bytes.NewReader(u.Data)); err != nil {
		cleanup()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", err
	}

	digest := hex.EncodeToString(h.Sum(nil))
	key := fmt.Sprintf("%s/%s%s", digest[0:2], digest, extensionFor(u.ContentType))
	dst := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		cleanup()
		return "", err
	}

	if _, err := os.Stat(dst); err == nil {
		_ = os.Remove(tmpPath)
		return s.url(key), nil
	} else if !errors.Is(err, os.ErrNotExist) {
		cleanup()
		return "", err
	}

	if err := os.Rename(tmpPath, dst); err != nil {
		if _, statErr := os.Stat(dst); statErr == nil {
			_ = os.Remove(tmpPath)
			return s.url(key), nil
		}
		cleanup()
		return "", err
	}
	return s.url(key), nil
}

// Open returns the stored file for a key produced by Put. Keys that name nothing Put wrote
// (directories, the temp area, paths outside the tree) report fs.ErrNotExist.
func (s *LocalStore) Open(ctx context.Context, key string) (*os.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.pathFromKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", fs.ErrNotExist, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%s: %w", key, fs.ErrNotExist)
	}
	return f, nil
}

func (s *LocalStore) url(key string) string {
	return s.baseURL + "/uploads/" + key
}

func (s *LocalStore) pathFromKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("asset key is required")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("asset key must be relative")
	}
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("asset key escapes upload dir")
	}
	if clean == "tmp" || strings.HasPrefix(clean, "tmp"+string(filepath.Separator)) {
		return "", fmt.Errorf("asset key names the staging area")
	}
	return filepath.Join(s.root, clean), nil
}
