package localstore

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdfkb/pdfkb/storage"
)

// LocalStore implements storage.DataStore on a directory of the local
// filesystem. It serves as the default artifact archive and as a stand-in
// for the S3 store in tests.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates a store rooted at baseDir, creating it if needed
func NewLocalStore(baseDir string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, storage.NewStorageError("NewLocalStore", baseDir, err,
			storage.ErrCodeInternal, "failed to create base directory")
	}
	return &LocalStore{baseDir: baseDir}, nil
}

func (l *LocalStore) Put(ctx context.Context, key string, data io.Reader, options ...storage.PutOption) error {
	opts := &storage.PutOptions{}
	for _, opt := range options {
		opt(opts)
	}

	path := filepath.Join(l.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return storage.NewStorageError("Put", key, err,
			storage.ErrCodeInternal, "failed to create parent directory")
	}

	f, err := os.Create(path)
	if err != nil {
		return storage.NewStorageError("Put", key, err,
			storage.ErrCodeInternal, "failed to create object file")
	}

	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		return storage.NewStorageError("Put", key, err,
			storage.ErrCodeInternal, "failed to write object data")
	}

	if err := f.Close(); err != nil {
		return storage.NewStorageError("Put", key, err,
			storage.ErrCodeInternal, "failed to close object file")
	}
	return nil
}

func (l *LocalStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(l.baseDir, filepath.FromSlash(key)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.NewStorageError("Get", key, err,
				storage.ErrCodeNotFound, "object not found")
		}
		return nil, storage.NewStorageError("Get", key, err,
			storage.ErrCodeInternal, "failed to open object")
	}
	return f, nil
}

func (l *LocalStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(l.baseDir, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return storage.NewStorageError("Delete", key, err,
			storage.ErrCodeInternal, "failed to delete object")
	}
	return nil
}

func (l *LocalStore) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var objects []storage.ObjectInfo

	err := filepath.WalkDir(l.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		rel, err := filepath.Rel(l.baseDir, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, storage.ObjectInfo{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, storage.NewStorageError("List", prefix, err,
			storage.ErrCodeInternal, "failed to list objects")
	}

	return objects, nil
}

func (l *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(filepath.Join(l.baseDir, filepath.FromSlash(key)))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, storage.NewStorageError("Exists", key, err,
			storage.ErrCodeInternal, "failed to stat object")
	}
	return true, nil
}

// GetPresignedGetURL returns a file URL; local objects need no signing
func (l *LocalStore) GetPresignedGetURL(ctx context.Context, key string, expires time.Duration) (storage.PresignedURL, error) {
	abs, err := filepath.Abs(filepath.Join(l.baseDir, filepath.FromSlash(key)))
	if err != nil {
		return storage.PresignedURL{}, storage.NewStorageError("GetPresignedGetURL", key, err,
			storage.ErrCodeInternal, "failed to resolve object path")
	}
	return storage.PresignedURL{
		URL:    "file://" + filepath.ToSlash(abs),
		Method: "GET",
	}, nil
}
