package session

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// FileKV persists values as individual files under a directory. Files are
// created 0600 and the directory 0700: the session record is a credential.
type FileKV struct {
	mu  sync.Mutex
	dir string
}

var _ KV = (*FileKV)(nil)

func NewFileKV(dir string) (*FileKV, error) {
	if dir == "" {
		return nil, errors.New("[NewFileKV] dir is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, errors.Wrap(err, "[NewFileKV] create storage directory")
	}
	return &FileKV{dir: dir}, nil
}

func (f *FileKV) Get(key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[FileKV.Get] read %q", key)
	}
	return raw, nil
}

func (f *FileKV) Put(key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := f.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, value, 0o600); err != nil {
		return errors.Wrapf(err, "[FileKV.Put] write %q", key)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "[FileKV.Put] rename %q", key)
	}
	return nil
}

func (f *FileKV) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "[FileKV.Delete] remove %q", key)
	}
	return nil
}

func (f *FileKV) path(key string) string {
	// Keys contain dots, not path separators, but sanitize anyway.
	name := strings.ReplaceAll(key, string(os.PathSeparator), "_")
	return filepath.Join(f.dir, name+".json")
}
