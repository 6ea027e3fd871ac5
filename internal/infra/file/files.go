package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"qcm-app/internal/domain"
)

// Files loads and saves whole JSON documents under one data directory.
type Files struct {
	dir            string
	resetOnCorrupt bool
	log            *zap.Logger
}

// NewFiles creates dir if needed. With resetOnCorrupt a document that cannot
// be read or parsed is logged and replaced by its default; otherwise loading
// it fails with domain.ErrCorruptStore.
func NewFiles(dir string, resetOnCorrupt bool, log *zap.Logger) (*Files, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Files{dir: dir, resetOnCorrupt: resetOnCorrupt, log: log}, nil
}

// Strict returns a copy that never resets corrupt documents.
func (f *Files) Strict() *Files {
	strict := *f
	strict.resetOnCorrupt = false
	return &strict
}

// Path resolves name against the data directory; absolute names are kept.
func (f *Files) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(f.dir, name)
}

// Load reads name and passes its bytes to decode. It returns false when the
// caller should fall back to the default value: the file is missing, or it
// is corrupt and the adapter resets corrupt documents.
func (f *Files) Load(name string, decode func([]byte) error) (bool, error) {
	path := f.Path(name)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err == nil {
		err = decode(data)
	}
	if err == nil {
		return true, nil
	}
	if f.resetOnCorrupt {
		f.log.Warn("using default data", zap.String("file", path), zap.Error(err))
		return false, nil
	}
	return false, fmt.Errorf("%w: %s: %w", domain.ErrCorruptStore, path, err)
}

// Save replaces name with data. The bytes go to a temp file in the same
// directory which is then renamed over the target.
func (f *Files) Save(name string, data []byte) error {
	path := f.Path(name)
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrPersist, path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %s: %w", domain.ErrPersist, path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %s: %w", domain.ErrPersist, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrPersist, path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrPersist, path, err)
	}
	return nil
}
