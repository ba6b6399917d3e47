package modelstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"ecopulse-analytics-api/forecast"
)

// FileStore keeps one JSON document per model, named "<key>_model.json".
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(target string) string {
	return filepath.Join(s.dir, forecast.ModelKey(target)+"_model.json")
}

func (s *FileStore) Load(_ context.Context, target string) (*forecast.Params, error) {
	data, err := os.ReadFile(s.path(target))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", forecast.ErrModelNotFound, target)
	}
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", target, err)
	}
	var p forecast.Params
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", target, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save writes through a temporary file so readers never see a partial model.
func (s *FileStore) Save(_ context.Context, p *forecast.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".model-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(p.Target))
}
