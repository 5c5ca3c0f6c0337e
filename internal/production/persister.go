// Package production provides production integrations: persistence, snapshot
// history, transition publishing, visualization.
package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/comalice/ecsx/internal/core"
	"gopkg.in/yaml.v3"
)

// NewPersister returns the file persister for format ("json" or "yaml").
func NewPersister(format, dir string) (core.Persister, error) {
	switch format {
	case "json":
		return NewJSONPersister(dir)
	case "yaml", "yml":
		return NewYAMLPersister(dir)
	default:
		return nil, fmt.Errorf("unknown snapshot format %q", format)
	}
}

// fileName maps a snapshot key to a flat file name inside the persister dir.
func fileName(key, ext string) string {
	return url.PathEscape(key) + ext
}

// JSONPersister is a file-based persister keeping the latest snapshot of
// each key as indented JSON.
type JSONPersister struct {
	dir string
}

// NewJSONPersister creates a JSONPersister, ensuring the directory exists.
func NewJSONPersister(dir string) (*JSONPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &JSONPersister{dir: dir}, nil
}

func (p *JSONPersister) Save(ctx context.Context, snapshot core.StateSnapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}

	fn := filepath.Join(p.dir, fileName(snapshot.Key(), ".json"))
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fn, err)
	}
	return nil
}

func (p *JSONPersister) Load(ctx context.Context, key string) (core.StateSnapshot, error) {
	fn := filepath.Join(p.dir, fileName(key, ".json"))
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.StateSnapshot{}, fmt.Errorf("snapshot %q: %w", key, core.ErrNotFound)
		}
		return core.StateSnapshot{}, fmt.Errorf("read %s: %w", fn, err)
	}

	var snapshot core.StateSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return core.StateSnapshot{}, fmt.Errorf("json unmarshal: %w", err)
	}
	return snapshot, nil
}

// YAMLPersister is a file-based persister using YAML serialization.
type YAMLPersister struct {
	dir string
}

// NewYAMLPersister creates a YAMLPersister, ensuring the directory exists.
func NewYAMLPersister(dir string) (*YAMLPersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &YAMLPersister{dir: dir}, nil
}

func (p *YAMLPersister) Save(ctx context.Context, snapshot core.StateSnapshot) error {
	data, err := yaml.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}

	fn := filepath.Join(p.dir, fileName(snapshot.Key(), ".yaml"))
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fn, err)
	}
	return nil
}

func (p *YAMLPersister) Load(ctx context.Context, key string) (core.StateSnapshot, error) {
	fn := filepath.Join(p.dir, fileName(key, ".yaml"))
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.StateSnapshot{}, fmt.Errorf("snapshot %q: %w", key, core.ErrNotFound)
		}
		return core.StateSnapshot{}, fmt.Errorf("read %s: %w", fn, err)
	}

	var snapshot core.StateSnapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return core.StateSnapshot{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if snapshot.StateType == "" {
		return core.StateSnapshot{}, fmt.Errorf("snapshot %q: missing state type", key)
	}
	return snapshot, nil
}
