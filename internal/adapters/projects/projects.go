// Package projects stores user projects as base64 encoded files.
package projects

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/bft-labs/appshell/internal/domain"
)

// Extension is the file extension of saved projects.
const Extension = ".osp"

// Repository saves projects under a single directory.
type Repository struct {
	dir string
}

// NewRepository returns a Repository rooted at dir. The directory is created
// on first save.
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// Dir returns the projects directory.
func (r *Repository) Dir() string { return r.dir }

func (r *Repository) path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: project name %q", domain.ErrInvalidMessage, name)
	}
	return filepath.Join(r.dir, name+Extension), nil
}

// Save writes content under name, replacing any previous version.
func (r *Repository) Save(name, content string) error {
	path, err := r.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(r.dir, 0o700); err != nil {
		return err
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(content))
	if err := atomic.WriteFile(path, strings.NewReader(encoded)); err != nil {
		return fmt.Errorf("save project %s: %w", name, err)
	}
	return nil
}

// Load returns the decoded content saved under name.
func (r *Repository) Load(name string) (string, error) {
	path, err := r.path(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", domain.ErrProjectNotFound, name)
		}
		return "", err
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return "", fmt.Errorf("decode project %s: %w", name, err)
	}
	return string(decoded), nil
}

// List returns the names of saved projects in sorted order.
func (r *Repository) List() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != Extension {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), Extension))
	}
	sort.Strings(names)
	return names, nil
}
