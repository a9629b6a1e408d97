package ui

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/tailscale/hujson"
)

//go:embed locales/*.jsonc
var builtinLocales embed.FS

// Catalog maps translation ids to a string or a list of strings.
type Catalog map[string]any

// Catalogs maps language ids such as "en_US" to their catalog.
type Catalogs map[string]Catalog

// Languages returns the language ids in sorted order.
func (c Catalogs) Languages() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DefaultCatalogs returns the catalogs built into the binary.
func DefaultCatalogs() Catalogs {
	c, err := LoadCatalogs(builtinLocales, "locales")
	if err != nil {
		panic(fmt.Sprintf("ui: builtin locales: %v", err))
	}
	return c
}

// LoadCatalogs reads every <language>.jsonc and <language>.json file in dir.
// Files may contain comments and trailing commas. Values must be strings or
// lists of strings.
func LoadCatalogs(fsys fs.FS, dir string) (Catalogs, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	out := Catalogs{}
	for _, e := range entries {
		ext := path.Ext(e.Name())
		if e.IsDir() || (ext != ".jsonc" && ext != ".json") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		cat, err := parseCatalog(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		out[strings.TrimSuffix(e.Name(), ext)] = cat
	}
	return out, nil
}

func parseCatalog(data []byte) (Catalog, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid JSONC: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(standardized, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	cat := make(Catalog, len(raw))
	for id, v := range raw {
		switch t := v.(type) {
		case string:
			cat[id] = t
		case []any:
			list := make([]string, len(t))
			for i, e := range t {
				s, ok := e.(string)
				if !ok {
					return nil, fmt.Errorf("%s[%d]: not a string", id, i)
				}
				list[i] = s
			}
			cat[id] = list
		default:
			return nil, fmt.Errorf("%s: unsupported value %T", id, v)
		}
	}
	return cat, nil
}
