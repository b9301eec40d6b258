// Package config loads project configuration for csslift.
//
// Configuration is read from the first of:
//   - .config/csslift.yaml, .config/csslift.yml or .config/csslift.json
//   - the "csslift" key of package.json
//
// Missing configuration is not an error; defaults apply.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// DefaultImportSource is the package exporting the style API
const DefaultImportSource = "@csslift/react"

// DefaultCacheSize bounds the resolution cache of one pass
const DefaultCacheSize = 500

// packageJSONKey is the package.json field holding configuration
const packageJSONKey = "csslift"

// configFiles are probed in order under <root>/.config
var configFiles = []string{"csslift.yaml", "csslift.yml", "csslift.json"}

// CacheConfig controls the resolution cache
type CacheConfig struct {
	// Enabled defaults to true
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	// Size is the maximum number of entries
	Size int `yaml:"size,omitempty" json:"size,omitempty"`
}

// Config is the project configuration
type Config struct {
	// ImportSources are the modules whose exports form the style API
	ImportSources []string `yaml:"importSources,omitempty" json:"importSources,omitempty"`
	// Extensions are the source extensions imports may resolve to
	Extensions []string `yaml:"extensions,omitempty" json:"extensions,omitempty"`
	// Include and Exclude are doublestar globs relative to the root
	Include []string `yaml:"include,omitempty" json:"include,omitempty"`
	Exclude []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	// Aliases map import prefixes to root-relative paths
	Aliases map[string]string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Cache   CacheConfig       `yaml:"cache,omitempty" json:"cache,omitempty"`
	// ClassNameCompressionMap shortens atomic class tokens
	ClassNameCompressionMap map[string]string `yaml:"classNameCompressionMap,omitempty" json:"classNameCompressionMap,omitempty"`
	// LogLevel is one of debug, info, warn, error
	LogLevel string `yaml:"logLevel,omitempty" json:"logLevel,omitempty"`

	// Root is the directory the configuration was loaded for
	Root string `yaml:"-" json:"-"`
	// Source is the file the configuration came from, empty for defaults
	Source string `yaml:"-" json:"-"`
}

// Default returns the default configuration for root
func Default(root string) *Config {
	return &Config{
		ImportSources: []string{DefaultImportSource},
		Extensions:    []string{".tsx", ".ts", ".jsx", ".js", ".mjs", ".cjs", ".mts", ".cts"},
		Include:       []string{"**/*.{js,jsx,ts,tsx,mjs,cjs,mts,cts}"},
		Exclude:       []string{"**/node_modules/**", "**/*.d.ts"},
		Cache:         CacheConfig{Size: DefaultCacheSize},
		Root:          root,
	}
}

// Load reads the configuration for root, falling back to defaults
func Load(root string) (*Config, error) {
	for _, name := range configFiles {
		path := filepath.Join(root, ".config", name)
		if _, err := os.Stat(path); err == nil {
			cfg, err := LoadFile(path)
			if err != nil {
				return nil, err
			}
			cfg.Root = root
			return cfg, nil
		}
	}

	cfg, err := readPackageJSONConfig(root)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		return cfg, nil
	}
	return Default(root), nil
}

// LoadFile reads a YAML or JSON configuration file, applying defaults for
// omitted fields. The root is the parent of the file's .config directory.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: user supplied config path
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	root := filepath.Dir(path)
	if filepath.Base(root) == ".config" {
		root = filepath.Dir(root)
	}

	var loaded Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(jsonc.ToJSON(data), &loaded)
	default:
		err = yaml.Unmarshal(data, &loaded)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg := Default(root).merge(&loaded)
	cfg.Source = path
	return cfg, cfg.Validate()
}

// readPackageJSONConfig reads the csslift key of package.json. It returns
// nil when there is no package.json or it has no such key.
func readPackageJSONConfig(root string) (*Config, error) {
	path := filepath.Join(root, "package.json")
	data, err := os.ReadFile(path) //nolint:gosec // G304: project package.json
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read package.json: %w", err)
	}

	var pkg map[string]json.RawMessage
	if err := json.Unmarshal(jsonc.ToJSON(data), &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}
	raw, ok := pkg[packageJSONKey]
	if !ok {
		return nil, nil
	}
	var loaded Config
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return nil, fmt.Errorf("%s in package.json must be an object: %w", packageJSONKey, err)
	}
	cfg := Default(root).merge(&loaded)
	cfg.Source = path
	return cfg, cfg.Validate()
}

// merge overrides c with every field set in o
func (c *Config) merge(o *Config) *Config {
	if len(o.ImportSources) > 0 {
		c.ImportSources = o.ImportSources
	}
	if len(o.Extensions) > 0 {
		c.Extensions = o.Extensions
	}
	if len(o.Include) > 0 {
		c.Include = o.Include
	}
	if len(o.Exclude) > 0 {
		c.Exclude = o.Exclude
	}
	if len(o.Aliases) > 0 {
		c.Aliases = o.Aliases
	}
	if o.Cache.Enabled != nil {
		c.Cache.Enabled = o.Cache.Enabled
	}
	if o.Cache.Size > 0 {
		c.Cache.Size = o.Cache.Size
	}
	if len(o.ClassNameCompressionMap) > 0 {
		c.ClassNameCompressionMap = o.ClassNameCompressionMap
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	return c
}

// Validate checks globs and extensions
func (c *Config) Validate() error {
	for _, pattern := range append(append([]string(nil), c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid glob pattern %q", pattern)
		}
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("extension %q must start with a dot", ext)
		}
	}
	return nil
}

// CacheEnabled reports whether the resolution cache is on
func (c *Config) CacheEnabled() bool {
	return c.Cache.Enabled == nil || *c.Cache.Enabled
}

// IsImportSource reports whether request names the style API
func (c *Config) IsImportSource(request string) bool {
	for _, src := range c.ImportSources {
		if request == src || strings.HasPrefix(request, src+"/") {
			return true
		}
	}
	return false
}

// Matches reports whether path (absolute or root-relative) is included and
// not excluded
func (c *Config) Matches(path string) bool {
	rel := path
	if filepath.IsAbs(path) && c.Root != "" {
		if r, err := filepath.Rel(c.Root, path); err == nil {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range c.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	for _, pattern := range c.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// Expand globs patterns under the root and returns the matching files that
// pass Matches. Patterns without glob characters name files directly.
func (c *Config) Expand(patterns []string) ([]string, error) {
	fsys := os.DirFS(c.Root)
	seen := map[string]bool{}
	var out []string
	add := func(rel string) {
		abs := filepath.Join(c.Root, filepath.FromSlash(rel))
		if !seen[abs] {
			seen[abs] = true
			out = append(out, abs)
		}
	}
	for _, pattern := range patterns {
		if filepath.IsAbs(pattern) {
			rel, err := filepath.Rel(c.Root, pattern)
			if err != nil {
				return nil, err
			}
			pattern = rel
		}
		pattern = filepath.ToSlash(pattern)
		pattern = strings.TrimPrefix(pattern, "./")
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if c.Matches(m) {
				add(m)
			}
		}
	}
	return out, nil
}
