// Package modpath resolves JavaScript module requests to files on disk.
// It follows Node.js resolution for the cases style definitions need:
// relative and absolute requests with extension and index probing, configured
// path aliases, and packages in node_modules with "exports" or "main".
package modpath

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
)

// ErrNotFound is returned when a request matches no file
var ErrNotFound = errors.New("module not found")

// DefaultExtensions are probed, in order, when a request has no extension
var DefaultExtensions = []string{".tsx", ".ts", ".jsx", ".js", ".mjs", ".cjs", ".mts", ".cts"}

// conditions are the export conditions honored, in priority order
var conditions = []string{"source", "import", "module", "default", "require"}

// Resolver resolves module requests relative to an importing file
type Resolver struct {
	// Extensions are probed for extensionless requests
	Extensions []string
	// Aliases map request prefixes to paths relative to Root,
	// e.g. {"@/": "src/"}
	Aliases map[string]string
	// Root anchors alias targets
	Root string
}

// New creates a resolver probing the given extensions (DefaultExtensions if empty)
func New(extensions []string) *Resolver {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &Resolver{Extensions: extensions}
}

// Resolve returns the absolute path of the file request refers to when
// imported from fromFile
func (r *Resolver) Resolve(fromFile, request string) (string, error) {
	if request == "" {
		return "", fmt.Errorf("%w: empty request", ErrNotFound)
	}
	dir := filepath.Dir(fromFile)

	switch {
	case filepath.IsAbs(request):
		return r.probe(request)
	case request == "." || request == ".." || strings.HasPrefix(request, "./") || strings.HasPrefix(request, "../"):
		return r.probe(filepath.Join(dir, request))
	}

	if target, ok := r.alias(request); ok {
		return r.probe(target)
	}
	return r.resolvePackage(dir, request)
}

// alias rewrites a request through the longest matching alias prefix
func (r *Resolver) alias(request string) (string, bool) {
	if len(r.Aliases) == 0 {
		return "", false
	}
	prefixes := make([]string, 0, len(r.Aliases))
	for prefix := range r.Aliases {
		prefixes = append(prefixes, prefix)
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })
	for _, prefix := range prefixes {
		if request == prefix || strings.HasPrefix(request, prefix) {
			rest := strings.TrimPrefix(request, prefix)
			return filepath.Join(r.Root, r.Aliases[prefix], rest), true
		}
	}
	return "", false
}

// probe finds the file for a path that may lack an extension or name a
// directory with an index file
func (r *Resolver) probe(base string) (string, error) {
	if isFile(base) {
		return filepath.Abs(base)
	}
	for _, ext := range r.Extensions {
		if isFile(base + ext) {
			return filepath.Abs(base + ext)
		}
	}
	if isDir(base) {
		if pkg, err := readPackageJSON(base); err == nil && pkg.Main != "" {
			if resolved, err := r.probe(filepath.Join(base, pkg.Main)); err == nil {
				return resolved, nil
			}
		}
		for _, ext := range r.Extensions {
			index := filepath.Join(base, "index"+ext)
			if isFile(index) {
				return filepath.Abs(index)
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, base)
}

// splitPackage splits a bare request into package name and subpath:
// @scope/pkg/file -> ("@scope/pkg", "file"), pkg/file -> ("pkg", "file")
func splitPackage(request string) (name, subpath string, err error) {
	if strings.HasPrefix(request, "@") {
		parts := strings.SplitN(request, "/", 3)
		if len(parts) < 2 {
			return "", "", fmt.Errorf("invalid package request %q: scoped packages require @scope/package", request)
		}
		name = parts[0] + "/" + parts[1]
		if len(parts) > 2 {
			subpath = parts[2]
		}
		return name, subpath, nil
	}
	parts := strings.SplitN(request, "/", 2)
	name = parts[0]
	if len(parts) > 1 {
		subpath = parts[1]
	}
	return name, subpath, nil
}

// resolvePackage looks for the package in node_modules directories from dir
// up to the filesystem root
func (r *Resolver) resolvePackage(dir, request string) (string, error) {
	name, subpath, err := splitPackage(request)
	if err != nil {
		return "", err
	}
	for d := dir; ; d = filepath.Dir(d) {
		packageDir := filepath.Join(d, "node_modules", name)
		if isDir(packageDir) {
			return r.resolveInPackage(packageDir, subpath)
		}
		if parent := filepath.Dir(d); parent == d {
			break
		}
	}
	return "", fmt.Errorf("%w: package %s", ErrNotFound, name)
}

func (r *Resolver) resolveInPackage(packageDir, subpath string) (string, error) {
	entry := "."
	if subpath != "" {
		entry = "./" + subpath
	}
	pkg, err := readPackageJSON(packageDir)
	if err == nil && pkg.Exports != nil {
		if target, err := resolveExports(pkg.Exports, entry); err == nil {
			return r.probe(filepath.Join(packageDir, target))
		}
	}
	if subpath == "" {
		if err == nil && pkg.Module != "" {
			if resolved, err := r.probe(filepath.Join(packageDir, pkg.Module)); err == nil {
				return resolved, nil
			}
		}
		return r.probe(packageDir)
	}
	return r.probe(filepath.Join(packageDir, subpath))
}

// PackageJSON holds the package.json fields used for resolution
type PackageJSON struct {
	Main    string `json:"main,omitempty"`
	Module  string `json:"module,omitempty"`
	Exports any    `json:"exports,omitempty"`
}

func readPackageJSON(packageDir string) (*PackageJSON, error) {
	data, err := os.ReadFile(filepath.Join(packageDir, "package.json")) //nolint:gosec // G304: package.json in the project tree
	if err != nil {
		return nil, err
	}
	var pkg PackageJSON
	if err := json.Unmarshal(jsonc.ToJSON(data), &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse package.json in %s: %w", packageDir, err)
	}
	return &pkg, nil
}

// resolveExports maps an entry ("." or "./sub") through an exports field
// to a package-relative target
func resolveExports(exports any, entry string) (string, error) {
	switch exp := exports.(type) {
	case string:
		if entry == "." {
			return exp, nil
		}
	case map[string]any:
		if !hasSubpathKeys(exp) {
			// a bare conditions object applies to "."
			if entry == "." {
				return resolveTarget(exp)
			}
			break
		}
		if target, ok := exp[entry]; ok {
			return resolveTarget(target)
		}
		for pattern, target := range exp {
			if matched, subst := matchPattern(pattern, entry); matched {
				resolved, err := resolveTarget(target)
				if err != nil {
					return "", err
				}
				return strings.Replace(resolved, "*", subst, 1), nil
			}
		}
	}
	return "", fmt.Errorf("no export for %s", entry)
}

func hasSubpathKeys(exp map[string]any) bool {
	for k := range exp {
		if strings.HasPrefix(k, ".") {
			return true
		}
	}
	return false
}

// resolveTarget picks a target from a string, a condition map or a fallback
// array
func resolveTarget(target any) (string, error) {
	switch t := target.(type) {
	case string:
		return t, nil
	case map[string]any:
		for _, cond := range conditions {
			if next, ok := t[cond]; ok {
				if resolved, err := resolveTarget(next); err == nil {
					return resolved, nil
				}
			}
		}
		return "", fmt.Errorf("no supported export condition")
	case []any:
		for _, next := range t {
			if resolved, err := resolveTarget(next); err == nil {
				return resolved, nil
			}
		}
	}
	return "", fmt.Errorf("unsupported export target %T", target)
}

// matchPattern matches a single-wildcard subpath pattern like "./*" and
// returns the captured substitution
func matchPattern(pattern, entry string) (bool, string) {
	prefix, suffix, ok := strings.Cut(pattern, "*")
	if !ok || strings.Contains(suffix, "*") {
		return false, ""
	}
	if !strings.HasPrefix(entry, prefix) || !strings.HasSuffix(entry, suffix) {
		return false, ""
	}
	if len(prefix) > len(entry)-len(suffix) {
		return false, ""
	}
	return true, entry[len(prefix) : len(entry)-len(suffix)]
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
