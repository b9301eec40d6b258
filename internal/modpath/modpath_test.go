package modpath_test

import (
	"os"
	"path/filepath"
	"testing"

	"bennypowers.dev/csslift/internal/modpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	from := filepath.Join(src, "app.tsx")

	writeFile(t, from, "")
	writeFile(t, filepath.Join(src, "tokens.ts"), "")
	writeFile(t, filepath.Join(src, "theme", "index.js"), "")
	writeFile(t, filepath.Join(src, "exact.js"), "")
	writeFile(t, filepath.Join(root, "shared", "colors.js"), "")

	// package with an exports map
	pkg := filepath.Join(root, "node_modules", "@ds", "tokens")
	writeFile(t, filepath.Join(pkg, "package.json"), `{
		// comments are allowed
		"name": "@ds/tokens",
		"exports": {
			".": { "import": "./esm/index.js", "require": "./cjs/index.js" },
			"./colors": "./esm/colors.js",
			"./icons/*": "./esm/icons/*.js"
		}
	}`)
	writeFile(t, filepath.Join(pkg, "esm", "index.js"), "")
	writeFile(t, filepath.Join(pkg, "esm", "colors.js"), "")
	writeFile(t, filepath.Join(pkg, "esm", "icons", "star.js"), "")

	// legacy package with main
	legacy := filepath.Join(root, "node_modules", "legacy")
	writeFile(t, filepath.Join(legacy, "package.json"), `{"main": "lib/main"}`)
	writeFile(t, filepath.Join(legacy, "lib", "main.js"), "")
	writeFile(t, filepath.Join(legacy, "util.js"), "")

	r := modpath.New(nil)
	r.Root = root
	r.Aliases = map[string]string{"@/": "src/", "~shared/": "shared/"}

	tests := []struct {
		name    string
		request string
		want    string
		wantErr bool
	}{
		{"extension probing", "./tokens", filepath.Join(src, "tokens.ts"), false},
		{"exact file", "./exact.js", filepath.Join(src, "exact.js"), false},
		{"directory index", "./theme", filepath.Join(src, "theme", "index.js"), false},
		{"parent directory", "../shared/colors", filepath.Join(root, "shared", "colors.js"), false},
		{"alias", "@/tokens", filepath.Join(src, "tokens.ts"), false},
		{"second alias", "~shared/colors", filepath.Join(root, "shared", "colors.js"), false},
		{"package conditional export", "@ds/tokens", filepath.Join(pkg, "esm", "index.js"), false},
		{"package subpath export", "@ds/tokens/colors", filepath.Join(pkg, "esm", "colors.js"), false},
		{"package pattern export", "@ds/tokens/icons/star", filepath.Join(pkg, "esm", "icons", "star.js"), false},
		{"package main", "legacy", filepath.Join(legacy, "lib", "main.js"), false},
		{"package file", "legacy/util", filepath.Join(legacy, "util.js"), false},
		{"missing relative", "./nope", "", true},
		{"missing package", "nope", "", true},
		{"invalid scoped", "@scope", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(from, tt.request)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveNotFoundIsSentinel(t *testing.T) {
	r := modpath.New([]string{".js"})
	_, err := r.Resolve(filepath.Join(t.TempDir(), "a.js"), "./missing")
	assert.ErrorIs(t, err, modpath.ErrNotFound)
}

func TestResolveHonorsExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.ts"), "")
	writeFile(t, filepath.Join(dir, "a.js"), "")

	jsFirst := modpath.New([]string{".js", ".ts"})
	got, err := jsFirst.Resolve(filepath.Join(dir, "main.js"), "./a")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.js"), got)

	tsFirst := modpath.New(nil)
	got, err = tsFirst.Resolve(filepath.Join(dir, "main.js"), "./a")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.ts"), got)
}
