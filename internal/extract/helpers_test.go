package extract_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bennypowers.dev/csslift/internal/ast"
	"bennypowers.dev/csslift/internal/cache"
	"bennypowers.dev/csslift/internal/extract"
	"github.com/stretchr/testify/require"
)

const header = "import { css, keyframes, styled } from '@csslift/react';\n"

// project writes files under a temporary directory and returns it
func project(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// open parses a root file of a project in a fresh pass
func open(t *testing.T, dir, name string) (*extract.Pass, *extract.Context) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	src, err := os.ReadFile(path)
	require.NoError(t, err)
	pass := extract.NewPass(extract.Options{Cache: cache.New(100)})
	f, err := pass.ParseFile(path, src)
	require.NoError(t, err)
	return pass, pass.Context(f)
}

// source parses an in-memory root file
func source(t *testing.T, src string) *extract.Context {
	t.Helper()
	pass := extract.NewPass(extract.Options{})
	f, err := pass.ParseFile("/virtual/styles.tsx", []byte(header+src))
	require.NoError(t, err)
	return pass.Context(f)
}

// definition returns the initializer of a top-level const
func definition(t *testing.T, ctx *extract.Context, name string) ast.Expr {
	t.Helper()
	for _, stmt := range ctx.File.Program.Body {
		if exp, ok := stmt.(*ast.Export); ok && exp.Decl != nil {
			stmt = exp.Decl
		}
		decl, ok := stmt.(*ast.VarDecl)
		if !ok {
			continue
		}
		for _, d := range decl.Decls {
			if id, ok := d.Target.(*ast.Ident); ok && id.Name == name {
				return d.Init
			}
		}
	}
	t.Fatalf("no definition named %s", name)
	return nil
}

// buildDefinition builds the named definition of an in-memory file
func buildDefinition(t *testing.T, src, name string) (*extract.Output, error) {
	t.Helper()
	ctx := source(t, src)
	return extract.Build(definition(t, ctx, name), ctx)
}

// describe renders items compactly for comparison
func describe(items []extract.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, describeItem(it))
	}
	return out
}

func describeItem(it extract.Item) string {
	switch it := it.(type) {
	case *extract.Unconditional:
		return it.CSS
	case *extract.Logical:
		return ast.Print(it.Expression) + " " + it.Operator + " " + it.CSS
	case *extract.Conditional:
		return "(" + ast.Print(it.Test) + " ? " + describeItem(it.Consequent) + " : " + describeItem(it.Alternate) + ")"
	case *extract.Sheet:
		return "sheet " + it.CSS
	}
	return ""
}

// withVars replaces $0, $1... with the names of the output's variables
func withVars(out *extract.Output, s string) string {
	for i := len(out.Variables) - 1; i >= 0; i-- {
		s = strings.ReplaceAll(s, "$"+string(rune('0'+i)), out.Variables[i].Name)
	}
	return s
}
