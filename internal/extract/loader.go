package extract

import (
	"fmt"
	"os"
	"path/filepath"

	"bennypowers.dev/csslift/internal/ast"
	"bennypowers.dev/csslift/internal/cache"
	"bennypowers.dev/csslift/internal/parser/js"
	"go.uber.org/zap"
)

// Cache namespaces
const (
	sourceNamespace  = "source"
	parseNamespace   = "parse"
	exportNamespace  = "export"
	resolveNamespace = "resolve"
)

// ParseFile parses the root file of the pass from the given source. The
// source is taken as is, so unsaved editor buffers compile too.
func (p *Pass) ParseFile(path string, source []byte) (*ast.File, error) {
	f, err := js.Parse(path, source)
	if err != nil {
		return nil, err
	}
	f.StyleImports = p.styleImports(f)
	return f, nil
}

// load reads and parses an imported file through the cache
func (p *Pass) load(path string) (*ast.File, error) {
	return cache.Load(p.cache, parseNamespace, path, func() (*ast.File, error) {
		source, err := p.readFile(path)
		if err != nil {
			return nil, err
		}
		p.logger.Debug("parsing imported file", zap.String("path", path))
		f, err := js.Parse(path, source)
		if err != nil {
			return nil, err
		}
		f.StyleImports = p.styleImports(f)
		return f, nil
	})
}

func (p *Pass) readFile(path string) ([]byte, error) {
	return cache.Load(p.cache, sourceNamespace, path, func() ([]byte, error) {
		read := p.opts.ReadFile
		if read == nil {
			read = os.ReadFile
		}
		data, err := read(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return data, nil
	})
}

// resolvePath maps an import request to an absolute file path
func (p *Pass) resolvePath(fromFile, request string) (string, error) {
	key := filepath.Dir(fromFile) + "\x00" + request
	return cache.Load(p.cache, resolveNamespace, key, func() (string, error) {
		if p.opts.Resolver != nil {
			return p.opts.Resolver(fromFile, request)
		}
		return p.modules.Resolve(fromFile, request)
	})
}

// styleImports maps the local names bound by imports from the style API
// sources to the export they name. Namespace imports map to "*".
func (p *Pass) styleImports(f *ast.File) map[string]string {
	out := map[string]string{}
	if f.Program == nil {
		return out
	}
	for _, stmt := range f.Program.Body {
		imp, ok := stmt.(*ast.Import)
		if !ok || !p.isImportSource(imp.Source) {
			continue
		}
		for _, spec := range imp.Specs {
			out[spec.Local.Name] = spec.Imported
		}
	}
	return out
}
