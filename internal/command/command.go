// Package command implements the csslift command line.
package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"bennypowers.dev/csslift/ax"
	"bennypowers.dev/csslift/internal/compiler"
	"bennypowers.dev/csslift/internal/config"
	"bennypowers.dev/csslift/internal/log"
	"bennypowers.dev/csslift/internal/version"
)

const appName = "csslift"

// ErrDefinitionsFailed is returned by extract when any style definition
// could not be compiled
var ErrDefinitionsFailed = errors.New("style definitions failed to compile")

// New returns the csslift application. Output goes to stdout, diagnostics to
// the log.
func New(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:            appName,
		Usage:           "extracts atomic CSS from style definitions in JavaScript and TypeScript",
		Version:         version.Full(),
		Writer:          stdout,
		HideHelpCommand: true,
		Before:          setup,
		After:           teardown,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML or JSON)"},
			&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Usage: "project `DIR`, the current directory by default"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log resolution and compilation details"},
		},
		Commands: []*cli.Command{
			{
				Name:      "extract",
				Usage:     "Compiles the style definitions of every matching file",
				ArgsUsage: "[GLOB...]",
				Action:    runExtract,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "output `FORMAT` (json or yaml)"},
					&cli.IntFlag{Name: "jobs", Aliases: []string{"j"}, Value: runtime.NumCPU(), Usage: "compile `N` files in parallel"},
				},
			},
			{
				Name:      "merge",
				Usage:     "Merges atomic class names, last declaration per group wins",
				ArgsUsage: "CLASSES...",
				Action:    runMerge,
			},
			{
				Name:   "version",
				Usage:  "Prints build information",
				Action: runVersion,
			},
		},
	}
}

// Run runs the application with os.Args style arguments
func Run(ctx context.Context, args []string, stdout io.Writer) error {
	return New(stdout).Run(ctx, args)
}

func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("debug") {
		log.SetLevel(log.LevelDebug)
	}
	log.Debug("%s %s started with %v", appName, version.Get(), cmd.Args().Slice())
	return ctx, nil
}

func teardown(_ context.Context, _ *cli.Command) error {
	log.Sync()
	return nil
}

func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

// loadConfig reads --config, or the configuration of --root
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	root := cmd.String("root")
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var cfg *config.Config
	if path := cmd.String("config"); path != "" {
		cfg, err = config.LoadFile(path)
		if err == nil && cmd.String("root") != "" {
			cfg.Root = root
		}
	} else {
		cfg, err = config.Load(root)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load configuration: %w", err)
	}

	if cfg.LogLevel != "" && !cmd.Bool("debug") {
		level, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		log.SetLevel(level)
	}
	if cfg.Source == "" {
		log.Debug("using default configuration for %s", cfg.Root)
	} else {
		log.Debug("using configuration from %s", cfg.Source)
	}
	return cfg, nil
}

func runExtract(ctx context.Context, cmd *cli.Command) error {
	format := strings.ToLower(cmd.String("format"))
	if format != "json" && format != "yaml" {
		return fmt.Errorf("unknown output format %q", format)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	patterns := cmd.Args().Slice()
	if len(patterns) == 0 {
		patterns = cfg.Include
	}
	files, err := cfg.Expand(patterns)
	if err != nil {
		return err
	}
	sort.Sort(natural.StringSlice(files))

	results, err := compileAll(ctx, cfg, files, cmd.Int("jobs"))
	if err != nil {
		return err
	}

	var failures error
	for _, r := range results {
		for _, e := range multierr.Errors(r.Err) {
			log.Error("%v", e)
		}
		failures = multierr.Append(failures, r.Err)
	}

	if err := write(output(cmd), format, results); err != nil {
		return err
	}
	if n := len(multierr.Errors(failures)); n > 0 {
		return fmt.Errorf("%w: %d", ErrDefinitionsFailed, n)
	}
	return nil
}

// compileAll compiles files in parallel, each with its own pass and cache.
// Results keep the order of files.
func compileAll(ctx context.Context, cfg *config.Config, files []string, jobs int) ([]*compiler.FileResult, error) {
	logger := log.Named("extract")
	results := make([]*compiler.FileResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(path) //nolint:gosec // G304: files matched by the user's globs
			if err != nil {
				return fmt.Errorf("unable to read %s: %w", path, err)
			}
			r, err := compiler.Compile(path, src, compiler.Options{Config: cfg})
			if err != nil {
				return err
			}
			logger.Debug("compiled file",
				zap.String("path", path),
				zap.Int("definitions", len(r.Definitions)),
				zap.Strings("included", r.IncludedFiles))
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func write(w io.Writer, format string, results []*compiler.FileResult) error {
	if results == nil {
		results = []*compiler.FileResult{}
	}
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func runMerge(_ context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	values := make([]any, len(args))
	for i, a := range args {
		values[i] = a
	}
	_, err := fmt.Fprintln(output(cmd), ax.Merge(values...))
	return err
}

func runVersion(_ context.Context, cmd *cli.Command) error {
	out, err := yaml.Marshal(version.Build())
	if err != nil {
		return err
	}
	_, err = output(cmd).Write(out)
	return err
}
