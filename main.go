// docreflect inspects PHP doc comments, classes and callables, and builds a
// ranked class map of a repository in TOON format.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/docreflect/internal/config"
)

var version = "dev"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	logLevel   string
}

func run(args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globals{}
	mapOpts := &mapOptions{}

	cmd := &cobra.Command{
		Use:   "docreflect [path]",
		Short: "Inspect PHP doc comments, classes and callables",
		Long: `docreflect parses PHP sources with tree-sitter and answers questions about
their documentation: a ranked class map of the repository, the parsed form of
a doc comment, the reflected view of a class, or how a callable expression
resolves.

Invoked with only a path, it prints the class map (same as "docreflect map").`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(cmd, g, mapOpts, args)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default: docreflect.yaml in the repository root)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (trace, debug, info, warn, error, disabled)")
	mapOpts.register(cmd)

	cmd.AddCommand(mapCmd(g))
	cmd.AddCommand(docCmd())
	cmd.AddCommand(classCmd(g))
	cmd.AddCommand(callableCmd(g))
	cmd.AddCommand(initCmd())

	return cmd
}

// prepare resolves the repository root, loads its configuration and applies
// the log level.
func (g *globals) prepare(arg string) (string, *config.Config, error) {
	root, err := resolveRoot(arg)
	if err != nil {
		return "", nil, err
	}

	var cfg *config.Config
	if g.configPath != "" {
		cfg, err = config.Load(g.configPath)
	} else {
		cfg, err = config.LoadFromDir(root)
	}
	if err != nil {
		return "", nil, fmt.Errorf("loading config: %w", err)
	}

	level := cfg.Logging.Level
	if g.logLevel != "" {
		level = g.logLevel
	}
	if err := setLogLevel(level); err != nil {
		return "", nil, err
	}
	return root, cfg, nil
}

func setLogLevel(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

func resolveRoot(arg string) (string, error) {
	if arg == "" {
		arg = "."
	}
	root, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: not a directory", root)
	}
	return root, nil
}

var errUnknownFormat = errors.New("unknown output format")

// writeStructured prints v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%w %q", errUnknownFormat, format)
}
