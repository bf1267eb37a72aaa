package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/docreflect/internal/config"
)

const (
	sentinelStart = "<!-- docreflect:start -->"
	sentinelEnd   = "<!-- docreflect:end -->"
)

// initCmd implements `docreflect init`, which writes a default configuration
// file and, with --guide, a usage section in an agent notes file.
func initCmd() *cobra.Command {
	var (
		force  bool
		dryRun bool
		guide  string
	)

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default docreflect.yaml",
		Long: `Write a default docreflect.yaml. path may be a directory (the file is created
inside it) or a file path; it defaults to the current directory.

With --guide FILE, also write a docreflect usage section to FILE (for example
AGENTS.md). The section is wrapped in sentinel comments so later runs update
it in place without touching surrounding content.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configTarget(firstArg(args))
			if err != nil {
				return err
			}

			out, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
			cfg := config.DefaultConfig()

			if dryRun {
				if err := writeStructured(out, "yaml", cfg); err != nil {
					return err
				}
			} else {
				if _, err := os.Stat(path); err == nil && !force {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
				if err := cfg.Save(path); err != nil {
					return fmt.Errorf("writing %s: %w", path, err)
				}
				_, _ = fmt.Fprintf(stderr, "wrote %s\n", path)
			}

			if guide == "" {
				return nil
			}
			existing, err := os.ReadFile(guide)
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			updated := applySection(string(existing), generateSection())
			if dryRun {
				_, _ = fmt.Fprint(out, updated)
				return nil
			}
			if err := os.WriteFile(guide, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", guide, err)
			}
			_, _ = fmt.Fprintf(stderr, "wrote docreflect section to %s\n", guide)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying any file")
	cmd.Flags().StringVar(&guide, "guide", "", "also write a usage section to this markdown file")
	return cmd
}

// configTarget maps the init argument to the configuration file path.
func configTarget(arg string) (string, error) {
	if arg == "" {
		arg = "."
	}
	info, err := os.Stat(arg)
	switch {
	case err == nil && info.IsDir():
		return filepath.Join(arg, config.FileName), nil
	case err == nil || errors.Is(err, os.ErrNotExist):
		return arg, nil
	}
	return "", err
}

// generateSection returns the full sentinel-wrapped docreflect usage block.
func generateSection() string {
	body := `## docreflect

Use ` + "`docreflect`" + ` to answer questions about the PHP code in this repository
before grepping for them.

` + "```" + `bash
docreflect                          # ranked class map of the current directory
docreflect -n 20                    # top 20 files only
docreflect --class User             # one class, its relations and members
docreflect class 'App\Models\User'  # inherited properties, traits, constructor
docreflect class User --member save # parsed doc comment of one member
docreflect callable 'User::find'    # how a callable resolves
docreflect doc - < comment.txt      # parse a raw doc comment
` + "```" + `

Settings live in ` + "`docreflect.yaml`" + `. Enable the parse cache with
` + "`--cache .docreflect/cache.db`" + ` on large repositories.

**All flags:** ` + "`docreflect --help`"

	return sentinelStart + "\n" + body + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if content == "" {
		return section + "\n"
	}
	// Append, ensuring a blank line separator.
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
