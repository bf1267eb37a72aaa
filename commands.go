package main

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/docreflect/internal/classfile"
	"github.com/phobologic/docreflect/internal/config"
	"github.com/phobologic/docreflect/internal/index"
	"github.com/phobologic/docreflect/internal/model"
	"github.com/phobologic/docreflect/internal/ranking"
	"github.com/phobologic/docreflect/internal/toon"
	"github.com/phobologic/docreflect/pkg/callable"
	"github.com/phobologic/docreflect/pkg/doccomment"
)

// mapOptions are the flags of the map command. The root command shares them.
type mapOptions struct {
	maxFiles  int
	class     string
	file      string
	cache     string
	format    string
	progress  bool
	skipTests bool
	excludes  []string
}

func (o *mapOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVarP(&o.maxFiles, "max-files", "n", 0, "maximum number of files to include")
	f.StringVar(&o.class, "class", "", "focus on classes whose name contains this string")
	f.StringVar(&o.file, "file", "", "focus on files whose path contains this string")
	f.StringVar(&o.cache, "cache", "", "cache parsed files in this database")
	f.StringVarP(&o.format, "format", "f", "", "output format: toon, json or yaml")
	f.BoolVar(&o.progress, "progress", false, "show a progress bar on stderr")
	f.BoolVar(&o.skipTests, "skip-tests", false, "ignore test directories and *Test.php files")
	f.StringSliceVar(&o.excludes, "exclude", nil, "additional glob to exclude (repeatable)")
}

// apply layers explicitly set flags over the configuration.
func (o *mapOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("max-files") {
		cfg.Map.MaxFiles = o.maxFiles
	}
	if f.Changed("format") {
		cfg.Map.Format = o.format
	}
	if f.Changed("cache") {
		cfg.Cache.Enabled = o.cache != ""
		cfg.Cache.Path = o.cache
	}
	if f.Changed("skip-tests") {
		cfg.Scan.SkipTests = o.skipTests
	}
	cfg.Scan.Excludes = append(cfg.Scan.Excludes, o.excludes...)
	return cfg.Validate()
}

func mapCmd(g *globals) *cobra.Command {
	opts := &mapOptions{}
	cmd := &cobra.Command{
		Use:   "map [path]",
		Short: "Print the ranked class map of a repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMap(cmd, g, opts, args)
		},
	}
	opts.register(cmd)
	return cmd
}

func runMap(cmd *cobra.Command, g *globals, opts *mapOptions, args []string) error {
	root, cfg, err := g.prepare(firstArg(args))
	if err != nil {
		return err
	}
	if err := opts.apply(cmd, cfg); err != nil {
		return err
	}

	fileInfos, err := scanRepo(cmd.Context(), root, cfg, scanOptions{progress: opts.progress, stderr: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}

	rm := buildRepoMap(root, fileInfos)

	switch {
	case opts.class != "":
		rm = ranking.FilterByClass(rm, opts.class)
		if len(rm.Files) == 0 {
			return fmt.Errorf("no classes matching %q", opts.class)
		}
	case opts.file != "":
		rm = ranking.FilterByFile(rm, opts.file)
		if len(rm.Files) == 0 {
			return fmt.Errorf("no files matching %q", opts.file)
		}
	default:
		rm = ranking.SelectFiles(rm, cfg.Map.MaxFiles)
	}

	out := cmd.OutOrStdout()
	if cfg.Map.Format == "toon" {
		_, err = fmt.Fprintln(out, toon.Encode(rm))
		return err
	}
	return writeStructured(out, cfg.Map.Format, rm)
}

func docCmd() *cobra.Command {
	var (
		normalized bool
		tag        string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "doc [file|-]",
		Short: "Parse a doc comment and print its parts",
		Long: `Parse a /** ... */ doc comment read from a file, or from stdin when the
argument is "-" or missing, and print its summary, description and annotations.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), firstArg(args))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if normalized {
				_, err = fmt.Fprintln(out, doccomment.Normalize(raw).String())
				return err
			}

			c := doccomment.Parse(raw)
			if tag != "" {
				values := c.Tag(strings.TrimPrefix(tag, string(doccomment.AnnotationMarker)))
				if len(values) == 0 {
					return fmt.Errorf("no @%s annotation", strings.TrimPrefix(tag, "@"))
				}
				_, err = fmt.Fprintln(out, strings.Join(values, "\n"))
				return err
			}

			if format == "toon" {
				_, err = fmt.Fprintln(out, toon.EncodeComment(c))
				return err
			}
			return writeStructured(out, format, commentView{
				Summary:     c.Summary(),
				Description: c.Description(),
				Annotations: c.Annotations(),
				Tags:        c.AnnotationsByTag(),
			})
		},
	}

	cmd.Flags().BoolVar(&normalized, "normalized", false, "print the comment lines with delimiters stripped")
	cmd.Flags().StringVar(&tag, "tag", "", "print only the values of this annotation tag")
	cmd.Flags().StringVarP(&format, "format", "f", "toon", "output format: toon, json or yaml")
	return cmd
}

type commentView struct {
	Summary     string              `json:"summary" yaml:"summary"`
	Description string              `json:"description" yaml:"description"`
	Annotations []string            `json:"annotations" yaml:"annotations"`
	Tags        map[string][]string `json:"tags" yaml:"tags"`
}

func classCmd(g *globals) *cobra.Command {
	var member string

	cmd := &cobra.Command{
		Use:   "class NAME|FILE.php [path]",
		Short: "Show the reflected view of a class",
		Long: `Show a class as the reflector sees it: ancestors, interfaces, traits, the
properties visible through inheritance, constructor parameters and members.
Given a .php file instead of a name, the class declared in that file is shown
along with the file's use imports. With --member, print the parsed doc comment
of one member instead ("" for the class itself, "$name" for a property).`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, cfg, err := g.prepare(argAt(args, 1))
			if err != nil {
				return err
			}
			fileInfos, err := scanRepo(cmd.Context(), root, cfg, scanOptions{})
			if err != nil {
				return err
			}

			// A .php argument names the class declared in that file.
			name := args[0]
			var file *classfile.File
			if strings.EqualFold(filepath.Ext(name), ".php") {
				file, err = classfile.Open(cmd.Context(), name)
				if err != nil {
					return err
				}
				name = file.FQN()
			}

			ix := index.New(fileInfos)
			refl := ix.Reflector()

			out := cmd.OutOrStdout()
			if cmd.Flags().Changed("member") {
				c, err := refl.Doc(name, member)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, toon.EncodeComment(c))
				return err
			}

			c, err := refl.Class(name)
			if err != nil {
				return err
			}
			doc, err := describeClass(ix, c)
			if err != nil {
				return err
			}
			if file != nil {
				uses := file.Uses()
				var rows [][]string
				for _, fqn := range slices.Sorted(maps.Keys(uses)) {
					rows = append(rows, []string{fqn, uses[fqn]})
				}
				doc.Table("uses", []string{"name", "alias"}, rows)
			}
			_, err = fmt.Fprintln(out, doc.String())
			return err
		},
	}

	cmd.Flags().StringVar(&member, "member", "", "print the doc comment of this member")
	return cmd
}

func describeClass(ix *index.Index, c *model.ClassInfo) (*toon.Document, error) {
	refl := ix.Reflector()
	name := c.FQN()

	parents, err := refl.Parents(name)
	if err != nil {
		return nil, err
	}
	interfaces, err := refl.Interfaces(name)
	if err != nil {
		return nil, err
	}
	traits, err := refl.Traits(name)
	if err != nil {
		return nil, err
	}
	props, err := refl.Properties(name)
	if err != nil {
		return nil, err
	}
	params, err := refl.Parameters(name, "")
	if err != nil {
		return nil, err
	}

	var d toon.Document
	d.Field("class", name)
	d.Field("kind", string(c.Kind))
	file, _ := ix.FileOf(name)
	d.Field("file", file)
	d.Field("line", fmt.Sprint(c.Line))
	d.Field("summary", doccomment.Parse(c.Doc).Summary())
	d.List("parents", parents)
	d.List("interfaces", interfaces)
	d.List("traits", traits)

	propNames := make([]string, len(props))
	for i, p := range props {
		propNames[i] = "$" + p.Name
	}
	d.List("properties", propNames)

	paramSigs := make([]string, len(params))
	for i, p := range params {
		paramSigs[i] = p.String()
	}
	d.List("constructor", paramSigs)

	var rows [][]string
	for _, m := range ranking.Members(c) {
		rows = append(rows, []string{m.Kind, m.Name, fmt.Sprint(m.Line), m.Signature, m.Summary})
	}
	d.Table("members", []string{"kind", "name", "line", "signature", "summary"}, rows)
	return &d, nil
}

func callableCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "callable EXPR [path]",
		Short: "Classify a callable expression and resolve it against the sources",
		Long: `Classify a callable expression and resolve it against the classes and
functions declared in the repository. Accepted forms:

  name             free function
  Class::method    static method
  Class->method    method bound to an instance of Class
  new Class        invokable instance of Class (its __invoke method)`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, cfg, err := g.prepare(argAt(args, 1))
			if err != nil {
				return err
			}
			fileInfos, err := scanRepo(cmd.Context(), root, cfg, scanOptions{})
			if err != nil {
				return err
			}

			var diags []callable.Diagnostic
			h, err := callable.New(index.ParseExpr(args[0]), index.New(fileInfos),
				callable.WithDiagnostics(func(d callable.Diagnostic) { diags = append(diags, d) }))
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), describeCallable(args[0], h, diags).String())
			return err
		},
	}
	return cmd
}

func describeCallable(expr string, h *callable.Handle, diags []callable.Diagnostic) *toon.Document {
	t := h.Target()

	var d toon.Document
	d.Field("callable", expr)
	d.Field("kind", h.Kind().String())
	d.Field("owner", t.Owner())
	d.Field("name", t.Name())
	d.Field("static", fmt.Sprint(t.IsStatic()))

	var rows [][]string
	for _, p := range t.Parameters() {
		def := ""
		if p.HasDefault {
			def = fmt.Sprint(p.Default)
		}
		rows = append(rows, []string{p.Name, fmt.Sprint(p.HasDefault), def})
	}
	d.Table("parameters", []string{"name", "optional", "default"}, rows)

	summary := ""
	if c, ok := h.Doc(); ok {
		summary = c.Summary()
	}
	d.Field("summary", summary)

	if len(diags) > 0 {
		var diagRows [][]string
		for _, diag := range diags {
			diagRows = append(diagRows, []string{string(diag.Kind), diag.Message})
		}
		d.Table("diagnostics", []string{"kind", "message"}, diagRows)
	}
	return &d
}

func readInput(stdin io.Reader, arg string) (string, error) {
	if arg == "" || arg == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(arg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: no such file", arg)
		}
		return "", err
	}
	return string(data), nil
}

func firstArg(args []string) string { return argAt(args, 0) }

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
