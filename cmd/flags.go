package cmd

import (
	"codebundle/pkg/bundle"
	"codebundle/pkg/config"
	"codebundle/pkg/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// bundleFlags holds the flags shared by bundle, list and watch. Only flags the
// user actually set override the loaded configuration.
type bundleFlags struct {
	configPath    string
	preset        string
	root          string
	output        string
	tree          string
	extensions    []string
	filenames     []string
	excludeDirs   []string
	ignore        []string
	ignoreFile    string
	maxFileSize   string
	files         []string
	subdirs       []string
	alwaysInclude []string
	encoding      string
	hidden        bool
	skipBinary    bool
	sort          bool
}

func (f *bundleFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.configPath, "config", "c", "", "Config file (default "+config.DefaultFileName+" if present)")
	fs.StringVarP(&f.preset, "preset", "p", "", "Named preset to start from")
	fs.StringVarP(&f.root, "root", "r", "", "Project root to bundle")
	fs.StringVarP(&f.output, "output", "o", "", "Bundle file path")
	fs.StringVar(&f.tree, "tree", "", "Also write a directory tree of bundled files to this path")
	fs.StringSliceVarP(&f.extensions, "ext", "e", nil, "File extensions to include, with leading dot")
	fs.StringSliceVar(&f.filenames, "name", nil, "Exact file names to include")
	fs.StringSliceVarP(&f.excludeDirs, "exclude-dir", "x", nil, "Directory names or root-relative paths to prune")
	fs.StringSliceVar(&f.ignore, "ignore", nil, "Additional ignore patterns")
	fs.StringVar(&f.ignoreFile, "ignore-file", "", "Global ignore file")
	fs.StringVar(&f.maxFileSize, "max-file-size", "", "Per-file size ceiling such as 1MiB; 0 disables it")
	fs.StringSliceVar(&f.files, "files", nil, "Explicit root-relative files to bundle, in order")
	fs.StringSliceVar(&f.subdirs, "subdir", nil, "Limit the recursive walk to these sub-roots")
	fs.StringSliceVar(&f.alwaysInclude, "always-include", nil, "Root-relative paths included regardless of extension")
	fs.StringVar(&f.encoding, "encoding", "", "Encoding used to decode file contents")
	fs.BoolVar(&f.hidden, "hidden", false, "Descend into dot-directories and include dotfiles")
	fs.BoolVar(&f.skipBinary, "skip-binary", false, "Skip files that look binary")
	fs.BoolVar(&f.sort, "sort", false, "Visit directory entries in name order")
}

// config loads the layered configuration and applies the flags that were set.
func (f *bundleFlags) config(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(f.configPath, f.preset)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.Root = f.root
	}
	if flags.Changed("output") {
		cfg.Output = f.output
	}
	if flags.Changed("tree") {
		cfg.Tree = f.tree
	}
	if flags.Changed("ext") {
		cfg.Extensions = f.extensions
	}
	if flags.Changed("name") {
		cfg.Filenames = f.filenames
	}
	if flags.Changed("exclude-dir") {
		cfg.ExcludeDirs = f.excludeDirs
	}
	if flags.Changed("ignore") {
		cfg.Ignore = append(cfg.Ignore, f.ignore...)
	}
	if flags.Changed("ignore-file") {
		cfg.IgnoreFile = f.ignoreFile
	}
	if flags.Changed("max-file-size") {
		cfg.MaxFileSize = f.maxFileSize
	}
	if flags.Changed("files") {
		cfg.ExplicitFiles = f.files
	}
	if flags.Changed("subdir") {
		cfg.Subdirs = f.subdirs
	}
	if flags.Changed("always-include") {
		cfg.AlwaysInclude = f.alwaysInclude
	}
	if flags.Changed("encoding") {
		cfg.Encoding = f.encoding
	}
	if flags.Changed("hidden") {
		cfg.IncludeHidden = f.hidden
	}
	if flags.Changed("skip-binary") {
		cfg.SkipBinary = f.skipBinary
	}
	if flags.Changed("sort") {
		cfg.Sort = f.sort
	}
	return cfg, nil
}

// builder resolves the configuration into a ready Builder.
func (f *bundleFlags) builder(cmd *cobra.Command) (*bundle.Builder, error) {
	cfg, err := f.config(cmd)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.Options(logging.Logger)
	if err != nil {
		return nil, err
	}
	return bundle.New(opts, logging.Logger)
}
