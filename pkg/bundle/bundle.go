// Package bundle walks a project tree and concatenates the selected files into
// a single text bundle with delimiter headers.
package bundle

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codebundle/pkg/ignore"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
)

// Builder performs bundle runs for one set of Options.
type Builder struct {
	opts     Options
	root     string
	output   string
	logger   *zap.Logger
	encoding encoding.Encoding

	extensions map[string]struct{}
	filenames  map[string]struct{}
	always     map[string]struct{}
	dirNames   map[string]struct{}
	matchers   []PathMatcher
	skipPaths  map[string]struct{}

	readDir  func(string) ([]fs.DirEntry, error)
	stat     func(string) (fs.FileInfo, error)
	readFile func(string) ([]byte, error)
}

// New validates opts and prepares a Builder. The root itself is checked when
// a run starts.
func New(opts Options, logger *zap.Logger) (*Builder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.MaxFileSize < 0 {
		return nil, fmt.Errorf("max file size must not be negative: %d", opts.MaxFileSize)
	}

	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRootInvalid, err)
	}

	enc, err := lookupEncoding(opts.Encoding)
	if err != nil {
		return nil, err
	}

	b := &Builder{
		opts:       opts,
		root:       root,
		logger:     logger,
		encoding:   enc,
		extensions: toSet(opts.Inclusion.Extensions),
		filenames:  toSet(opts.Inclusion.Filenames),
		always:     make(map[string]struct{}),
		dirNames:   make(map[string]struct{}),
		matchers:   append([]PathMatcher(nil), opts.Exclusion.Matchers...),
		skipPaths:  make(map[string]struct{}),
		readDir:    readDirUnsorted,
		stat:       os.Stat,
		readFile:   os.ReadFile,
	}

	for _, p := range opts.Inclusion.AlwaysInclude {
		b.always[filepath.ToSlash(filepath.Clean(p))] = struct{}{}
	}

	var dirPaths []string
	for _, d := range opts.Exclusion.Dirs {
		d = strings.Trim(filepath.ToSlash(d), "/")
		if d == "" {
			continue
		}
		if strings.Contains(d, "/") {
			dirPaths = append(dirPaths, "/"+d+"/")
			continue
		}
		b.dirNames[d] = struct{}{}
	}
	if len(dirPaths) > 0 {
		m := ignore.New(logger)
		m.CompileIgnoreLines(dirPaths...)
		b.matchers = append(b.matchers, m)
	}

	if opts.Output != "" {
		b.output, err = filepath.Abs(opts.Output)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrOutputUnavailable, err)
		}
		b.skipPaths[b.output] = struct{}{}
	}

	return b, nil
}

// Root returns the absolute traversal root.
func (b *Builder) Root() string { return b.root }

// Output returns the absolute output path, empty if none was configured.
func (b *Builder) Output() string { return b.output }

// Build runs one pass, writing the bundle to Options.Output. The destination
// is replaced only after every block has been written and flushed.
func (b *Builder) Build() (*Summary, error) {
	startTime := time.Now()
	if err := b.checkRoot(); err != nil {
		return nil, err
	}
	if b.output == "" {
		return nil, fmt.Errorf("%w: no output path configured", ErrOutputUnavailable)
	}

	out, err := createOutput(b.output, b.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOutputUnavailable, err)
	}
	b.skipPaths[out.tempPath] = struct{}{}
	defer delete(b.skipPaths, out.tempPath)

	summary, err := b.run(out.file)
	if err != nil {
		out.abort()
		return summary, err
	}
	if err := out.commit(); err != nil {
		return summary, fmt.Errorf("%w: %w", ErrOutputUnavailable, err)
	}

	if b.opts.Tree != "" {
		tree := RenderTree(filepath.Base(b.root), summary.Added)
		if err := writeToFile(b.opts.Tree, []byte(tree), 0644, b.logger); err != nil {
			return summary, fmt.Errorf("%w: tree: %w", ErrOutputUnavailable, err)
		}
	}

	b.logger.Info("Bundle written",
		zap.String("outputFile", b.output),
		zap.Int("totalFiles", summary.Files),
		zap.String("totalSize", humanize.IBytes(uint64(summary.Bytes))),
		zap.Int("skipped", len(summary.Skipped)),
		zap.Duration("elapsed", time.Since(startTime)))
	return summary, nil
}

// BuildTo runs one pass writing blocks to w. Only root and sink failures are
// returned as errors; per-file problems land in the Summary.
func (b *Builder) BuildTo(w io.Writer) (*Summary, error) {
	if err := b.checkRoot(); err != nil {
		return nil, err
	}
	return b.run(w)
}

// Candidates lists what a run would try to bundle, in output order, with
// sizes filled in where they can be determined. Missing explicit entries and
// sub-roots, and unreadable directories, are returned as skips.
func (b *Builder) Candidates() ([]Candidate, []Skip, error) {
	if err := b.checkRoot(); err != nil {
		return nil, nil, err
	}
	var (
		out   []Candidate
		skips []Skip
	)
	b.candidates(func(c Candidate) bool {
		if info, err := b.stat(c.Path); err == nil {
			c.Size = info.Size()
		}
		out = append(out, c)
		return true
	}, func(rel string, reason SkipReason, err error) {
		skips = append(skips, Skip{Path: rel, Reason: reason, Err: err})
	})
	return out, skips, nil
}

// run writes every candidate to w. A sink failure stops enumeration, so the
// returned summary only covers what was seen before it.
func (b *Builder) run(w io.Writer) (*Summary, error) {
	b.logger.Info("Starting bundle", zap.String("root", b.root), zap.Bool("explicit", b.explicit()))

	summary := &Summary{}
	writer := bufio.NewWriter(w)

	var sinkErr error
	b.candidates(func(c Candidate) bool {
		sinkErr = b.process(writer, c, summary)
		return sinkErr == nil
	}, func(rel string, reason SkipReason, err error) {
		summary.skip(rel, reason, 0, err)
	})
	if sinkErr != nil {
		return summary, sinkErr
	}

	if err := writer.Flush(); err != nil {
		return summary, fmt.Errorf("%w: flush: %w", ErrOutputUnavailable, err)
	}
	return summary, nil
}

func (b *Builder) checkRoot() error {
	info, err := os.Stat(b.root)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRootInvalid, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrRootInvalid, b.root)
	}
	return nil
}

func (b *Builder) explicit() bool {
	return len(b.opts.Inclusion.ExplicitFiles) > 0
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
