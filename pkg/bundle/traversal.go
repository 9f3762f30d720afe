package bundle

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// visitFunc receives one candidate and reports whether enumeration should
// continue.
type visitFunc func(Candidate) bool

// skipFunc records a path that produced no candidates: a missing explicit
// entry or sub-root, or a directory that could not be listed.
type skipFunc func(rel string, reason SkipReason, err error)

// candidates feeds visit with every candidate in output order, each file at
// most once. Enumeration stops as soon as visit returns false.
func (b *Builder) candidates(visit visitFunc, skip skipFunc) {
	seen := make(map[string]struct{})
	once := func(c Candidate) bool {
		if _, ok := seen[c.Path]; ok {
			b.logger.Debug("Skipping repeated candidate", zap.String("path", c.RelPath))
			return true
		}
		seen[c.Path] = struct{}{}
		return visit(c)
	}

	switch {
	case b.explicit():
		b.explicitCandidates(once, skip)
	case len(b.opts.Subdirs) > 0:
		for _, sub := range b.opts.Subdirs {
			rel := path.Clean(filepath.ToSlash(sub))
			if rel == "." {
				rel = ""
			}
			dir := filepath.Join(b.root, filepath.FromSlash(rel))
			info, err := b.stat(dir)
			if err != nil || !info.IsDir() {
				if err == nil {
					err = fs.ErrNotExist
				}
				b.logger.Warn("Sub-root not found", zap.String("directory", sub))
				skip(sub, SkipNotFound, err)
				continue
			}
			if b.pruneDirPath(rel) {
				b.logger.Debug("Skipping excluded sub-root", zap.String("directory", rel))
				continue
			}
			if !b.walk(dir, rel, true, once, skip) {
				return
			}
		}
		b.walk(b.root, "", false, once, skip)
	default:
		b.walk(b.root, "", true, once, skip)
	}
}

func (b *Builder) explicitCandidates(visit visitFunc, skip skipFunc) {
	for _, listed := range b.opts.Inclusion.ExplicitFiles {
		p := filepath.FromSlash(listed)
		if filepath.IsAbs(p) {
			p = filepath.Clean(p)
		} else {
			p = filepath.Join(b.root, p)
		}
		if b.isOwnOutput(p) {
			b.logger.Debug("Skipping bundle output", zap.String("path", listed))
			continue
		}
		if _, err := b.stat(p); errors.Is(err, fs.ErrNotExist) {
			b.logger.Warn("File not found", zap.String("path", listed))
			skip(listed, SkipNotFound, nil)
			continue
		}
		if !visit(Candidate{
			Path:    p,
			RelPath: listed,
			Ext:     extension(filepath.Base(p)),
			Size:    -1,
		}) {
			return
		}
	}
}

// walk visits dir depth-first: its candidate files first, then the
// subdirectories that survive pruning. Excluded subdirectories are dropped
// before descent and never enumerated. It returns false once visit has asked
// to stop.
func (b *Builder) walk(dir, rel string, recurse bool, visit visitFunc, skip skipFunc) bool {
	entries, err := b.readDir(dir)
	if err != nil {
		b.logger.Warn("Failed to read directory", zap.String("directory", dir), zap.Error(err))
		where := rel
		if where == "" {
			where = "."
		}
		skip(where, SkipReadError, err)
		return true
	}
	if b.opts.Sort {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Name() < entries[j].Name()
		})
	}

	var dirs []string
	for _, entry := range entries {
		name := entry.Name()
		childPath := filepath.Join(dir, name)
		childRel := joinRel(rel, name)

		isDir := entry.IsDir()
		if entry.Type()&fs.ModeSymlink != 0 {
			if info, err := b.stat(childPath); err == nil && info.IsDir() {
				b.logger.Debug("Not following directory symlink", zap.String("path", childRel))
				continue
			}
		}

		if isDir {
			if !recurse {
				continue
			}
			if b.pruneDir(childRel, name) {
				b.logger.Debug("Pruning excluded directory", zap.String("directory", childRel))
				continue
			}
			dirs = append(dirs, name)
			continue
		}

		if !b.includeFile(childRel, name) || b.isOwnOutput(childPath) {
			continue
		}
		if !visit(Candidate{
			Path:    childPath,
			RelPath: childRel,
			Ext:     extension(name),
			Size:    -1,
		}) {
			return false
		}
	}

	for _, name := range dirs {
		if !b.walk(filepath.Join(dir, name), joinRel(rel, name), true, visit, skip) {
			return false
		}
	}
	return true
}

// pruneDir reports whether a directory is excluded by name, by the dot-prefix
// convention or by a path matcher.
func (b *Builder) pruneDir(rel, name string) bool {
	if _, ok := b.dirNames[name]; ok {
		return true
	}
	if !b.opts.Exclusion.IncludeHidden && strings.HasPrefix(name, ".") {
		return true
	}
	for _, m := range b.matchers {
		if m.Match(rel, true) {
			return true
		}
	}
	return false
}

// pruneDirPath applies pruneDir to every segment of rel.
func (b *Builder) pruneDirPath(rel string) bool {
	if rel == "" || rel == "." {
		return false
	}
	parts := strings.Split(rel, "/")
	for i := range parts {
		if b.pruneDir(strings.Join(parts[:i+1], "/"), parts[i]) {
			return true
		}
	}
	return false
}

// includeFile applies the inclusion policy to a traversed file.
func (b *Builder) includeFile(rel, name string) bool {
	if !b.opts.Exclusion.IncludeHidden && strings.HasPrefix(name, ".") {
		return false
	}
	for _, m := range b.matchers {
		if m.Match(rel, false) {
			return false
		}
	}
	if _, ok := b.always[rel]; ok {
		return true
	}
	if _, ok := b.filenames[name]; ok {
		return true
	}
	if ext := extension(name); ext != "" {
		if _, ok := b.extensions[ext]; ok {
			return true
		}
	}
	return false
}

func (b *Builder) isOwnOutput(p string) bool {
	if len(b.skipPaths) == 0 {
		return false
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	_, ok := b.skipPaths[abs]
	return ok
}

// readDirUnsorted lists a directory in the order the filesystem returns it.
func readDirUnsorted(dir string) ([]fs.DirEntry, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.ReadDir(-1)
}

// extension returns the suffix starting at the last dot, treating a leading
// dot as part of the name.
func extension(name string) string {
	ext := filepath.Ext(name)
	if ext == name {
		return ""
	}
	return ext
}

func joinRel(rel, name string) string {
	if rel == "" {
		return name
	}
	return rel + "/" + name
}
