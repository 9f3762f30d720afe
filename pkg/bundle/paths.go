package bundle

import (
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// Dirs lists the directories a run reads from: the root plus every directory
// the traversal would descend into. In explicit-list mode it is the root plus
// the existing parent directories of the listed files.
func (b *Builder) Dirs() ([]string, error) {
	if err := b.checkRoot(); err != nil {
		return nil, err
	}
	dirs := []string{b.root}

	switch {
	case b.explicit():
		for _, listed := range b.opts.Inclusion.ExplicitFiles {
			p := filepath.FromSlash(listed)
			if !filepath.IsAbs(p) {
				p = filepath.Join(b.root, p)
			}
			parent := filepath.Dir(p)
			if info, err := b.stat(parent); err == nil && info.IsDir() && !slices.Contains(dirs, parent) {
				dirs = append(dirs, parent)
			}
		}
	case len(b.opts.Subdirs) > 0:
		for _, sub := range b.opts.Subdirs {
			rel := filepath.ToSlash(filepath.Clean(sub))
			if rel == "." {
				rel = ""
			}
			dir := filepath.Join(b.root, filepath.FromSlash(rel))
			if info, err := b.stat(dir); err != nil || !info.IsDir() || b.pruneDirPath(rel) {
				continue
			}
			if !slices.Contains(dirs, dir) {
				dirs = append(dirs, dir)
			}
			for _, d := range b.collectDirs(dir, rel, nil) {
				if !slices.Contains(dirs, d) {
					dirs = append(dirs, d)
				}
			}
		}
	default:
		dirs = b.collectDirs(b.root, "", dirs)
	}
	return dirs, nil
}

func (b *Builder) collectDirs(dir, rel string, acc []string) []string {
	entries, err := b.readDir(dir)
	if err != nil {
		b.logger.Debug("Failed to read directory", zap.String("directory", dir), zap.Error(err))
		return acc
	}
	for _, entry := range entries {
		if !entry.IsDir() || entry.Type()&fs.ModeSymlink != 0 {
			continue
		}
		childRel := joinRel(rel, entry.Name())
		if b.pruneDir(childRel, entry.Name()) {
			continue
		}
		child := filepath.Join(dir, entry.Name())
		acc = append(acc, child)
		acc = b.collectDirs(child, childRel, acc)
	}
	return acc
}

// Affects reports whether a change at path could alter the bundle. Changes to
// the bundle output itself, to its temporary siblings and inside pruned
// directories never do. It is safe to call while a Build is running.
func (b *Builder) Affects(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	// Affects runs alongside Build, so it must not touch skipPaths.
	if b.output != "" {
		if abs == b.output {
			return false
		}
		if filepath.Dir(abs) == filepath.Dir(b.output) &&
			strings.HasPrefix(filepath.Base(abs), "."+filepath.Base(b.output)+".") {
			return false
		}
	}

	rel, err := filepath.Rel(b.root, abs)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	if b.explicit() {
		for _, listed := range b.opts.Inclusion.ExplicitFiles {
			p := filepath.FromSlash(listed)
			if !filepath.IsAbs(p) {
				p = filepath.Join(b.root, p)
			}
			if p == abs || strings.HasPrefix(p, abs+string(filepath.Separator)) {
				return true
			}
		}
		return false
	}

	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return false
	}
	parts := strings.Split(rel, "/")
	if len(b.opts.Subdirs) > 0 && len(parts) > 1 && !b.underSubdir(rel) {
		return false
	}
	if len(parts) > 1 && b.pruneDirPath(strings.Join(parts[:len(parts)-1], "/")) {
		return false
	}
	leaf := parts[len(parts)-1]
	if !b.opts.Exclusion.IncludeHidden && strings.HasPrefix(leaf, ".") {
		return false
	}
	return true
}

func (b *Builder) underSubdir(rel string) bool {
	for _, sub := range b.opts.Subdirs {
		sub = filepath.ToSlash(filepath.Clean(sub))
		if sub == "." || rel == sub || strings.HasPrefix(rel, sub+"/") {
			return true
		}
	}
	return false
}
