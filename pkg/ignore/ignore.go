// Package ignore compiles gitignore-style exclusion lines into a path matcher.
package ignore

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

// FileName is the per-root ignore file picked up by LoadIgnoreFiles.
const FileName = ".bundleignore"

// GlobalEnv names the environment variable pointing at a global ignore file.
const GlobalEnv = "BUNDLEIGNORE_GLOBAL"

// Pattern is one compiled ignore line.
type Pattern struct {
	Glob    string // doublestar glob matched against root-relative slash paths.
	Negate  bool   // Line started with '!'.
	DirOnly bool   // Line ended with '/'.
	Line    string // Original pattern line.
	LineNo  int    // Line number in the source (1-based).
	Source  string // File the line came from, empty for inline patterns.
}

// Matcher holds compiled patterns. The zero value matches nothing.
type Matcher struct {
	patterns []*Pattern
	logger   *zap.Logger
}

// New initializes a Matcher with an optional logger.
func New(logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{logger: logger}
}

// LoadIgnoreFiles compiles the given ignore files in order. Missing files are
// skipped; unreadable ones fail the load.
func LoadIgnoreFiles(logger *zap.Logger, paths ...string) (*Matcher, error) {
	m := New(logger)
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := m.CompileIgnoreFile(p); err != nil {
			if os.IsNotExist(err) {
				m.logger.Debug("Ignore file does not exist and will be skipped", zap.String("filePath", p))
				continue
			}
			return nil, fmt.Errorf("failed to load ignore file %s: %w", p, err)
		}
	}
	return m, nil
}

// CompileIgnoreLines compiles inline pattern lines.
func (m *Matcher) CompileIgnoreLines(lines ...string) {
	m.compile("", lines)
}

// CompileIgnoreFile reads an ignore file and compiles its lines.
func (m *Matcher) CompileIgnoreFile(fpath string) error {
	content, err := os.ReadFile(fpath)
	if err != nil {
		return err
	}

	lines := strings.Split(string(content), "\n")
	before := len(m.patterns)
	m.compile(fpath, lines)
	m.logger.Debug("Compiled ignore patterns",
		zap.String("filePath", fpath),
		zap.Int("lineCount", len(lines)),
		zap.Int("patternCount", len(m.patterns)-before))
	return nil
}

func (m *Matcher) compile(source string, lines []string) {
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	for i, line := range lines {
		p, ok := parsePatternLine(line)
		if !ok {
			continue
		}
		if !doublestar.ValidatePattern(p.Glob) {
			m.logger.Warn("Invalid ignore pattern",
				zap.String("pattern", line),
				zap.String("source", source),
				zap.Int("lineNo", i+1))
			continue
		}
		p.LineNo = i + 1
		p.Source = source
		m.patterns = append(m.patterns, p)
	}
}

// Len reports the number of compiled patterns.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.patterns)
}

// Match reports whether the root-relative slash path is ignored. A path under
// an ignored directory is ignored regardless of later negations.
func (m *Matcher) Match(rel string, isDir bool) bool {
	matched, _ := m.MatchWithPattern(rel, isDir)
	return matched
}

// MatchWithPattern is Match that also returns the deciding pattern.
func (m *Matcher) MatchWithPattern(rel string, isDir bool) (bool, *Pattern) {
	if m.Len() == 0 {
		return false, nil
	}
	rel = normalizePath(rel)
	if rel == "" {
		return false, nil
	}

	parts := strings.Split(rel, "/")
	for i := 1; i < len(parts); i++ {
		if ok, p := m.matchOne(strings.Join(parts[:i], "/"), true); ok {
			return true, p
		}
	}
	return m.matchOne(rel, isDir)
}

func (m *Matcher) matchOne(rel string, isDir bool) (bool, *Pattern) {
	matched := false
	var last *Pattern
	for _, p := range m.patterns {
		if p.DirOnly && !isDir {
			continue
		}
		if ok, _ := doublestar.Match(p.Glob, rel); ok {
			matched = !p.Negate
			last = p
		}
	}
	return matched, last
}

// parsePatternLine turns one ignore line into a Pattern. Comments and blank
// lines report false.
func parsePatternLine(line string) (*Pattern, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil, false
	}

	p := &Pattern{Line: line}
	if strings.HasPrefix(trimmed, "!") {
		p.Negate = true
		trimmed = trimmed[1:]
	}
	if strings.HasPrefix(trimmed, `\#`) || strings.HasPrefix(trimmed, `\!`) {
		trimmed = trimmed[1:]
	}
	if strings.HasSuffix(trimmed, "/") {
		p.DirOnly = true
		trimmed = strings.TrimRight(trimmed, "/")
	}

	anchored := strings.HasPrefix(trimmed, "/") || strings.Contains(trimmed, "/")
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return nil, false
	}
	if anchored || strings.HasPrefix(trimmed, "**") {
		p.Glob = trimmed
	} else {
		p.Glob = "**/" + trimmed
	}
	return p, true
}

func normalizePath(rel string) string {
	rel = strings.ReplaceAll(rel, `\`, "/")
	rel = path.Clean(rel)
	if rel == "." {
		return ""
	}
	return strings.TrimPrefix(rel, "/")
}
