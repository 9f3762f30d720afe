package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestParsePatternLine(t *testing.T) {
	tests := []struct {
		line    string
		ok      bool
		glob    string
		negate  bool
		dirOnly bool
	}{
		{line: "", ok: false},
		{line: "   ", ok: false},
		{line: "# comment", ok: false},
		{line: "build", ok: true, glob: "**/build"},
		{line: "build/", ok: true, glob: "**/build", dirOnly: true},
		{line: "/build", ok: true, glob: "build"},
		{line: "ios/Flutter/", ok: true, glob: "ios/Flutter", dirOnly: true},
		{line: "!keep.dart", ok: true, glob: "**/keep.dart", negate: true},
		{line: `\#hash`, ok: true, glob: "**/#hash"},
		{line: "**/*.g.dart", ok: true, glob: "**/*.g.dart"},
		{line: "/", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			p, ok := parsePatternLine(tt.line)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.glob, p.Glob)
			assert.Equal(t, tt.negate, p.Negate)
			assert.Equal(t, tt.dirOnly, p.DirOnly)
		})
	}
}

func TestMatcher_Match(t *testing.T) {
	m := New(zaptest.NewLogger(t))
	m.CompileIgnoreLines(
		"*.g.dart",
		"!keep.g.dart",
		"ios/Flutter/",
		"generated/",
		"/secrets.json",
	)
	require.Equal(t, 5, m.Len())

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"lib/model.g.dart", false, true},
		{"model.g.dart", false, true},
		{"lib/keep.g.dart", false, false},
		{"lib/model.dart", false, false},
		{"ios/Flutter", true, true},
		{"ios/Flutter/Generated.xcconfig", false, true},
		{"android/ios/Flutter", true, false},
		{"lib/generated", true, true},
		{"lib/generated", false, false},
		{"lib/generated/keep.g.dart", false, true},
		{"secrets.json", false, true},
		{"config/secrets.json", false, false},
		{"", true, false},
		{".", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(tt.path, tt.isDir))
		})
	}
}

func TestMatcher_MatchWithPatternReportsDecidingLine(t *testing.T) {
	m := New(nil)
	m.CompileIgnoreLines("*.log", "!important.log")

	matched, p := m.MatchWithPattern("logs/important.log", false)
	assert.False(t, matched)
	require.NotNil(t, p)
	assert.Equal(t, 2, p.LineNo)

	matched, p = m.MatchWithPattern("logs/debug.log", false)
	assert.True(t, matched)
	require.NotNil(t, p)
	assert.Equal(t, "*.log", p.Line)
}

func TestZeroValueMatchesNothing(t *testing.T) {
	var m *Matcher
	assert.False(t, m.Match("anything", false))
	assert.Equal(t, 0, m.Len())

	var empty Matcher
	assert.False(t, empty.Match("anything", true))
}

func TestLoadIgnoreFiles(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "global")
	local := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(global, []byte("*.tmp\n# comment\n\n"), 0644))
	require.NoError(t, os.WriteFile(local, []byte("build/\n!keep.tmp\n"), 0644))

	m, err := LoadIgnoreFiles(zaptest.NewLogger(t), global, filepath.Join(dir, "missing"), "", local)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())
	assert.True(t, m.Match("a/b.tmp", false))
	assert.False(t, m.Match("a/keep.tmp", false))
	assert.True(t, m.Match("app/build", true))
}

func TestLoadIgnoreFiles_UnreadableIsError(t *testing.T) {
	dir := t.TempDir()
	// A directory cannot be read as an ignore file.
	_, err := LoadIgnoreFiles(nil, dir)
	assert.Error(t, err)
}
